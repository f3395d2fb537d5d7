package service

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/model"
	"Chatwave/internal/pkg/consts"
	"Chatwave/internal/pkg/mongo"
	"Chatwave/internal/pkg/n8n"
	"Chatwave/internal/repository"
	"context"
	"crypto/subtle"
	"errors"
	log "log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// WorkflowClient n8n 工作流调用
type WorkflowClient interface {
	Trigger(ctx context.Context, t n8n.Target, payload *n8n.Payload) (*n8n.Result, error)
}

type AgentService interface {
	ListAgents(ctx context.Context, viewerID uint64) ([]*dto.AgentDTO, error)
	CreateAgent(ctx context.Context, viewerID uint64, req *dto.AgentReq) (*dto.AgentDTO, error)
	GetAgent(ctx context.Context, viewerID, agentID uint64) (*dto.AgentDTO, error)
	UpdateAgent(ctx context.Context, viewerID, agentID uint64, req *dto.AgentReq) (*dto.AgentDTO, error)
	DeleteAgent(ctx context.Context, viewerID, agentID uint64) error
	TestConnection(ctx context.Context, viewerID, agentID uint64) (*dto.ConnectionTestDTO, error)
	ExecutionHistory(ctx context.Context, viewerID, agentID uint64, limit int) ([]*dto.ExecutionDTO, error)
	// Dispatch 出站：创建执行记录并调用工作流
	Dispatch(ctx context.Context, viewerID, agentID uint64, req *dto.DispatchReq) (*dto.DispatchResultDTO, error)
	// HandleWebhook 入站：同一 executionId 只会写入一条消息
	HandleWebhook(ctx context.Context, apiKey string, req *dto.WebhookReq) (*dto.MessageDTO, error)
}

type agentServiceImpl struct {
	agentRepo repository.AgentRepo
	chatRepo  repository.ChatRepo
	execRepo  mongo.AgentExecutionRepo
	messages  MessageService
	workflow  WorkflowClient
	now       func() time.Time
}

func NewAgentService(
	agentRepo repository.AgentRepo,
	chatRepo repository.ChatRepo,
	execRepo mongo.AgentExecutionRepo,
	messages MessageService,
	workflow WorkflowClient,
) AgentService {
	return &agentServiceImpl{
		agentRepo: agentRepo,
		chatRepo:  chatRepo,
		execRepo:  execRepo,
		messages:  messages,
		workflow:  workflow,
		now:       time.Now,
	}
}

func (s *agentServiceImpl) ListAgents(ctx context.Context, viewerID uint64) ([]*dto.AgentDTO, error) {
	agents, err := s.agentRepo.ListAgentsByUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.AgentDTO, 0, len(agents))
	for _, a := range agents {
		res = append(res, toAgentDTO(a))
	}
	return res, nil
}

func (s *agentServiceImpl) CreateAgent(ctx context.Context, viewerID uint64, req *dto.AgentReq) (*dto.AgentDTO, error) {
	agent := &model.AIAgent{}
	_ = copier.Copy(agent, req)
	agent.UserID = viewerID
	agent.IsActive = req.IsActive == nil || *req.IsActive

	if err := s.agentRepo.CreateAgent(ctx, agent); err != nil {
		return nil, err
	}
	return toAgentDTO(agent), nil
}

func (s *agentServiceImpl) GetAgent(ctx context.Context, viewerID, agentID uint64) (*dto.AgentDTO, error) {
	agent, err := s.ownedAgent(ctx, viewerID, agentID)
	if err != nil {
		return nil, err
	}
	return toAgentDTO(agent), nil
}

func (s *agentServiceImpl) UpdateAgent(ctx context.Context, viewerID, agentID uint64, req *dto.AgentReq) (*dto.AgentDTO, error) {
	if _, err := s.ownedAgent(ctx, viewerID, agentID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"agent_name":        req.AgentName,
		"agent_description": req.AgentDescription,
		"n8n_workflow_id":   req.N8NWorkflowID,
		"trigger_keyword":   req.TriggerKeyword,
		"avatar_url":        req.AvatarURL,
		"webhook_url":       req.WebhookURL,
	}
	if req.APIKey != "" {
		updates["api_key"] = req.APIKey
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if err := s.agentRepo.UpdateAgent(ctx, agentID, updates); err != nil {
		return nil, err
	}
	return s.GetAgent(ctx, viewerID, agentID)
}

func (s *agentServiceImpl) DeleteAgent(ctx context.Context, viewerID, agentID uint64) error {
	if _, err := s.ownedAgent(ctx, viewerID, agentID); err != nil {
		return err
	}
	return s.agentRepo.DeleteAgent(ctx, agentID)
}

// TestConnection 发送测试请求，失败体现在结果里而不是错误
func (s *agentServiceImpl) TestConnection(ctx context.Context, viewerID, agentID uint64) (*dto.ConnectionTestDTO, error) {
	agent, err := s.ownedAgent(ctx, viewerID, agentID)
	if err != nil {
		return nil, err
	}

	res, err := s.workflow.Trigger(ctx, targetOf(agent), &n8n.Payload{
		Message: "Test connection from chat app",
		Test:    true,
	})
	out := &dto.ConnectionTestDTO{}
	if res != nil {
		out.StatusCode = res.StatusCode
	}
	if err != nil {
		out.Message = "Connection test failed: " + err.Error()
		return out, nil
	}
	out.OK = true
	out.Message = "Connection test successful"
	return out, nil
}

func (s *agentServiceImpl) ExecutionHistory(ctx context.Context, viewerID, agentID uint64, limit int) ([]*dto.ExecutionDTO, error) {
	if _, err := s.ownedAgent(ctx, viewerID, agentID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	list, err := s.execRepo.ListByAgent(ctx, agentID, int64(limit))
	if err != nil {
		return nil, err
	}
	res := make([]*dto.ExecutionDTO, 0, len(list))
	for _, e := range list {
		item := &dto.ExecutionDTO{}
		_ = copier.Copy(item, e)
		res = append(res, item)
	}
	return res, nil
}

func (s *agentServiceImpl) Dispatch(ctx context.Context, viewerID, agentID uint64, req *dto.DispatchReq) (*dto.DispatchResultDTO, error) {
	agent, err := s.ownedAgent(ctx, viewerID, agentID)
	if err != nil {
		return nil, err
	}
	if !agent.IsActive {
		return nil, ErrAgentInactive
	}
	ok, err := s.chatRepo.IsParticipant(ctx, req.ChatID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	exec := &mongo.AgentExecution{
		ID:           uuid.NewString(),
		AgentID:      agent.ID,
		ChatID:       req.ChatID,
		SenderID:     viewerID,
		InputMessage: req.Message,
		Status:       consts.ExecutionRunning,
		CreatedAt:    s.now(),
	}
	if err = s.execRepo.Create(ctx, exec); err != nil {
		return nil, err
	}

	res, err := s.workflow.Trigger(ctx, targetOf(agent), &n8n.Payload{
		Message:        req.Message,
		AgentID:        agent.ID,
		AgentName:      agent.AgentName,
		ChatID:         req.ChatID,
		ExecutionID:    exec.ID,
		TriggerKeyword: agent.TriggerKeyword,
		Timestamp:      s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.WarnContext(ctx, "n8n workflow failed", "agent_id", agent.ID, "execution_id", exec.ID, "err", err)
		if ferr := s.execRepo.Fail(ctx, exec.ID, map[string]interface{}{"error": err.Error()}); ferr != nil {
			log.ErrorContext(ctx, "mark execution failed", "execution_id", exec.ID, "err", ferr)
		}
		return nil, ErrWorkflowFailed
	}

	out := &dto.DispatchResultDTO{ExecutionID: exec.ID, Status: consts.ExecutionRunning}
	if res.Message == "" {
		// 等待 n8n 回调
		return out, nil
	}

	msg, err := s.complete(ctx, agent, exec.ID, res.Message, map[string]interface{}{"n8n_response": res.Raw})
	if errors.Is(err, ErrExecutionHandled) {
		out.Status = consts.ExecutionCompleted
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.Status = consts.ExecutionCompleted
	out.Message = msg
	return out, nil
}

func (s *agentServiceImpl) HandleWebhook(ctx context.Context, apiKey string, req *dto.WebhookReq) (*dto.MessageDTO, error) {
	exec, err := s.execRepo.GetByID(ctx, req.ExecutionID)
	if errors.Is(err, mongodrv.ErrNoDocuments) {
		return nil, ErrExecutionNotFound
	}
	if err != nil {
		return nil, err
	}

	agent, err := s.agentRepo.GetAgent(ctx, exec.AgentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}
	if agent.APIKey != "" && subtle.ConstantTimeCompare([]byte(agent.APIKey), []byte(apiKey)) != 1 {
		return nil, ErrAgentKeyInvalid
	}

	metadata := map[string]interface{}{
		"n8n_response":        req.Metadata,
		"webhook_received_at": s.now().UTC().Format(time.RFC3339),
	}
	return s.complete(ctx, agent, exec.ID, req.Message, metadata)
}

// complete running→completed 成功后以智能体所有者身份写入 agent 消息
func (s *agentServiceImpl) complete(ctx context.Context, agent *model.AIAgent, execID, output string, metadata map[string]interface{}) (*dto.MessageDTO, error) {
	exec, err := s.execRepo.Complete(ctx, execID, output, metadata)
	if errors.Is(err, mongo.ErrExecutionNotRunning) {
		return nil, ErrExecutionHandled
	}
	if err != nil {
		return nil, err
	}

	return s.messages.Deliver(ctx, &model.Message{
		ChatID:      exec.ChatID,
		AuthorID:    agent.UserID,
		Content:     output,
		MessageType: consts.MessageTypeAgent,
		AgentID:     agent.ID,
		ExecutionID: exec.ID,
	})
}

func (s *agentServiceImpl) ownedAgent(ctx context.Context, viewerID, agentID uint64) (*model.AIAgent, error) {
	agent, err := s.agentRepo.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil || agent.UserID != viewerID {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

func targetOf(agent *model.AIAgent) n8n.Target {
	return n8n.Target{
		URL:        agent.WebhookURL,
		WorkflowID: agent.N8NWorkflowID,
		APIKey:     agent.APIKey,
	}
}
