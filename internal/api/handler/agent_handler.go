package handler

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/pkg/response"
	"Chatwave/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader 入站回调携带的智能体密钥
const APIKeyHeader = "X-API-Key"

type AgentHandler struct {
	agentService service.AgentService
}

func NewAgentHandler(agentService service.AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

func (s *AgentHandler) ListAgents(c *gin.Context) {
	res, err := s.agentService.ListAgents(c.Request.Context(), viewerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *AgentHandler) CreateAgent(c *gin.Context) {
	var req dto.AgentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.agentService.CreateAgent(c.Request.Context(), viewerID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *AgentHandler) GetAgent(c *gin.Context) {
	agentID, ok := uintParam(c, "agent_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.agentService.GetAgent(c.Request.Context(), viewerID(c), agentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *AgentHandler) UpdateAgent(c *gin.Context) {
	agentID, ok := uintParam(c, "agent_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	var req dto.AgentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.agentService.UpdateAgent(c.Request.Context(), viewerID(c), agentID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *AgentHandler) DeleteAgent(c *gin.Context) {
	agentID, ok := uintParam(c, "agent_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := s.agentService.DeleteAgent(c.Request.Context(), viewerID(c), agentID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// TestConnection 以测试负载触发一次工作流
func (s *AgentHandler) TestConnection(c *gin.Context) {
	agentID, ok := uintParam(c, "agent_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.agentService.TestConnection(c.Request.Context(), viewerID(c), agentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *AgentHandler) ExecutionHistory(c *gin.Context) {
	agentID, ok := uintParam(c, "agent_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	res, err := s.agentService.ExecutionHistory(c.Request.Context(), viewerID(c), agentID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Dispatch 把消息交给智能体工作流
func (s *AgentHandler) Dispatch(c *gin.Context) {
	agentID, ok := uintParam(c, "agent_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	var req dto.DispatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.agentService.Dispatch(c.Request.Context(), viewerID(c), agentID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Webhook n8n 工作流完成后的回调，不走 JWT
func (s *AgentHandler) Webhook(c *gin.Context) {
	apiKey := c.GetHeader(APIKeyHeader)
	if apiKey == "" {
		response.Error(c, service.ErrAgentKeyInvalid)
		return
	}
	var req dto.WebhookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.agentService.HandleWebhook(c.Request.Context(), apiKey, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
