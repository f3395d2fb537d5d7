package dto

import "time"

type AgentReq struct {
	AgentName        string `json:"agent_name" binding:"required,max=100"`
	AgentDescription string `json:"agent_description" binding:"max=500"`
	N8NWorkflowID    string `json:"n8n_workflow_id" binding:"required,max=128"`
	TriggerKeyword   string `json:"trigger_keyword" binding:"max=50"`
	AvatarURL        string `json:"avatar_url" binding:"omitempty,url"`
	IsActive         *bool  `json:"is_active"`
	WebhookURL       string `json:"webhook_url" binding:"omitempty,url"`
	APIKey           string `json:"api_key" binding:"max=255"`
}

type AgentDTO struct {
	ID               uint64    `json:"id"`
	UserID           uint64    `json:"user_id"`
	AgentName        string    `json:"agent_name"`
	AgentDescription string    `json:"agent_description"`
	N8NWorkflowID    string    `json:"n8n_workflow_id"`
	TriggerKeyword   string    `json:"trigger_keyword"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	IsActive         bool      `json:"is_active"`
	WebhookURL       string    `json:"webhook_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type DispatchReq struct {
	ChatID  uint64 `json:"chat_id" binding:"required"`
	Message string `json:"message" binding:"required,max=4000"`
}

// DispatchResultDTO 同步响应中带回消息时 Message 非空
type DispatchResultDTO struct {
	ExecutionID string      `json:"execution_id"`
	Status      string      `json:"status"`
	Message     *MessageDTO `json:"message,omitempty"`
}

// WebhookReq n8n 回调请求体
type WebhookReq struct {
	ExecutionID string                 `json:"executionId" binding:"required"`
	Message     string                 `json:"message" binding:"required"`
	Metadata    map[string]interface{} `json:"metadata"`
}

type ExecutionDTO struct {
	ID            string                 `json:"id"`
	AgentID       uint64                 `json:"agent_id"`
	ChatID        uint64                 `json:"chat_id"`
	SenderID      uint64                 `json:"sender_id"`
	InputMessage  string                 `json:"input_message"`
	OutputMessage string                 `json:"output_message,omitempty"`
	Status        string                 `json:"status"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
}

type ConnectionTestDTO struct {
	OK         bool   `json:"ok"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
