package model

import "time"

// AIAgent 绑定到 n8n 工作流的智能体
type AIAgent struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	UserID           uint64 `gorm:"not null;index"`
	AgentName        string `gorm:"type:varchar(100);not null"`
	AgentDescription string `gorm:"type:varchar(500);not null;default:''"`
	N8NWorkflowID    string `gorm:"type:varchar(128);column:n8n_workflow_id;not null"`
	TriggerKeyword   string `gorm:"type:varchar(50);not null;default:''"`
	AvatarURL        string `gorm:"type:varchar(512);column:avatar_url;not null;default:''"`
	IsActive         bool   `gorm:"type:tinyint(1);not null;default:1"`
	WebhookURL       string `gorm:"type:varchar(512);column:webhook_url;not null;default:''"`
	APIKey           string `gorm:"type:varchar(255);column:api_key;not null;default:''"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (AIAgent) TableName() string { return "ai_agents" }
