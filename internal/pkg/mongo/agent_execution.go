package mongo

import "time"

// AgentExecution 一次 n8n 工作流调用的记录
type AgentExecution struct {
	ID            string                 `bson:"_id" json:"id"`
	AgentID       uint64                 `bson:"agent_id" json:"agentId"`
	ChatID        uint64                 `bson:"chat_id" json:"chatId"`
	SenderID      uint64                 `bson:"sender_id" json:"senderId"`
	InputMessage  string                 `bson:"input_message" json:"inputMessage"`
	OutputMessage string                 `bson:"output_message,omitempty" json:"outputMessage,omitempty"`
	Status        string                 `bson:"status" json:"status"`
	Metadata      map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt     time.Time              `bson:"created_at" json:"createdAt"`
	CompletedAt   *time.Time             `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}
