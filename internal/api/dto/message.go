package dto

import "time"

// SendMessageReq 发送消息请求体，媒体字段按 message_type 校验
type SendMessageReq struct {
	Content       string `json:"content" binding:"required,max=4000"`
	MessageType   string `json:"message_type" binding:"required,oneof=text image voice video"`
	ImageURL      string `json:"image_url" binding:"omitempty,url"`
	ImageWidth    int    `json:"image_width" binding:"omitempty,min=0"`
	ImageHeight   int    `json:"image_height" binding:"omitempty,min=0"`
	VoiceURL      string `json:"voice_url" binding:"omitempty,url"`
	VoiceDuration int    `json:"voice_duration" binding:"omitempty,min=0"`
	VideoURL      string `json:"video_url" binding:"omitempty,url"`
	VideoDuration int    `json:"video_duration" binding:"omitempty,min=0"`
}

// MessageDTO 消息明细，同时作为实时推送的 record
type MessageDTO struct {
	ID            uint64      `json:"id"`
	ChatID        uint64      `json:"chat_id"`
	AuthorID      uint64      `json:"author_id"`
	Content       string      `json:"content"`
	MessageType   string      `json:"message_type"`
	ImageURL      string      `json:"image_url,omitempty"`
	ImageWidth    int         `json:"image_width,omitempty"`
	ImageHeight   int         `json:"image_height,omitempty"`
	VoiceURL      string      `json:"voice_url,omitempty"`
	VoiceDuration int         `json:"voice_duration,omitempty"`
	VideoURL      string      `json:"video_url,omitempty"`
	VideoDuration int         `json:"video_duration,omitempty"`
	AgentID       uint64      `json:"agent_id,omitempty"`
	ExecutionID   string      `json:"execution_id,omitempty"`
	Reactions     string      `json:"reactions,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	Author        *ProfileDTO `json:"author,omitempty"`
}

// ChangeEvent 表变更事件 {"type":"INSERT","table":"messages","record":{...}}
type ChangeEvent struct {
	Type   string      `json:"type"`
	Table  string      `json:"table,omitempty"`
	Record *MessageDTO `json:"record,omitempty"`
}

type ReactionReq struct {
	Emoji string `json:"emoji" binding:"required,max=16"`
}
