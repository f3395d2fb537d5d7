package dto

import "time"

// ChatDTO 会话列表项
type ChatDTO struct {
	ID            uint64      `json:"id"`
	IsGroup       bool        `json:"is_group"`
	Title         string      `json:"title"`
	PhotoURL      string      `json:"photo_url,omitempty"`
	LastMessage   *MessageDTO `json:"last_message,omitempty"`
	LastMessageAt *time.Time  `json:"last_message_at,omitempty"`
	UnreadCount   int64       `json:"unread_count"`
}

type ChatTitleDTO struct {
	ChatID uint64 `json:"chat_id"`
	Title  string `json:"title"`
}

type DirectChatReq struct {
	Phone string `json:"phone" binding:"required"`
}

type CreateGroupReq struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"max=500"`
	MemberIDs   []uint64 `json:"member_ids" binding:"required,min=1,dive,gt=0"`
}

// UpdateGroupReq 修改群资料，nil 字段保持不变
type UpdateGroupReq struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	PhotoURL    *string `json:"photo_url" binding:"omitempty,url"`
}

type AddMembersReq struct {
	UserIDs []uint64 `json:"user_ids" binding:"required,min=1,dive,gt=0"`
}
