package model

import (
	"fmt"
	"time"
)

// Chat 会话主表
type Chat struct {
	ID               uint64  `gorm:"primaryKey;autoIncrement"`
	IsGroup          bool    `gorm:"type:tinyint(1);not null;default:0"`
	DirectKey        *string `gorm:"type:varchar(64);uniqueIndex:idx_direct_key"` // 单聊: minID_maxID，群聊为 NULL
	GroupName        string  `gorm:"type:varchar(100);not null;default:''"`
	GroupDescription string  `gorm:"type:varchar(500);not null;default:''"`
	GroupPhotoURL    string  `gorm:"type:varchar(512);column:group_photo_url;not null;default:''"`
	CreatedBy        uint64  `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Chat) TableName() string { return "chats" }

// DirectKey 单聊唯一键，与参与者顺序无关
func DirectKey(a, b uint64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

// ChatParticipant 会话成员表
type ChatParticipant struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement"`
	ChatID     uint64     `gorm:"uniqueIndex:idx_chat_user;not null"`
	UserID     uint64     `gorm:"uniqueIndex:idx_chat_user;index;not null"`
	Role       string     `gorm:"type:varchar(16);not null;default:'member'"`
	LastReadAt *time.Time `gorm:"column:last_read_at"`
	JoinedAt   time.Time
}

func (ChatParticipant) TableName() string { return "chat_participants" }

// ChatSummary 会话列表行，字段由 SQL 计算
type ChatSummary struct {
	Chat
	LastMessageAt *time.Time `gorm:"->"`
	UnreadCount   int64      `gorm:"->"`
}
