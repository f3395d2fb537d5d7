package model

import "time"

type Message struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	ChatID        uint64    `gorm:"not null;index:idx_chat_created,priority:1"`
	AuthorID      uint64    `gorm:"not null;index"`
	Content       string    `gorm:"type:text;not null"`
	MessageType   string    `gorm:"type:varchar(16);not null;default:'text'"`
	ImageURL      string    `gorm:"type:varchar(512);column:image_url;not null;default:''"`
	ImageWidth    int       `gorm:"not null;default:0"`
	ImageHeight   int       `gorm:"not null;default:0"`
	VoiceURL      string    `gorm:"type:varchar(512);column:voice_url;not null;default:''"`
	VoiceDuration int       `gorm:"not null;default:0"`
	VideoURL      string    `gorm:"type:varchar(512);column:video_url;not null;default:''"`
	VideoDuration int       `gorm:"not null;default:0"`
	AgentID       uint64    `gorm:"not null;default:0"`
	ExecutionID   string    `gorm:"type:varchar(64);not null;default:''"`
	Reactions     string    `gorm:"type:varchar(255);not null;default:''"`
	CreatedAt     time.Time `gorm:"index:idx_chat_created,priority:2"`

	Author *Profile `gorm:"foreignKey:AuthorID;references:ID"`
}

func (Message) TableName() string { return "messages" }

// MessageHide 仅对自己隐藏的消息
type MessageHide struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	MessageID uint64 `gorm:"uniqueIndex:idx_message_user;not null"`
	UserID    uint64 `gorm:"uniqueIndex:idx_message_user;not null"`
	CreatedAt time.Time
}

func (MessageHide) TableName() string { return "message_hides" }
