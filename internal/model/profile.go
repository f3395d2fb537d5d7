package model

import "time"

// Profile 用户资料，id 与认证系统的用户 ID 一致
type Profile struct {
	ID          uint64 `gorm:"primaryKey"`
	Phone       string `gorm:"type:varchar(30);uniqueIndex:idx_phone;not null"`
	DisplayName string `gorm:"type:varchar(50);not null;default:''"`
	AvatarURL   string `gorm:"type:varchar(512);column:avatar_url;not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Profile) TableName() string {
	return "profiles"
}
