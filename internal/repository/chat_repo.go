package repository

import (
	"Chatwave/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepo interface {
	CreateChat(ctx context.Context, chat *model.Chat, participants []*model.ChatParticipant, sysMsg *model.Message) error
	GetChat(ctx context.Context, chatID uint64) (*model.Chat, error)
	GetChatByDirectKey(ctx context.Context, key string) (*model.Chat, error)
	UpdateGroup(ctx context.Context, chatID uint64, updates map[string]interface{}) error
	DeleteChat(ctx context.Context, chatID uint64) error

	GetParticipant(ctx context.Context, chatID, userID uint64) (*model.ChatParticipant, error)
	IsParticipant(ctx context.Context, chatID, userID uint64) (bool, error)
	ListParticipantIDs(ctx context.Context, chatID uint64) ([]uint64, error)
	AddParticipants(ctx context.Context, chatID uint64, userIDs []uint64, sysMsg *model.Message) (int64, error)
	RemoveParticipant(ctx context.Context, chatID, userID uint64, sysMsg *model.Message) error
	UpdateLastRead(ctx context.Context, chatID, userID uint64, at time.Time) error

	ListUserChats(ctx context.Context, userID uint64) ([]*model.ChatSummary, error)
	GetPeerProfiles(ctx context.Context, chatIDs []uint64, userID uint64) (map[uint64]*model.Profile, error)
}

type chatRepoImpl struct {
	db *gorm.DB
}

func NewChatRepo(db *gorm.DB) ChatRepo {
	return &chatRepoImpl{db: db}
}

// CreateChat 开启事务创建会话、初始成员以及可选的系统消息
func (s *chatRepoImpl) CreateChat(ctx context.Context, chat *model.Chat, participants []*model.ChatParticipant, sysMsg *model.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		now := time.Now()
		for _, p := range participants {
			p.ChatID = chat.ID
			p.JoinedAt = now
		}
		if err := tx.Create(&participants).Error; err != nil {
			return err
		}
		if sysMsg != nil {
			sysMsg.ChatID = chat.ID
			return tx.Create(sysMsg).Error
		}
		return nil
	})
}

func (s *chatRepoImpl) GetChat(ctx context.Context, chatID uint64) (*model.Chat, error) {
	var chat model.Chat
	err := s.db.WithContext(ctx).First(&chat, chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chat, nil
}

// GetChatByDirectKey 根据单聊唯一键获取会话
func (s *chatRepoImpl) GetChatByDirectKey(ctx context.Context, key string) (*model.Chat, error) {
	var chat model.Chat
	err := s.db.WithContext(ctx).Where("direct_key = ?", key).First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chat, nil
}

func (s *chatRepoImpl) UpdateGroup(ctx context.Context, chatID uint64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&model.Chat{}).
		Where("id = ? AND is_group = ?", chatID, true).
		Updates(updates).Error
}

// DeleteChat 同一事务内删除隐藏记录、消息、成员与会话
func (s *chatRepoImpl) DeleteChat(ctx context.Context, chatID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msgIDs := tx.Model(&model.Message{}).Select("id").Where("chat_id = ?", chatID)
		if err := tx.Where("message_id IN (?)", msgIDs).Delete(&model.MessageHide{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&model.ChatParticipant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Chat{}, chatID).Error
	})
}

func (s *chatRepoImpl) GetParticipant(ctx context.Context, chatID, userID uint64) (*model.ChatParticipant, error) {
	var p model.ChatParticipant
	err := s.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// IsParticipant 检查用户是否是会话成员
func (s *chatRepoImpl) IsParticipant(ctx context.Context, chatID, userID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

func (s *chatRepoImpl) ListParticipantIDs(ctx context.Context, chatID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&model.ChatParticipant{}).
		Where("chat_id = ?", chatID).
		Order("joined_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// AddParticipants 批量加入成员，已在群内的用户忽略，返回实际新增人数
func (s *chatRepoImpl) AddParticipants(ctx context.Context, chatID uint64, userIDs []uint64, sysMsg *model.Message) (int64, error) {
	var added int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		rows := make([]*model.ChatParticipant, 0, len(userIDs))
		for _, id := range userIDs {
			rows = append(rows, &model.ChatParticipant{
				ChatID:   chatID,
				UserID:   id,
				Role:     "member",
				JoinedAt: now,
			})
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected
		if sysMsg == nil || added == 0 {
			return nil
		}
		sysMsg.ChatID = chatID
		return tx.Create(sysMsg).Error
	})
	return added, err
}

// RemoveParticipant 先写系统消息再移除成员，保证离开者的消息仍归属会话
func (s *chatRepoImpl) RemoveParticipant(ctx context.Context, chatID, userID uint64, sysMsg *model.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if sysMsg != nil {
			sysMsg.ChatID = chatID
			if err := tx.Create(sysMsg).Error; err != nil {
				return err
			}
		}
		res := tx.Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&model.ChatParticipant{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UpdateLastRead 更新已读时间，只前进不后退
func (s *chatRepoImpl) UpdateLastRead(ctx context.Context, chatID, userID uint64, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Where("last_read_at IS NULL OR last_read_at < ?", at).
		Update("last_read_at", at).Error
}

// ListUserChats 会话列表，未读数为 last_read_at 之后他人发送的消息数
func (s *chatRepoImpl) ListUserChats(ctx context.Context, userID uint64) ([]*model.ChatSummary, error) {
	var chats []*model.ChatSummary
	err := s.db.WithContext(ctx).Table("chats c").
		Select("c.*, "+
			"(SELECT MAX(m.created_at) FROM messages m WHERE m.chat_id = c.id) AS last_message_at, "+
			"(SELECT COUNT(*) FROM messages m WHERE m.chat_id = c.id AND m.author_id <> p.user_id "+
			"AND (p.last_read_at IS NULL OR m.created_at > p.last_read_at)) AS unread_count").
		Joins("JOIN chat_participants p ON p.chat_id = c.id").
		Where("p.user_id = ?", userID).
		Order("last_message_at DESC, c.id DESC").
		Find(&chats).Error
	return chats, err
}

// GetPeerProfiles 批量获取会话中除自己以外成员的资料，单聊用来生成标题
func (s *chatRepoImpl) GetPeerProfiles(ctx context.Context, chatIDs []uint64, userID uint64) (map[uint64]*model.Profile, error) {
	res := make(map[uint64]*model.Profile)
	if len(chatIDs) == 0 {
		return res, nil
	}

	type Result struct {
		ChatID      uint64
		ID          uint64
		Phone       string
		DisplayName string
		AvatarURL   string
	}
	var rows []Result
	err := s.db.WithContext(ctx).Table("chat_participants p").
		Select("p.chat_id, u.id, u.phone, u.display_name, u.avatar_url").
		Joins("JOIN profiles u ON u.id = p.user_id").
		Where("p.chat_id IN ? AND p.user_id <> ?", chatIDs, userID).
		Order("p.joined_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		if _, ok := res[r.ChatID]; ok {
			continue
		}
		res[r.ChatID] = &model.Profile{
			ID:          r.ID,
			Phone:       r.Phone,
			DisplayName: r.DisplayName,
			AvatarURL:   r.AvatarURL,
		}
	}
	return res, nil
}
