package repository

import (
	"Chatwave/internal/model"
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// mysqlDuplicateEntry 唯一键冲突
const mysqlDuplicateEntry = 1062

type MessageRepo interface {
	ListVisible(ctx context.Context, chatID, viewerID uint64) ([]*model.Message, error)
	GetMessage(ctx context.Context, id uint64) (*model.Message, error)
	CreateMessage(ctx context.Context, msg *model.Message) error
	DeleteMessage(ctx context.Context, id uint64) error
	HideMessage(ctx context.Context, messageID, userID uint64) error
	AppendReaction(ctx context.Context, id uint64, emoji string) error
	GetLastMessages(ctx context.Context, chatIDs []uint64) (map[uint64]*model.Message, error)
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepoImpl{db: db}
}

// ListVisible 会话内对 viewer 可见的全部消息，按 created_at、id 升序
func (s *messageRepoImpl) ListVisible(ctx context.Context, chatID, viewerID uint64) ([]*model.Message, error) {
	var msgs []*model.Message
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("chat_id = ?", chatID).
		Where("NOT EXISTS (SELECT 1 FROM message_hides h WHERE h.message_id = messages.id AND h.user_id = ?)", viewerID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (s *messageRepoImpl) GetMessage(ctx context.Context, id uint64) (*model.Message, error) {
	var msg model.Message
	err := s.db.WithContext(ctx).Preload("Author").First(&msg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (s *messageRepoImpl) CreateMessage(ctx context.Context, msg *model.Message) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

// DeleteMessage 删除消息及其隐藏记录
func (s *messageRepoImpl) DeleteMessage(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&model.MessageHide{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Message{}, id).Error
	})
}

// HideMessage 重复隐藏视为成功
func (s *messageRepoImpl) HideMessage(ctx context.Context, messageID, userID uint64) error {
	err := s.db.WithContext(ctx).Create(&model.MessageHide{
		MessageID: messageID,
		UserID:    userID,
	}).Error
	if IsDuplicateEntry(err) {
		return nil
	}
	return err
}

func (s *messageRepoImpl) AppendReaction(ctx context.Context, id uint64, emoji string) error {
	return s.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ?", id).
		Update("reactions", gorm.Expr("CONCAT(reactions, ?)", emoji)).Error
}

// GetLastMessages 每个会话的最后一条消息
func (s *messageRepoImpl) GetLastMessages(ctx context.Context, chatIDs []uint64) (map[uint64]*model.Message, error) {
	res := make(map[uint64]*model.Message, len(chatIDs))
	if len(chatIDs) == 0 {
		return res, nil
	}

	latest := s.db.Model(&model.Message{}).
		Select("MAX(id)").
		Where("chat_id IN ?", chatIDs).
		Group("chat_id")

	var msgs []*model.Message
	if err := s.db.WithContext(ctx).Where("id IN (?)", latest).Find(&msgs).Error; err != nil {
		return nil, err
	}
	for _, m := range msgs {
		res[m.ChatID] = m
	}
	return res, nil
}

// IsDuplicateEntry 判断是否为 MySQL 唯一键冲突
func IsDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
