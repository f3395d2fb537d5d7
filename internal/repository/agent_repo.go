package repository

import (
	"Chatwave/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type AgentRepo interface {
	CreateAgent(ctx context.Context, agent *model.AIAgent) error
	GetAgent(ctx context.Context, id uint64) (*model.AIAgent, error)
	ListAgentsByUser(ctx context.Context, userID uint64) ([]*model.AIAgent, error)
	UpdateAgent(ctx context.Context, id uint64, updates map[string]interface{}) error
	DeleteAgent(ctx context.Context, id uint64) error
}

type agentRepoImpl struct {
	db *gorm.DB
}

func NewAgentRepo(db *gorm.DB) AgentRepo {
	return &agentRepoImpl{db: db}
}

func (s *agentRepoImpl) CreateAgent(ctx context.Context, agent *model.AIAgent) error {
	return s.db.WithContext(ctx).Create(agent).Error
}

func (s *agentRepoImpl) GetAgent(ctx context.Context, id uint64) (*model.AIAgent, error) {
	var agent model.AIAgent
	err := s.db.WithContext(ctx).First(&agent, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agent, nil
}

func (s *agentRepoImpl) ListAgentsByUser(ctx context.Context, userID uint64) ([]*model.AIAgent, error) {
	var agents []*model.AIAgent
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&agents).Error
	return agents, err
}

func (s *agentRepoImpl) UpdateAgent(ctx context.Context, id uint64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&model.AIAgent{}).Where("id = ?", id).Updates(updates).Error
}

func (s *agentRepoImpl) DeleteAgent(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Delete(&model.AIAgent{}, id).Error
}
