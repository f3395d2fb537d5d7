package repository

import (
	"Chatwave/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type ProfileRepo interface {
	GetProfileByID(ctx context.Context, id uint64) (*model.Profile, error)
	GetProfilesByIDs(ctx context.Context, ids []uint64) ([]*model.Profile, error)
	GetProfileByPhone(ctx context.Context, phone string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id uint64, updates map[string]interface{}) error
}

type profileRepoImpl struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) ProfileRepo {
	return &profileRepoImpl{db: db}
}

func (s *profileRepoImpl) GetProfileByID(ctx context.Context, id uint64) (*model.Profile, error) {
	profile := &model.Profile{}
	err := s.db.WithContext(ctx).First(profile, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

func (s *profileRepoImpl) GetProfilesByIDs(ctx context.Context, ids []uint64) ([]*model.Profile, error) {
	profiles := make([]*model.Profile, 0, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error
	return profiles, err
}

func (s *profileRepoImpl) GetProfileByPhone(ctx context.Context, phone string) (*model.Profile, error) {
	profile := &model.Profile{}
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

func (s *profileRepoImpl) UpdateProfile(ctx context.Context, id uint64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id).Updates(updates).Error
}
