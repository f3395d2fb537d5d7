package service

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/pkg/util"
	"Chatwave/internal/repository"
	"context"
	log "log/slog"
	"strings"
)

type ProfileService interface {
	GetProfile(ctx context.Context, id uint64) (*dto.ProfileDTO, error)
	UpdateProfile(ctx context.Context, viewerID uint64, req *dto.UpdateProfileReq) (*dto.ProfileDTO, error)
}

type profileServiceImpl struct {
	profileRepo repository.ProfileRepo
	media       MediaService
}

func NewProfileService(profileRepo repository.ProfileRepo, media MediaService) ProfileService {
	return &profileServiceImpl{profileRepo: profileRepo, media: media}
}

func (s *profileServiceImpl) GetProfile(ctx context.Context, id uint64) (*dto.ProfileDTO, error) {
	p, err := s.profileRepo.GetProfileByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrUserNotFound
	}
	return toProfileDTO(p), nil
}

// UpdateProfile 修改昵称与头像，头像地址被引用后不再参与清理
func (s *profileServiceImpl) UpdateProfile(ctx context.Context, viewerID uint64, req *dto.UpdateProfileReq) (*dto.ProfileDTO, error) {
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		req.DisplayName = &name
	}
	if err := util.ValidateDTO(req); err != nil {
		return nil, ErrParamInvalid
	}

	updates := make(map[string]interface{})
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if err := s.profileRepo.UpdateProfile(ctx, viewerID, updates); err != nil {
		return nil, err
	}
	if req.AvatarURL != nil {
		if err := s.media.Claim(ctx, *req.AvatarURL); err != nil {
			log.WarnContext(ctx, "claim avatar failed", "err", err)
		}
	}
	return s.GetProfile(ctx, viewerID)
}
