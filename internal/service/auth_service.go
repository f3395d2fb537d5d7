package service

import (
	"Chatwave/internal/pkg/consts"
	"Chatwave/internal/pkg/redis"
	"Chatwave/internal/pkg/security"
	"context"
	"time"
)

type AuthService interface {
	Logout(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type authServiceImpl struct{}

func NewAuthService() AuthService {
	return &authServiceImpl{}
}

// Logout 拉黑 Token 签名直至其自然过期
func (s *authServiceImpl) Logout(ctx context.Context, token string) error {
	claims, err := security.ValidateToken(token)
	if err != nil {
		return UnauthorizedError
	}
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return UnauthorizedError
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	ttl := BlacklistTTL(expiresAt, time.Now())
	if ttl <= 0 {
		return nil
	}
	return redis.SetWithExpiration(ctx, consts.TokenBlacklistKey+signature, true, ttl)
}

func (s *authServiceImpl) IsRevoked(ctx context.Context, token string) (bool, error) {
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return false, UnauthorizedError
	}
	value, err := redis.GetValue(ctx, consts.TokenBlacklistKey+signature)
	if err != nil {
		return false, err
	}
	return value != "", nil
}

// BlacklistTTL 黑名单记录保留到 Token 过期，已过期的无需记录
func BlacklistTTL(expiresAt, now time.Time) time.Duration {
	if expiresAt.IsZero() {
		return 24 * time.Hour
	}
	return expiresAt.Sub(now)
}
