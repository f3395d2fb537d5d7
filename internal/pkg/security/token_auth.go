package security

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// AuthSession 当前登录用户
type AuthSession struct {
	UserID    uint64
	Token     string
	ExpiresAt time.Time
}

func (s *AuthSession) UserIDString() string {
	if s == nil {
		return ""
	}
	return strconv.FormatUint(s.UserID, 10)
}

// TokenAuth 客户端持有的 JWT 登录态
type TokenAuth struct {
	mu        sync.Mutex
	session   *AuthSession
	listeners map[int]func(*AuthSession)
	next      int
	// revoke 登出时通知服务端拉黑 Token
	revoke func(ctx context.Context, token string) error
}

// NewTokenAuth 校验 Token 并建立登录态
func NewTokenAuth(token string, revoke func(ctx context.Context, token string) error) (*TokenAuth, error) {
	claims, err := ValidateToken(token)
	if err != nil {
		return nil, err
	}
	s := &TokenAuth{
		listeners: make(map[int]func(*AuthSession)),
		revoke:    revoke,
		session:   &AuthSession{UserID: claims.UserID, Token: token},
	}
	if claims.ExpiresAt != nil {
		s.session.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

func (s *TokenAuth) Session() *AuthSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// OnChange 订阅登录态变化，返回取消函数
func (s *TokenAuth) OnChange(fn func(*AuthSession)) func() {
	s.mu.Lock()
	s.next++
	key := s.next
	s.listeners[key] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, key)
		s.mu.Unlock()
	}
}

// SignOut 清除登录态并广播；服务端拉黑失败不影响本地登出
func (s *TokenAuth) SignOut(ctx context.Context) error {
	s.mu.Lock()
	prev := s.session
	s.session = nil
	fns := make([]func(*AuthSession), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if prev == nil {
		return nil
	}
	for _, fn := range fns {
		fn(nil)
	}
	if s.revoke != nil {
		return s.revoke(ctx, prev.Token)
	}
	return nil
}
