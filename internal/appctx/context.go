package appctx

import (
	"Chatwave/internal/pkg/security"
	"fmt"
	log "log/slog"
	"sync"
)

// AuthProvider 登录态来源
type AuthProvider interface {
	Session() *security.AuthSession
	OnChange(fn func(*security.AuthSession)) func()
}

// Context 进程级共享状态：登录用户、主题、前后台；启动时创建一次，显式传给需要的组件
type Context struct {
	auth AuthProvider

	mu        sync.Mutex
	session   *security.AuthSession
	theme     Theme
	active    bool
	listeners map[int]func(*security.AuthSession)
	next      int
	unsub     func()
}

func New(auth AuthProvider) *Context {
	return &Context{
		auth:      auth,
		active:    true,
		listeners: make(map[int]func(*security.AuthSession)),
	}
}

// Init 加载默认主题并订阅登录态
func (s *Context) Init() {
	theme, _ := LookupTheme(DefaultTheme)

	s.mu.Lock()
	s.theme = theme
	if s.auth != nil {
		s.session = s.auth.Session()
	}
	s.mu.Unlock()

	if s.auth != nil {
		unsub := s.auth.OnChange(s.onAuthChange)
		s.mu.Lock()
		s.unsub = unsub
		s.mu.Unlock()
	}
}

func (s *Context) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (s *Context) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

func (s *Context) SetTheme(name string) error {
	theme, ok := LookupTheme(name)
	if !ok {
		return fmt.Errorf("unknown theme %q", name)
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	log.Debug("theme changed", "theme", name)
	return nil
}

func (s *Context) Themes() []string { return ThemeNames() }

func (s *Context) Auth() *security.AuthSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// ViewerID 当前用户 ID，未登录时为空串
func (s *Context) ViewerID() string {
	return s.Auth().UserIDString()
}

func (s *Context) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Context) SetActive(active bool) {
	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
}

// OnAuthChange 订阅登录态变化
func (s *Context) OnAuthChange(fn func(*security.AuthSession)) func() {
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

func (s *Context) onAuthChange(session *security.AuthSession) {
	s.mu.Lock()
	s.session = session
	fns := make([]func(*security.AuthSession), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if session == nil {
		log.Info("signed out")
	}
	for _, fn := range fns {
		fn(session)
	}
}
