package chatsync

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultPollInterval 轮询自愈周期
const DefaultPollInterval = 3 * time.Second

type SessionConfig struct {
	ChatID       string
	PollInterval time.Duration
}

// SessionDeps 会话依赖的外部协作者
type SessionDeps struct {
	Source      MessageSource
	Uploader    Uploader
	Opener      MediaOpener
	Feed        Feed
	Notifier    Notifier
	App         AppState
	Alerter     Alerter
	Permissions Permissions
	Audio       AudioCapture
	Scheduler   Scheduler
	Clock       Clock
	View        View
}

// Session 单个会话页面的生命周期：订阅与轮询句柄在 Mount 时获取，Close 时统一释放
type Session struct {
	cfg  SessionConfig
	deps SessionDeps

	Store     *Store
	Ingestor  *Ingestor
	Sender    *Sender
	Recorder  *Recorder
	Scroll    *ScrollReadCoordinator
	Selection *Selection
	Deleter   *BulkDeleter

	mu          sync.Mutex
	mounted     bool
	closed      bool
	title       string
	cancel      context.CancelFunc
	sub         Subscription
	stopPoll    func()
	unsubscribe func()
	loopDone    chan struct{}
	closeOnce   sync.Once
}

func NewSession(cfg SessionConfig, deps SessionDeps) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	store := NewStore()
	sender := NewSender(cfg.ChatID, SenderDeps{
		Store:       store,
		Source:      deps.Source,
		Uploader:    deps.Uploader,
		Opener:      deps.Opener,
		App:         deps.App,
		Alerter:     deps.Alerter,
		Permissions: deps.Permissions,
	})
	selection := NewSelection()

	return &Session{
		cfg:       cfg,
		deps:      deps,
		Store:     store,
		Ingestor:  NewIngestor(cfg.ChatID, store, deps.Source, deps.Notifier, deps.App),
		Sender:    sender,
		Recorder:  NewRecorder(deps.Audio, deps.Permissions, deps.Scheduler, deps.Alerter, sender),
		Scroll:    NewScrollReadCoordinator(cfg.ChatID, deps.Source, deps.View, deps.Clock),
		Selection: selection,
		Deleter:   NewBulkDeleter(store, deps.Source, selection, deps.App, deps.Alerter),
	}
}

func (s *Session) ChatID() string { return s.cfg.ChatID }

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Mount 打开会话：标记已读、首次加载、订阅推送、启动轮询
func (s *Session) Mount(ctx context.Context) (err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.mounted {
		s.mu.Unlock()
		return nil
	}
	s.mounted = true
	s.mu.Unlock()

	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	unsubscribe := s.Store.Subscribe(s.Scroll.OnStoreChange)
	if !s.hold(func() { s.unsubscribe = unsubscribe }) {
		unsubscribe()
		return ErrSessionClosed
	}

	s.Scroll.MarkRead()
	s.loadTitle(ctx)
	s.Ingestor.Reload(ctx)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if !s.hold(func() { s.cancel = cancel }) {
		cancel()
		return ErrSessionClosed
	}

	sub, err := s.deps.Feed.Subscribe(loopCtx)
	if err != nil {
		return errors.Wrap(err, "subscribe message feed")
	}
	done := make(chan struct{})
	if !s.hold(func() { s.sub, s.loopDone = sub, done }) {
		if err := sub.Close(); err != nil {
			log.Warn("close message feed failed", "chat_id", s.cfg.ChatID, "err", err)
		}
		return ErrSessionClosed
	}
	go func() {
		defer close(done)
		s.Ingestor.Run(loopCtx, sub)
	}()

	stop, err := s.deps.Scheduler.Every(s.cfg.PollInterval, func() {
		s.Ingestor.Reload(loopCtx)
	})
	if err != nil {
		return errors.Wrap(err, "start poll")
	}
	if !s.hold(func() { s.stopPoll = stop }) {
		stop()
		return ErrSessionClosed
	}

	log.InfoContext(ctx, "chat session mounted", "chat_id", s.cfg.ChatID)
	return nil
}

// Focus 页面重新获得焦点时全量刷新
func (s *Session) Focus(ctx context.Context) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	s.Ingestor.Reload(ctx)
}

// Close 唯一的退出钩子：停止轮询与录音计时、断开订阅；不中断进行中的请求
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		stopPoll, sub, cancel, unsubscribe, done := s.stopPoll, s.sub, s.cancel, s.unsubscribe, s.loopDone
		s.stopPoll, s.sub, s.cancel, s.unsubscribe = nil, nil, nil, nil
		s.mu.Unlock()

		if stopPoll != nil {
			stopPoll()
		}
		if s.Recorder.State() != RecorderIdle {
			s.Recorder.Cancel(context.Background())
		}
		if sub != nil {
			if err := sub.Close(); err != nil {
				log.Warn("close message feed failed", "chat_id", s.cfg.ChatID, "err", err)
			}
		}
		if cancel != nil {
			cancel()
		}
		if done != nil {
			<-done
		}
		if unsubscribe != nil {
			unsubscribe()
		}
		s.Scroll.Close()
		log.Info("chat session closed", "chat_id", s.cfg.ChatID)
	})
}

// hold 会话未关闭时登记句柄；已关闭返回 false，由调用方释放
func (s *Session) hold(register func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	register()
	return true
}

func (s *Session) loadTitle(ctx context.Context) {
	title, err := s.deps.Source.GetChatTitle(ctx, s.cfg.ChatID)
	if err != nil || title == "" {
		log.DebugContext(ctx, "load chat title failed", "chat_id", s.cfg.ChatID, "err", err)
		title = s.cfg.ChatID
	}
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
}
