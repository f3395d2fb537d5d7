package chatsync

import (
	"context"
	log "log/slog"
	"sync"
)

// Ingestor 将批量加载、实时推送、定时轮询三路数据合并进 Store
type Ingestor struct {
	chatID   string
	store    *Store
	source   MessageSource
	notifier Notifier
	app      AppState

	mu      sync.Mutex
	issued  uint64
	applied uint64
}

func NewIngestor(chatID string, store *Store, source MessageSource, notifier Notifier, app AppState) *Ingestor {
	return &Ingestor{
		chatID:   chatID,
		store:    store,
		source:   source,
		notifier: notifier,
		app:      app,
	}
}

// Reload 全量拉取；失败时静默保留现有状态
func (s *Ingestor) Reload(ctx context.Context) {
	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.mu.Unlock()

	msgs, err := s.source.LoadMessages(ctx, s.chatID)
	if err != nil {
		log.DebugContext(ctx, "reload messages failed", "chat_id", s.chatID, "err", err)
		return
	}

	s.mu.Lock()
	if gen < s.applied {
		s.mu.Unlock()
		return
	}
	s.applied = gen
	s.mu.Unlock()

	s.store.LoadSnapshot(msgs)
}

// HandleEvent 处理一条实时事件
func (s *Ingestor) HandleEvent(ctx context.Context, ev FeedEvent) {
	switch ev.Kind {
	case EventSubscribed:
		s.Reload(ctx)
	case EventInsert:
		m := ev.Message
		if m == nil || m.ChatID != s.chatID {
			return
		}
		if !s.store.Append(m) {
			return
		}

		profile, err := s.source.GetProfile(ctx, m.AuthorID)
		if err != nil {
			log.DebugContext(ctx, "author lookup failed", "author_id", m.AuthorID, "err", err)
			profile = nil
		}
		if profile != nil {
			s.store.Patch(m.ID, func(msg *Message) { msg.Author = profile })
		}

		s.maybeNotify(ctx, m, profile)
	}
}

// Run 消费订阅直到 ctx 结束或通道关闭
func (s *Ingestor) Run(ctx context.Context, sub Subscription) {
	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.HandleEvent(ctx, ev)
		}
	}
}

func (s *Ingestor) maybeNotify(ctx context.Context, m *Message, author *Profile) {
	if s.notifier == nil || s.app == nil {
		return
	}
	if m.AuthorID == s.app.ViewerID() || s.app.IsActive() {
		return
	}
	n := NotificationFor(m, author.Name())
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.WarnContext(ctx, "send notification failed", "chat_id", m.ChatID, "err", err)
	}
}
