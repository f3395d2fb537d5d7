package chatsync

import (
	"context"
	log "log/slog"
	"sync"
	"time"
)

const (
	ScrollSettleDelay = 100 * time.Millisecond
	GestureResetDelay = 2 * time.Second
	BottomThreshold   = 50.0
	markReadTimeout   = 10 * time.Second
)

// ScrollReadCoordinator 决定何时自动滚动到底部以及何时标记已读
type ScrollReadCoordinator struct {
	chatID string
	source MessageSource
	view   View
	clock  Clock

	mu               sync.Mutex
	userScrolling    bool
	shouldAutoScroll bool
	resetTimer       Timer
	gestureSeq       uint64
}

func NewScrollReadCoordinator(chatID string, source MessageSource, view View, clock Clock) *ScrollReadCoordinator {
	if clock == nil {
		clock = SystemClock()
	}
	return &ScrollReadCoordinator{
		chatID:           chatID,
		source:           source,
		view:             view,
		clock:            clock,
		shouldAutoScroll: true,
	}
}

func (s *ScrollReadCoordinator) DragBegin()     { s.gestureBegin() }
func (s *ScrollReadCoordinator) DragEnd()       { s.gestureEnd() }
func (s *ScrollReadCoordinator) MomentumBegin() { s.gestureBegin() }
func (s *ScrollReadCoordinator) MomentumEnd()   { s.gestureEnd() }

// OnScroll 根据视口位置更新是否贴底
func (s *ScrollReadCoordinator) OnScroll(offset, viewport, content float64) {
	atBottom := offset+viewport >= content-BottomThreshold
	s.mu.Lock()
	s.shouldAutoScroll = atBottom
	s.mu.Unlock()
}

// RequestScrollToEnd 延迟检查后滚动到底部
func (s *ScrollReadCoordinator) RequestScrollToEnd() {
	s.clock.AfterFunc(ScrollSettleDelay, func() {
		s.mu.Lock()
		ok := s.shouldAutoScroll && !s.userScrolling
		s.mu.Unlock()
		if ok && s.view != nil {
			s.view.ScrollToEnd()
		}
	})
}

// MarkRead 更新当前用户的 last_read_at，失败不向用户暴露
func (s *ScrollReadCoordinator) MarkRead() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), markReadTimeout)
		defer cancel()
		if err := s.source.MarkRead(ctx, s.chatID); err != nil {
			log.Debug("mark read failed", "chat_id", s.chatID, "err", err)
		}
	}()
}

// OnStoreChange Store 变更回调
func (s *ScrollReadCoordinator) OnStoreChange(c Change) {
	switch c.Kind {
	case ChangeReset, ChangeAppended, ChangeReplaced:
		s.RequestScrollToEnd()
	}
	if c.Len != c.PrevLen {
		s.MarkRead()
	}
}

func (s *ScrollReadCoordinator) UserScrolling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userScrolling
}

func (s *ScrollReadCoordinator) ShouldAutoScroll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldAutoScroll
}

func (s *ScrollReadCoordinator) Close() {
	s.mu.Lock()
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	s.mu.Unlock()
}

func (s *ScrollReadCoordinator) gestureBegin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	s.gestureSeq++
	s.userScrolling = true
}

func (s *ScrollReadCoordinator) gestureEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetTimer != nil {
		s.resetTimer.Stop()
	}
	s.gestureSeq++
	seq := s.gestureSeq
	s.resetTimer = s.clock.AfterFunc(GestureResetDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.gestureSeq {
			return
		}
		s.userScrolling = false
		s.resetTimer = nil
	})
}
