package chatsync

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Selection 多选模式下被选中的消息集合，与 Store 生命周期无关
type Selection struct {
	mu     sync.Mutex
	active bool
	ids    map[ID]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[ID]struct{})}
}

func (s *Selection) Enter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.ids = make(map[ID]struct{})
}

func (s *Selection) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.ids = make(map[ID]struct{})
}

func (s *Selection) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Toggle 选中或取消选中一条消息，返回操作后是否选中
func (s *Selection) Toggle(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll 快照当前的消息标识，不跟踪之后的追加
func (s *Selection) SelectAll(ids []ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Has(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *Selection) Selected() []ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}

type DeleteMode int

const (
	// DeleteForMe 仅对当前用户隐藏
	DeleteForMe DeleteMode = iota + 1
	// DeleteForEveryone 全局删除
	DeleteForEveryone
)

// BulkResult 逐条的删除结果
type BulkResult struct {
	Succeeded []ID
	Failed    map[ID]error
}

const bulkConcurrency = 8

// BulkDeleter 并发执行逐条删除，并按每条结果修正 Store
type BulkDeleter struct {
	store     *Store
	source    MessageSource
	selection *Selection
	app       AppState
	alerter   Alerter
}

func NewBulkDeleter(store *Store, source MessageSource, selection *Selection, app AppState, alerter Alerter) *BulkDeleter {
	return &BulkDeleter{
		store:     store,
		source:    source,
		selection: selection,
		app:       app,
		alerter:   alerter,
	}
}

// DeleteSelected 删除当前选中的消息并退出多选模式
func (s *BulkDeleter) DeleteSelected(ctx context.Context, mode DeleteMode) BulkResult {
	res := s.Delete(ctx, mode, s.selection.Selected())
	s.selection.Exit()
	return res
}

// Delete 非事务：部分失败时只移除成功的那部分
func (s *BulkDeleter) Delete(ctx context.Context, mode DeleteMode, ids []ID) BulkResult {
	var (
		mu  sync.Mutex
		res = BulkResult{Failed: make(map[ID]error)}
	)

	g := new(errgroup.Group)
	g.SetLimit(bulkConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := s.deleteRemote(ctx, mode, id)
			mu.Lock()
			if err != nil {
				res.Failed[id] = err
			} else {
				res.Succeeded = append(res.Succeeded, id)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.apply(mode, res.Succeeded)

	if len(res.Failed) > 0 {
		log.WarnContext(ctx, "bulk delete partially failed", "failed", len(res.Failed), "succeeded", len(res.Succeeded))
		if s.alerter != nil {
			s.alerter.Alert("Error", fmt.Sprintf("Failed to delete %d messages", len(res.Failed)))
		}
	}
	return res
}

// DeleteOne 长按单条删除；全局删除仅限作者本人
func (s *BulkDeleter) DeleteOne(ctx context.Context, mode DeleteMode, id ID) error {
	if mode == DeleteForEveryone {
		m, ok := s.store.Get(id)
		if ok && m.AuthorID != s.app.ViewerID() {
			return ErrNotAuthor
		}
	}
	if err := s.deleteRemote(ctx, mode, id); err != nil {
		err = errors.Wrap(err, "failed to delete message")
		if s.alerter != nil {
			s.alerter.Alert("Error", err.Error())
		}
		return err
	}
	s.apply(mode, []ID{id})
	return nil
}

func (s *BulkDeleter) deleteRemote(ctx context.Context, mode DeleteMode, id ID) error {
	if id.IsPending() {
		return ErrPendingMessage
	}
	switch mode {
	case DeleteForMe:
		return s.source.HideMessage(ctx, id.String())
	case DeleteForEveryone:
		return s.source.DeleteMessage(ctx, id.String())
	default:
		return errors.Errorf("unknown delete mode %d", mode)
	}
}

func (s *BulkDeleter) apply(mode DeleteMode, ids []ID) {
	if len(ids) == 0 {
		return
	}
	if mode == DeleteForMe {
		s.store.FilterOutHidden(ids)
		return
	}
	for _, id := range ids {
		s.store.Remove(id)
	}
}
