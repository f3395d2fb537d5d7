package chatsync

import (
	"sort"
	"sync"
)

type ChangeKind int

const (
	ChangeReset ChangeKind = iota + 1
	ChangeAppended
	ChangeReplaced
	ChangeRemoved
	ChangePatched
)

// Change 一次变更后的长度信息
type Change struct {
	Kind    ChangeKind
	Len     int
	PrevLen int
}

// Store 单个会话的有序、去重消息集合
type Store struct {
	mu        sync.Mutex
	items     []Message
	index     map[ID]int
	hidden    map[string]struct{}
	settled   map[ID]ID // 快照中已带回确认记录的临时条目
	listeners map[int]func(Change)
	nextLsn   int
}

func NewStore() *Store {
	return &Store{
		index:     make(map[ID]int),
		hidden:    make(map[string]struct{}),
		settled:   make(map[ID]ID),
		listeners: make(map[int]func(Change)),
	}
}

// LoadSnapshot 用服务端快照替换已确认的序列，仍在发送中的条目保留在尾部。
// 快照里已有对应确认记录的临时条目直接丢弃，之后对它的 Replace 为空操作。
func (s *Store) LoadSnapshot(msgs []*Message) {
	s.mu.Lock()
	prev := len(s.items)

	next := make([]Message, 0, len(msgs)+4)
	seen := make(map[ID]struct{}, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		if _, ok := s.hidden[m.ID.String()]; ok {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		next = append(next, *m)
	}
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].CreatedAt.Before(next[j].CreatedAt)
	})

	claimed := make(map[ID]struct{}, len(s.settled))
	for _, id := range s.settled {
		claimed[id] = struct{}{}
	}
	confirmedCount := len(next)
	for _, m := range s.items {
		if !m.ID.IsPending() {
			continue
		}
		if id, ok := matchPending(&m, next[:confirmedCount], claimed); ok {
			claimed[id] = struct{}{}
			s.settled[m.ID] = id
			continue
		}
		next = append(next, m)
	}

	// 保留已加载的作者资料
	for i := range next {
		if next[i].Author != nil {
			continue
		}
		if j, ok := s.index[next[i].ID]; ok {
			next[i].Author = s.items[j].Author
		}
	}

	s.items = next
	s.reindex()
	change := Change{Kind: ChangeReset, Len: len(s.items), PrevLen: prev}
	s.mu.Unlock()

	s.emit(change)
}

// matchPending 在快照中找同一作者、同内容同类型、不早于临时条目的确认记录
func matchPending(pending *Message, snapshot []Message, claimed map[ID]struct{}) (ID, bool) {
	for i := range snapshot {
		m := &snapshot[i]
		if _, ok := claimed[m.ID]; ok {
			continue
		}
		if m.AuthorID != pending.AuthorID || m.Content != pending.Content || m.Type() != pending.Type() {
			continue
		}
		if m.CreatedAt.Before(pending.CreatedAt) {
			continue
		}
		return m.ID, true
	}
	return ID{}, false
}

// Append 追加一条消息，已存在或已隐藏时不做任何事
func (s *Store) Append(m *Message) bool {
	if m == nil {
		return false
	}
	s.mu.Lock()
	if _, ok := s.index[m.ID]; ok {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.hidden[m.ID.String()]; ok && !m.ID.IsPending() {
		s.mu.Unlock()
		return false
	}
	prev := len(s.items)
	s.items = append(s.items, *m)
	s.index[m.ID] = len(s.items) - 1
	change := Change{Kind: ChangeAppended, Len: len(s.items), PrevLen: prev}
	s.mu.Unlock()

	s.emit(change)
	return true
}

// Replace 将临时条目原位替换为确认后的消息；tempID 不存在时为空操作
func (s *Store) Replace(tempID ID, confirmed *Message) bool {
	if confirmed == nil {
		return false
	}
	s.mu.Lock()
	i, ok := s.index[tempID]
	if !ok {
		delete(s.settled, tempID)
		s.mu.Unlock()
		return false
	}
	prev := len(s.items)
	if _, exists := s.index[confirmed.ID]; exists && confirmed.ID != tempID {
		// 轮询已先一步带回了确认后的记录
		s.removeAt(i)
	} else {
		s.items[i] = *confirmed
		delete(s.index, tempID)
		s.index[confirmed.ID] = i
	}
	change := Change{Kind: ChangeReplaced, Len: len(s.items), PrevLen: prev}
	s.mu.Unlock()

	s.emit(change)
	return true
}

// Remove 删除一条消息
func (s *Store) Remove(id ID) bool {
	s.mu.Lock()
	delete(s.settled, id)
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	prev := len(s.items)
	s.removeAt(i)
	change := Change{Kind: ChangeRemoved, Len: len(s.items), PrevLen: prev}
	s.mu.Unlock()

	s.emit(change)
	return true
}

// FilterOutHidden 记录当前用户隐藏的消息并从视图中移除
func (s *Store) FilterOutHidden(ids []ID) {
	s.mu.Lock()
	prev := len(s.items)
	removed := false
	for _, id := range ids {
		s.hidden[id.String()] = struct{}{}
		if i, ok := s.index[id]; ok {
			s.removeAt(i)
			removed = true
		}
	}
	change := Change{Kind: ChangeRemoved, Len: len(s.items), PrevLen: prev}
	s.mu.Unlock()

	if removed {
		s.emit(change)
	}
}

// Patch 原地修改一条消息
func (s *Store) Patch(id ID, fn func(m *Message)) bool {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	fn(&s.items[i])
	s.items[i].ID = id
	change := Change{Kind: ChangePatched, Len: len(s.items), PrevLen: len(s.items)}
	s.mu.Unlock()

	s.emit(change)
	return true
}

func (s *Store) Get(id ID) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return Message{}, false
	}
	return s.items[i], true
}

func (s *Store) Contains(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Messages 当前可见序列的拷贝
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) IDs() []ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ID, len(s.items))
	for i, m := range s.items {
		out[i] = m.ID
	}
	return out
}

// Subscribe 注册变更监听，回调在锁外执行
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	s.nextLsn++
	key := s.nextLsn
	s.listeners[key] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, key)
		s.mu.Unlock()
	}
}

func (s *Store) emit(c Change) {
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

func (s *Store) removeAt(i int) {
	delete(s.index, s.items[i].ID)
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ID] = j
	}
}

func (s *Store) reindex() {
	s.index = make(map[ID]int, len(s.items))
	for i, m := range s.items {
		s.index[m.ID] = i
	}
}
