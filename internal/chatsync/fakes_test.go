package chatsync

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

var errBoom = errors.New("boom")

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

func confirmed(id string, sec int) *Message {
	return &Message{
		ID:        ConfirmedID(id),
		ChatID:    "c1",
		AuthorID:  "u2",
		Content:   "m" + id,
		Body:      TextBody{},
		CreatedAt: at(sec),
	}
}

func idsOf(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID.String()
	}
	return out
}

// fakeSource 内存版后端
type fakeSource struct {
	mu       sync.Mutex
	viewer   string
	msgs     []*Message
	hides    map[string]bool
	nextID   int
	now      time.Time
	drafts   []*Draft
	markRead int32

	loadErr    error
	insertErr  error
	hideErr    map[string]error
	deleteErr  map[string]error
	profileErr error
	profiles   map[string]*Profile
	title      string

	// loadGate 非空时 LoadMessages 先通知 loadEntered 再等待放行
	loadGate    chan struct{}
	loadEntered chan struct{}
}

func newFakeSource(viewer string) *fakeSource {
	return &fakeSource{
		viewer:    viewer,
		hides:     make(map[string]bool),
		nextID:    100,
		now:       at(1000),
		hideErr:   make(map[string]error),
		deleteErr: make(map[string]error),
		profiles:  make(map[string]*Profile),
	}
}

func (f *fakeSource) seed(msgs ...*Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
}

func (f *fakeSource) LoadMessages(_ context.Context, chatID string) ([]*Message, error) {
	if f.loadGate != nil {
		f.loadEntered <- struct{}{}
		<-f.loadGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]*Message, 0, len(f.msgs))
	for _, m := range f.msgs {
		if m.ChatID != chatID || f.hides[m.ID.String()] {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSource) InsertMessage(_ context.Context, d *Draft) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, d)
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.nextID++
	f.now = f.now.Add(time.Second)
	m := &Message{
		ID:        ConfirmedID(strconv.Itoa(f.nextID)),
		ChatID:    d.ChatID,
		AuthorID:  d.AuthorID,
		Content:   d.Content,
		Body:      d.Body,
		CreatedAt: f.now,
	}
	f.msgs = append(f.msgs, m)
	cp := *m
	return &cp, nil
}

func (f *fakeSource) HideMessage(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hideErr[id]; err != nil {
		return err
	}
	f.hides[id] = true
	return nil
}

func (f *fakeSource) DeleteMessage(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	for i, m := range f.msgs {
		if m.ID.String() == id {
			f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSource) MarkRead(context.Context, string) error {
	atomic.AddInt32(&f.markRead, 1)
	return nil
}

func (f *fakeSource) GetProfile(_ context.Context, userID string) (*Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, errors.New("profile not found")
	}
	return p, nil
}

func (f *fakeSource) GetChatTitle(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.title == "" {
		return "", errors.New("no title")
	}
	return f.title, nil
}

func (f *fakeSource) reads() int32 { return atomic.LoadInt32(&f.markRead) }

type uploadCall struct {
	bucket, path, contentType string
}

type fakeUploader struct {
	mu    sync.Mutex
	err   error
	calls []uploadCall
}

func (f *fakeUploader) Upload(_ context.Context, bucket, path string, r io.Reader, _ int64, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, _ = io.Copy(io.Discard, r)
	f.calls = append(f.calls, uploadCall{bucket: bucket, path: path, contentType: contentType})
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.test/" + bucket + "/" + path, nil
}

type fakeOpener struct{ err error }

func (f fakeOpener) Open(context.Context, MessageType, string) (io.ReadCloser, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	data := []byte("binary")
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

type fakeApp struct {
	mu     sync.Mutex
	viewer string
	active bool
}

func (f *fakeApp) ViewerID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewer
}

func (f *fakeApp) IsActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

type alert struct{ title, message string }

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []alert
}

func (f *fakeAlerter) Alert(title, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert{title: title, message: message})
}

func (f *fakeAlerter) all() []alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]alert(nil), f.alerts...)
}

type fakePerms struct{ granted bool }

func (f fakePerms) Request(context.Context, Permission) (bool, error) { return f.granted, nil }

type fakeAudio struct {
	startErr error
	started  bool
	stopped  bool
	starts   int
}

func (f *fakeAudio) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	f.started = true
	return nil
}

func (f *fakeAudio) Stop(context.Context) (string, error) {
	f.stopped = true
	return "/tmp/rec.m4a", nil
}

// fakeScheduler 手动触发的周期任务
type fakeScheduler struct {
	mu      sync.Mutex
	jobs    map[int]func()
	next    int
	stopped int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{jobs: make(map[int]func())}
}

func (f *fakeScheduler) Every(_ time.Duration, fn func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	key := f.next
	f.jobs[key] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.jobs[key]; ok {
			delete(f.jobs, key)
			f.stopped++
		}
	}, nil
}

func (f *fakeScheduler) fire() {
	f.mu.Lock()
	fns := make([]func(), 0, len(f.jobs))
	for _, fn := range f.jobs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (f *fakeScheduler) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

// fakeClock 只在 Advance 时触发到期回调
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	due     time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (f *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{clock: f, due: f.now + d, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now += d
	var due []*fakeTimer
	for _, t := range f.timers {
		if !t.stopped && !t.fired && t.due <= f.now {
			t.fired = true
			due = append(due, t)
		}
	}
	f.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

type fakeSub struct {
	ch     chan FeedEvent
	closed int32
}

func (f *fakeSub) Events() <-chan FeedEvent { return f.ch }

func (f *fakeSub) Close() error {
	atomic.StoreInt32(&f.closed, 1)
	return nil
}

type fakeFeed struct {
	sub *fakeSub
	err error

	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeFeed) Subscribe(context.Context) (Subscription, error) {
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n *Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeView struct{ scrolls int32 }

func (f *fakeView) ScrollToEnd() { atomic.AddInt32(&f.scrolls, 1) }

func (f *fakeView) count() int32 { return atomic.LoadInt32(&f.scrolls) }
