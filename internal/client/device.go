package client

import (
	"Chatwave/internal/appctx"
	"Chatwave/internal/chatsync"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// ErrNoRecordingSource 未指定录音文件
var ErrNoRecordingSource = errors.New("no recording source, use /record <path>")

// StaticPermissions 由配置决定授予哪些权限
type StaticPermissions struct {
	granted map[chatsync.Permission]struct{}
}

func NewStaticPermissions(names []string) *StaticPermissions {
	s := &StaticPermissions{granted: make(map[chatsync.Permission]struct{}, len(names))}
	for _, n := range names {
		s.granted[chatsync.Permission(n)] = struct{}{}
	}
	return s
}

func (s *StaticPermissions) Request(_ context.Context, p chatsync.Permission) (bool, error) {
	_, ok := s.granted[p]
	return ok, nil
}

// FileAudioCapture 终端没有麦克风，以指定的音频文件作为录音结果
type FileAudioCapture struct {
	mu        sync.Mutex
	source    string
	recording bool
}

// SetSource 指定下一次录音使用的文件
func (s *FileAudioCapture) SetSource(path string) {
	s.mu.Lock()
	s.source = path
	s.mu.Unlock()
}

func (s *FileAudioCapture) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == "" {
		return ErrNoRecordingSource
	}
	if _, err := os.Stat(s.source); err != nil {
		return errors.Wrap(err, "recording source")
	}
	s.recording = true
	return nil
}

func (s *FileAudioCapture) Stop(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return "", ErrNoRecordingSource
	}
	s.recording = false
	path := s.source
	s.source = ""
	return path, nil
}

// TerminalAlerter 以主题错误色打印提示
type TerminalAlerter struct {
	mu  sync.Mutex
	out io.Writer
	app *appctx.Context
}

func NewTerminalAlerter(out io.Writer, app *appctx.Context) *TerminalAlerter {
	return &TerminalAlerter{out: out, app: app}
}

func (s *TerminalAlerter) Alert(title, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	color := s.app.Theme().Colors.Error
	_, _ = fmt.Fprintf(s.out, "%s[%s]%s %s\n", Foreground(color), title, reset, message)
}
