package notify

import (
	"Chatwave/internal/chatsync"
	"context"
	"fmt"
	"io"
	"sync"
)

// Terminal 响铃并打印通知
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (s *Terminal) Notify(_ context.Context, n *chatsync.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "\a%s: %s\n", n.Title, n.Body)
	return err
}
