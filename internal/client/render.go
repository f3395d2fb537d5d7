package client

import (
	"Chatwave/internal/appctx"
	"Chatwave/internal/chatsync"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

const (
	reset     = "\x1b[0m"
	clearTerm = "\x1b[2J\x1b[H"
	// rowHeight 每行折算的像素高度，用于换算贴底阈值
	rowHeight = 60.0
)

// Foreground "#rrggbb" 转为 24 位前景色转义序列
func Foreground(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return ""
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", v>>16&0xff, v>>8&0xff, v&0xff)
}

// Renderer 终端消息列表，Store 变化时整屏重绘
type Renderer struct {
	out    io.Writer
	app    *appctx.Context
	window int

	mu      sync.Mutex
	session *chatsync.Session
	offset  int
}

func NewRenderer(out io.Writer, app *appctx.Context, window int) *Renderer {
	if window <= 0 {
		window = 20
	}
	return &Renderer{out: out, app: app, window: window}
}

// Bind 绑定会话并订阅 Store 变化，返回取消函数
func (s *Renderer) Bind(session *chatsync.Session) func() {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	return session.Store.Subscribe(func(chatsync.Change) { s.Render() })
}

func (s *Renderer) ScrollToEnd() {
	s.mu.Lock()
	s.offset = 0
	s.mu.Unlock()
	s.Render()
}

// ScrollUp 向上翻一屏，按拖动手势通知滚动协调器
func (s *Renderer) ScrollUp() {
	s.mu.Lock()
	session := s.session
	if session == nil {
		s.mu.Unlock()
		return
	}
	total := session.Store.Len()
	s.offset += s.window
	if limit := total - s.window; s.offset > limit {
		s.offset = maxInt(limit, 0)
	}
	offset := s.offset
	s.mu.Unlock()

	session.Scroll.DragBegin()
	content := float64(total) * rowHeight
	viewport := float64(s.window) * rowHeight
	session.Scroll.OnScroll(content-viewport-float64(offset)*rowHeight, viewport, content)
	session.Scroll.DragEnd()
	s.Render()
}

// ScrollEnd 用户手动回到底部
func (s *Renderer) ScrollEnd() {
	s.mu.Lock()
	session := s.session
	s.offset = 0
	s.mu.Unlock()
	if session != nil {
		total := float64(session.Store.Len()) * rowHeight
		viewport := float64(s.window) * rowHeight
		session.Scroll.OnScroll(total-viewport, viewport, total)
	}
	s.Render()
}

func (s *Renderer) Render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return
	}

	msgs := s.session.Store.Messages()
	theme := s.app.Theme().Colors
	viewer := s.app.ViewerID()

	end := len(msgs) - s.offset
	start := maxInt(end-s.window, 0)

	var b strings.Builder
	b.WriteString(clearTerm)
	fmt.Fprintf(&b, "%s== %s ==%s\n", Foreground(theme.Primary), s.session.Title(), reset)
	if start > 0 {
		fmt.Fprintf(&b, "%s   ... %d earlier%s\n", Foreground(theme.TextSecondary), start, reset)
	}
	for i := start; i < end; i++ {
		m := &msgs[i]
		color := theme.Text
		switch {
		case m.Type() == chatsync.TypeSystem:
			color = theme.TextSecondary
		case m.AuthorID == viewer:
			color = theme.Primary
		}
		selected := s.session.Selection.Active() && s.session.Selection.Has(m.ID)
		fmt.Fprintf(&b, "%s%s%s\n", Foreground(color), FormatLine(i+1, m, viewer, selected), reset)
	}
	if s.session.Recorder.State() == chatsync.RecorderRecording {
		fmt.Fprintf(&b, "%s● recording %ds%s\n", Foreground(theme.Error), s.session.Recorder.Duration(), reset)
	}
	if s.session.Selection.Active() {
		fmt.Fprintf(&b, "%s%d selected%s\n", Foreground(theme.Warning), s.session.Selection.Len(), reset)
	}
	_, _ = io.WriteString(s.out, b.String())
}

// FormatLine 单条消息的展示文本，n 从 1 开始
func FormatLine(n int, m *chatsync.Message, viewer string, selected bool) string {
	mark := " "
	if selected {
		mark = "*"
	}
	status := ""
	if m.ID.IsPending() {
		status = " …"
	}

	name := "Someone"
	switch {
	case m.AuthorID == viewer:
		name = "You"
	case m.Author != nil && m.Author.Name() != "":
		name = m.Author.Name()
	}

	body := m.Content
	switch v := m.Body.(type) {
	case chatsync.ImageBody:
		body = fmt.Sprintf("[image %dx%d] %s", v.Width, v.Height, v.URL)
	case chatsync.VoiceBody:
		body = fmt.Sprintf("[voice %ds]", v.Duration)
	case chatsync.VideoBody:
		body = fmt.Sprintf("[video %ds] %s", v.Duration, v.URL)
	case chatsync.SystemBody:
		return fmt.Sprintf("%s%3d  -- %s --", mark, n, m.Content)
	case chatsync.AgentBody:
		name += " (agent)"
	}

	line := fmt.Sprintf("%s%3d %s %s: %s%s", mark, n, m.CreatedAt.Local().Format("15:04"), name, body, status)
	if m.Reactions != "" {
		line += "  " + m.Reactions
	}
	return line
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
