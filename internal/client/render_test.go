package client

import (
	"Chatwave/internal/chatsync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestForeground(t *testing.T) {
	assert.Equal(t, "\x1b[38;2;255;0;128m", Foreground("#ff0080"))
	assert.Equal(t, "\x1b[38;2;0;0;0m", Foreground("000000"))
	assert.Empty(t, Foreground("#fff"))
	assert.Empty(t, Foreground("#zzzzzz"))
}

func TestFormatLine(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.Local)
	bob := &chatsync.Profile{ID: "u2", DisplayName: "Bob"}

	tests := []struct {
		name     string
		msg      *chatsync.Message
		selected bool
		want     string
	}{
		{
			name: "own text",
			msg:  &chatsync.Message{ID: chatsync.ConfirmedID("1"), AuthorID: "u1", Content: "hi", Body: chatsync.TextBody{}, CreatedAt: at},
			want: "   1 08:30 You: hi",
		},
		{
			name:     "pending selected",
			msg:      &chatsync.Message{ID: chatsync.PendingID("t"), AuthorID: "u1", Content: "hi", CreatedAt: at},
			selected: true,
			want:     "*  1 08:30 You: hi …",
		},
		{
			name: "unknown author",
			msg:  &chatsync.Message{ID: chatsync.ConfirmedID("1"), AuthorID: "u9", Content: "hey", CreatedAt: at},
			want: "   1 08:30 Someone: hey",
		},
		{
			name: "image with reactions",
			msg: &chatsync.Message{ID: chatsync.ConfirmedID("1"), AuthorID: "u2", Author: bob,
				Body: chatsync.ImageBody{URL: "http://x/a.jpg", Width: 4, Height: 3}, CreatedAt: at, Reactions: "👍"},
			want: "   1 08:30 Bob: [image 4x3] http://x/a.jpg  👍",
		},
		{
			name: "voice",
			msg:  &chatsync.Message{ID: chatsync.ConfirmedID("1"), AuthorID: "u2", Author: bob, Body: chatsync.VoiceBody{Duration: 7}, CreatedAt: at},
			want: "   1 08:30 Bob: [voice 7s]",
		},
		{
			name: "system",
			msg:  &chatsync.Message{ID: chatsync.ConfirmedID("1"), Content: "Bob joined", Body: chatsync.SystemBody{}, CreatedAt: at},
			want: "   1  -- Bob joined --",
		},
		{
			name: "agent",
			msg:  &chatsync.Message{ID: chatsync.ConfirmedID("1"), AuthorID: "u2", Author: bob, Content: "done", Body: chatsync.AgentBody{AgentID: "8"}, CreatedAt: at},
			want: "   1 08:30 Bob (agent): done",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLine(1, tt.msg, "u1", tt.selected))
		})
	}
}
