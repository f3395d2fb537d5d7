package chatsync

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationFor(t *testing.T) {
	long := strings.Repeat("好", 60)

	tests := []struct {
		name   string
		body   Body
		text   string
		sender string
		want   string
	}{
		{name: "text", body: TextBody{}, text: "hi there", sender: "Alice", want: "Alice: hi there"},
		{name: "long text", body: TextBody{}, text: long, sender: "Alice", want: "Alice: " + strings.Repeat("好", 50) + "..."},
		{name: "image", body: ImageBody{URL: "u"}, text: "Image", sender: "Bob", want: "Bob sent a photo"},
		{name: "voice", body: VoiceBody{URL: "u", Duration: 3}, text: "Voice 3s", sender: "Bob", want: "Bob sent a voice message"},
		{name: "video", body: VideoBody{URL: "u"}, text: "Video 4s", sender: "Bob", want: "Bob sent a video"},
		{name: "unknown sender", body: TextBody{}, text: "yo", sender: "", want: "Someone: yo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Message{ID: ConfirmedID("1"), ChatID: "c1", Content: tt.text, Body: tt.body}
			n := NotificationFor(m, tt.sender)
			assert.Equal(t, "New Message", n.Title)
			assert.Equal(t, tt.want, n.Body)
			assert.Equal(t, "c1", n.Data.ChatID)
			assert.Equal(t, tt.body.Type(), n.Data.MessageType)
		})
	}
}

func TestPreviewKeepsExactLimit(t *testing.T) {
	s := strings.Repeat("a", 50)
	assert.Equal(t, s, Preview(s, 50))
	assert.Equal(t, s+"...", Preview(s+"b", 50))
}
