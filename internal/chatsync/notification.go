package chatsync

import "fmt"

const (
	notificationTitle = "New Message"
	previewLimit      = 50
	defaultSenderName = "Someone"
)

// NotificationFor 根据消息类型生成通知内容
func NotificationFor(m *Message, senderName string) *Notification {
	if senderName == "" {
		senderName = defaultSenderName
	}

	var body string
	switch m.Type() {
	case TypeImage:
		body = senderName + " sent a photo"
	case TypeVoice:
		body = senderName + " sent a voice message"
	case TypeVideo:
		body = senderName + " sent a video"
	default:
		body = fmt.Sprintf("%s: %s", senderName, Preview(m.Content, previewLimit))
	}

	return &Notification{
		Title: notificationTitle,
		Body:  body,
		Data: NotificationData{
			ChatID:      m.ChatID,
			MessageType: m.Type(),
			SenderName:  senderName,
		},
	}
}

// Preview 按字符截断，超长时追加省略号
func Preview(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit]) + "..."
}
