package realtime

import (
	"Chatwave/internal/api/dto"
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeInsert(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	data, err := EncodeInsert(&dto.MessageDTO{ID: 7, ChatID: 3, AuthorID: 1, Content: "hi", MessageType: "text", CreatedAt: at})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "INSERT", raw["type"])
	assert.Equal(t, "messages", raw["table"])

	record := raw["record"].(map[string]interface{})
	assert.EqualValues(t, 7, record["id"])
	assert.EqualValues(t, 3, record["chat_id"])
	assert.Equal(t, "hi", record["content"])
	assert.NotContains(t, record, "image_url")
}

func TestDecodeChatID(t *testing.T) {
	data, err := EncodeInsert(&dto.MessageDTO{ID: 7, ChatID: 3})
	require.NoError(t, err)
	chatID, ok := DecodeChatID(data)
	assert.True(t, ok)
	assert.EqualValues(t, 3, chatID)

	_, ok = DecodeChatID(SubscribedFrame())
	assert.False(t, ok)
	_, ok = DecodeChatID([]byte("not json"))
	assert.False(t, ok)
}

func TestSubscribedFrame(t *testing.T) {
	assert.JSONEq(t, `{"type":"SUBSCRIBED"}`, string(SubscribedFrame()))
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NewNopPublisher().PublishInsert(context.Background(), &dto.MessageDTO{}))
}
