package n8n

import (
	"Chatwave/internal/api/config"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerSendsPayloadAndKeys(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhook/wf-1", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"pong"}`))
	}))
	defer srv.Close()

	c := NewClient(config.N8NConfig{BaseURL: srv.URL + "/"})
	res, err := c.Trigger(context.Background(), Target{WorkflowID: "wf-1", APIKey: "secret"}, &Payload{
		Message:     "ping",
		AgentID:     5,
		ChatID:      9,
		ExecutionID: "e1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pong", res.Message)
	assert.Equal(t, "ping", got.Message)
	assert.EqualValues(t, 9, got.ChatID)
	assert.NotEmpty(t, got.Timestamp)
}

func TestTriggerDoesNotRetryErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(config.N8NConfig{BaseURL: srv.URL})
	res, err := c.Trigger(context.Background(), Target{WorkflowID: "wf"}, &Payload{Message: "x"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWebhookURLPrefersAgentURL(t *testing.T) {
	c := NewClient(config.N8NConfig{BaseURL: "http://n8n.local"})
	assert.Equal(t, "http://hook/x", c.WebhookURL(Target{URL: "http://hook/x", WorkflowID: "wf"}))
	assert.Equal(t, "http://n8n.local/webhook/wf", c.WebhookURL(Target{WorkflowID: "wf"}))
}
