package client

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/chatsync"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, code int, msg string, data interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(&dto.Response{Code: code, Message: msg, Data: data}))
}

func TestRestBackendLoadMessages(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chats/7/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeEnvelope(t, w, 200, "success", []*dto.MessageDTO{
			{ID: 1, ChatID: 7, AuthorID: 2, Content: "hi", MessageType: "text", CreatedAt: created},
			{ID: 2, ChatID: 7, AuthorID: 3, MessageType: "image", ImageURL: "http://x/a.jpg", ImageWidth: 4, ImageHeight: 3, CreatedAt: created},
		})
	}))
	defer srv.Close()

	backend := NewRestBackend(srv.URL, func() string { return "tok" })
	msgs, err := backend.LoadMessages(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, chatsync.ConfirmedID("1"), msgs[0].ID)
	assert.Equal(t, "7", msgs[0].ChatID)
	assert.Equal(t, chatsync.TypeText, msgs[0].Type())
	assert.Equal(t, chatsync.ImageBody{URL: "http://x/a.jpg", Width: 4, Height: 3}, msgs[1].Body)
	assert.True(t, created.Equal(msgs[1].CreatedAt))
}

func TestRestBackendBusinessError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, 403, "not a member", nil)
	}))
	defer srv.Close()

	backend := NewRestBackend(srv.URL, func() string { return "" })
	err := backend.MarkRead(context.Background(), "7")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Code)
	assert.Equal(t, "not a member", apiErr.Message)
}

func TestRestBackendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	backend := NewRestBackend(srv.URL, func() string { return "" })
	_, err := backend.GetChatTitle(context.Background(), "7")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Code)
}

func TestRestBackendInsertMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chats/7/messages", r.URL.Path)

		var req dto.SendMessageReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "voice", req.MessageType)
		assert.Equal(t, "http://x/v.m4a", req.VoiceURL)
		assert.Equal(t, 5, req.VoiceDuration)

		writeEnvelope(t, w, 200, "success", &dto.MessageDTO{
			ID: 9, ChatID: 7, AuthorID: 2, Content: req.Content, MessageType: req.MessageType,
			VoiceURL: req.VoiceURL, VoiceDuration: req.VoiceDuration,
		})
	}))
	defer srv.Close()

	backend := NewRestBackend(srv.URL, func() string { return "tok" })
	m, err := backend.InsertMessage(context.Background(), &chatsync.Draft{
		ChatID:  "7",
		Content: "Voice message",
		Body:    chatsync.VoiceBody{URL: "http://x/v.m4a", Duration: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, chatsync.ConfirmedID("9"), m.ID)
	assert.Equal(t, chatsync.VoiceBody{URL: "http://x/v.m4a", Duration: 5}, m.Body)
}

func TestRestBackendUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/media/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "chat-images", r.FormValue("bucket"))
		assert.Equal(t, "u1/a.jpg", r.FormValue("path"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "a.jpg", hdr.Filename)
		assert.Equal(t, "jpeg-bytes", string(body))

		writeEnvelope(t, w, 200, "success", &dto.UploadResultDTO{URL: "http://cdn/chat-images/u1/a.jpg"})
	}))
	defer srv.Close()

	backend := NewRestBackend(srv.URL, func() string { return "tok" })
	url, err := backend.Upload(context.Background(), "chat-images", "u1/a.jpg",
		strings.NewReader("jpeg-bytes"), 10, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/chat-images/u1/a.jpg", url)
}

func TestRestBackendUploadEmptyURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, 200, "success", &dto.UploadResultDTO{})
	}))
	defer srv.Close()

	backend := NewRestBackend(srv.URL, func() string { return "tok" })
	_, err := backend.Upload(context.Background(), "chat-images", "a.jpg", strings.NewReader("x"), 1, "image/jpeg")
	assert.Error(t, err)
}

func TestRestBackendLogoutUsesGivenToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/logout", r.URL.Path)
		assert.Equal(t, "Bearer old", r.Header.Get("Authorization"))
		writeEnvelope(t, w, 200, "success", nil)
	}))
	defer srv.Close()

	backend := NewRestBackend(srv.URL, func() string { return "" })
	assert.NoError(t, backend.Logout(context.Background(), "old"))
}

func TestToMessage(t *testing.T) {
	m := ToMessage(&dto.MessageDTO{
		ID: 3, ChatID: 1, AuthorID: 5, Content: "done", MessageType: "agent",
		AgentID: 8, ExecutionID: "exec-1", Reactions: "👍",
		Author: &dto.ProfileDTO{ID: 5, Phone: "+100"},
	})

	assert.Equal(t, chatsync.AgentBody{AgentID: "8", ExecutionID: "exec-1"}, m.Body)
	assert.Equal(t, "👍", m.Reactions)
	require.NotNil(t, m.Author)
	assert.Equal(t, "+100", m.Author.Name())
	assert.Nil(t, ToMessage(nil))
}
