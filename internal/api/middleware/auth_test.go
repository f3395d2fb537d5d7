package middleware

import (
	"Chatwave/internal/pkg/consts"
	"Chatwave/internal/pkg/security"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	revoked bool
	err     error
}

func (s *stubAuth) Logout(context.Context, string) error { return nil }

func (s *stubAuth) IsRevoked(context.Context, string) (bool, error) { return s.revoked, s.err }

type envelope struct {
	Code int         `json:"code"`
	Data interface{} `json:"data"`
}

func serve(t *testing.T, auth *stubAuth, header string) envelope {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 200, "data": c.GetUint64(consts.UserIDKey)})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthMiddlewareInjectsUserID(t *testing.T) {
	token, err := security.GenerateToken(42)
	require.NoError(t, err)

	out := serve(t, &stubAuth{}, "Bearer "+token)
	assert.Equal(t, 200, out.Code)
	assert.EqualValues(t, 42, out.Data)
}

func TestAuthMiddlewareRejects(t *testing.T) {
	token, err := security.GenerateToken(42)
	require.NoError(t, err)

	tests := []struct {
		name   string
		auth   *stubAuth
		header string
		code   int
	}{
		{name: "missing header", auth: &stubAuth{}, header: "", code: 401},
		{name: "not bearer", auth: &stubAuth{}, header: "Basic abc", code: 401},
		{name: "garbage token", auth: &stubAuth{}, header: "Bearer a.b.c", code: 401},
		{name: "logged out", auth: &stubAuth{revoked: true}, header: "Bearer " + token, code: 401},
		{name: "blacklist unavailable", auth: &stubAuth{err: errors.New("redis down")}, header: "Bearer " + token, code: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, serve(t, tt.auth, tt.header).Code)
		})
	}
}

func TestTraceMiddlewareEchoesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceHeader, "trace-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-1", w.Header().Get(TraceHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(TraceHeader))
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example.com/"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
