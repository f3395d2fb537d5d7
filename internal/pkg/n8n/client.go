package n8n

import (
	"Chatwave/internal/api/config"
	"Chatwave/internal/pkg/logger"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Payload 发给工作流的请求体
type Payload struct {
	Message        string `json:"message"`
	AgentID        uint64 `json:"agent_id,omitempty"`
	AgentName      string `json:"agent_name,omitempty"`
	ChatID         uint64 `json:"chat_id,omitempty"`
	ExecutionID    string `json:"execution_id,omitempty"`
	TriggerKeyword string `json:"trigger_keyword,omitempty"`
	Test           bool   `json:"test,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// Result 工作流的同步响应，Message 取自 message 或 response 字段
type Result struct {
	StatusCode int
	Message    string
	Raw        map[string]interface{}
}

// Target 调用地址与凭据，URL 为空时使用 <base_url>/webhook/<workflow_id>
type Target struct {
	URL        string
	WorkflowID string
	APIKey     string
}

type Client struct {
	rc      *resty.Client
	baseURL string
}

func NewClient(cfg config.N8NConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rc := resty.New().
		SetTimeout(timeout).
		SetTransport(logger.NewHTTPTransport()).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")

	return &Client{
		rc:      rc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// WebhookURL 工作流的 webhook 地址
func (c *Client) WebhookURL(t Target) string {
	if t.URL != "" {
		return t.URL
	}
	return fmt.Sprintf("%s/webhook/%s", c.baseURL, t.WorkflowID)
}

// Trigger 调用工作流，不重试；非 2xx 返回错误
func (c *Client) Trigger(ctx context.Context, t Target, payload *Payload) (*Result, error) {
	if payload.Timestamp == "" {
		payload.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	raw := make(map[string]interface{})
	req := c.rc.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&raw)
	if t.APIKey != "" {
		req.SetAuthToken(t.APIKey).SetHeader("X-API-Key", t.APIKey)
	}

	resp, err := req.Post(c.WebhookURL(t))
	if err != nil {
		return nil, fmt.Errorf("n8n request: %w", err)
	}
	if resp.IsError() {
		return &Result{StatusCode: resp.StatusCode()}, fmt.Errorf("n8n API error: %s", resp.Status())
	}

	return &Result{
		StatusCode: resp.StatusCode(),
		Message:    messageOf(raw),
		Raw:        raw,
	}, nil
}

func messageOf(raw map[string]interface{}) string {
	for _, key := range []string{"message", "response"} {
		if s, ok := raw[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
