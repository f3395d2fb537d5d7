package notify

import (
	"Chatwave/internal/api/config"
	"Chatwave/internal/chatsync"
	"context"
	"fmt"
	"io"
	log "log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const pushTTL = 30

// ErrSubscriptionGone 推送端点已失效（410）
var ErrSubscriptionGone = errors.New("push subscription expired")

// WebPush 通过 VAPID Web Push 投递通知
type WebPush struct {
	sub     *webpush.Subscription
	options *webpush.Options
}

// Enabled 配置了 VAPID 密钥与订阅时才启用 Web Push
func Enabled(cfg config.WebPushConfig) bool {
	return cfg.VAPIDPrivateKey != "" && cfg.VAPIDPublicKey != "" && cfg.Subscription != ""
}

func NewWebPush(cfg config.WebPushConfig, httpClient *http.Client) (*WebPush, error) {
	sub := &webpush.Subscription{}
	if err := json.Unmarshal([]byte(cfg.Subscription), sub); err != nil {
		return nil, errors.Wrap(err, "decode push subscription")
	}
	if sub.Endpoint == "" {
		return nil, errors.New("push subscription has no endpoint")
	}

	subscriber := cfg.Subscriber
	if subscriber == "" {
		subscriber = "mailto:admin@chatwave.local"
	}
	opts := &webpush.Options{
		Subscriber:      subscriber,
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		TTL:             pushTTL,
	}
	if httpClient != nil {
		opts.HTTPClient = httpClient
	}
	return &WebPush{sub: sub, options: opts}, nil
}

func (s *WebPush) Notify(ctx context.Context, n *chatsync.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, s.sub, s.options)
	if err != nil {
		return errors.Wrap(err, "send push")
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 300:
		return fmt.Errorf("push endpoint returned %s", resp.Status)
	}
	log.DebugContext(ctx, "push notification sent", "title", n.Title)
	return nil
}
