package client

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/chatsync"
	"Chatwave/internal/pkg/consts"
	"context"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	handshakeTimeout = 10 * time.Second
	feedBuffer       = 64
)

// WSFeed 通过 websocket 接收 messages 表的变更推送
type WSFeed struct {
	wsURL  string
	token  func() string
	dialer *websocket.Dialer
}

func NewWSFeed(wsURL string, token func() string) *WSFeed {
	return &WSFeed{
		wsURL: wsURL,
		token: token,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (s *WSFeed) Subscribe(ctx context.Context) (chatsync.Subscription, error) {
	u, err := url.Parse(s.wsURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse ws url")
	}
	q := u.Query()
	q.Set("token", s.token())
	u.RawQuery = q.Encode()

	conn, _, err := s.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "dial message feed")
	}

	sub := &wsSubscription{
		conn:   conn,
		events: make(chan chatsync.FeedEvent, feedBuffer),
		done:   make(chan struct{}),
	}
	go sub.readLoop()
	return sub, nil
}

type wsSubscription struct {
	conn      *websocket.Conn
	events    chan chatsync.FeedEvent
	done      chan struct{}
	closeOnce sync.Once
}

func (s *wsSubscription) Events() <-chan chatsync.FeedEvent {
	return s.events
}

// Close 关闭连接，读循环随之退出并关闭事件通道
func (s *wsSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}

func (s *wsSubscription) readLoop() {
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				log.Warn("message feed disconnected", "err", err)
			}
			return
		}

		ev, ok := DecodeFrame(data)
		if !ok {
			continue
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

// DecodeFrame 解析推送帧，非 messages 插入事件返回 false
func DecodeFrame(data []byte) (chatsync.FeedEvent, bool) {
	var ev dto.ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Debug("skip undecodable frame", "err", err)
		return chatsync.FeedEvent{}, false
	}

	switch ev.Type {
	case consts.EventSubscribed:
		return chatsync.FeedEvent{Kind: chatsync.EventSubscribed}, true
	case consts.EventInsert:
		if ev.Table != consts.TableMessages || ev.Record == nil {
			return chatsync.FeedEvent{}, false
		}
		return chatsync.FeedEvent{Kind: chatsync.EventInsert, Message: ToMessage(ev.Record)}, true
	default:
		return chatsync.FeedEvent{}, false
	}
}
