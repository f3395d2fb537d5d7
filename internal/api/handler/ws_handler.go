package handler

import (
	"Chatwave/internal/pkg/realtime"
	"Chatwave/internal/pkg/redis"
	"Chatwave/internal/pkg/response"
	"Chatwave/internal/pkg/security"
	"Chatwave/internal/service"
	"context"
	"fmt"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// memberTTL 会话成员关系的缓存时长
const memberTTL = time.Minute

type WsHandler struct {
	authService service.AuthService
	chatService service.ChatService
	channel     string
}

func NewWsHandler(authService service.AuthService, chatService service.ChatService, channel string) *WsHandler {
	return &WsHandler{authService: authService, chatService: chatService, channel: channel}
}

// Connect 订阅 messages 表变更，只转发当前用户所在会话的事件
func (s *WsHandler) Connect(c *gin.Context) {
	// 鉴权
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}
	revoked, err := s.authService.IsRevoked(c.Request.Context(), token)
	if err != nil || revoked {
		response.Error(c, service.UnauthorizedError)
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := redis.Subscribe(ctx, s.channel)
	defer func() {
		_ = pubsub.Close()
	}()

	if err = waitSubscribed(ctx, pubsub); err != nil {
		log.Error("订阅实时频道失败", "userID", userID, "err", err)
		return
	}
	if err = writeFrame(conn, websocket.TextMessage, realtime.SubscribedFrame()); err != nil {
		return
	}
	log.Info("用户 WS 连接已建立", "userID", userID, "channel", s.channel)

	stopChan := make(chan struct{})

	// 读循环：监听客户端主动断开
	go func() {
		defer close(stopChan)
		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	// 写循环：按会话成员关系过滤后转发
	filter := newChatFilter(s.chatService, userID)
	redisCh := pubsub.Channel()
	for {
		select {
		case msg, ok := <-redisCh:
			if !ok {
				return
			}
			if !filter.allow(ctx, []byte(msg.Payload)) {
				continue
			}
			if err = writeFrame(conn, websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Error("WS 推送失败", "userID", userID, "err", err)
				return
			}
		case <-ticker.C:
			if err = writeFrame(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		case <-stopChan:
			log.Info("用户 WS 连接已断开", "userID", userID)
			return
		}
	}
}

// chatFilter 单个连接的会话过滤器；只缓存命中，未命中每次回查
type chatFilter struct {
	chats   service.ChatService
	userID  uint64
	members map[uint64]time.Time
	now     func() time.Time
}

func newChatFilter(chats service.ChatService, userID uint64) *chatFilter {
	return &chatFilter{
		chats:   chats,
		userID:  userID,
		members: make(map[uint64]time.Time),
		now:     time.Now,
	}
}

func (s *chatFilter) allow(ctx context.Context, payload []byte) bool {
	chatID, ok := realtime.DecodeChatID(payload)
	if !ok {
		return false
	}
	now := s.now()
	if exp, hit := s.members[chatID]; hit && now.Before(exp) {
		return true
	}
	member, err := s.chats.IsMember(ctx, s.userID, chatID)
	if err != nil {
		log.Warn("校验会话成员失败", "userID", s.userID, "chatID", chatID, "err", err)
		return false
	}
	if !member {
		delete(s.members, chatID)
		return false
	}
	s.members[chatID] = now.Add(memberTTL)
	return true
}

// waitSubscribed 等待 Redis 确认订阅
func waitSubscribed(ctx context.Context, pubsub *goredis.PubSub) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	msg, err := pubsub.Receive(ctx)
	if err != nil {
		return err
	}
	if _, ok := msg.(*goredis.Subscription); !ok {
		return fmt.Errorf("unexpected subscribe reply %T", msg)
	}
	return nil
}

func writeFrame(conn *websocket.Conn, messageType int, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, data)
}
