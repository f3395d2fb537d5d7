package realtime

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/pkg/consts"
	"Chatwave/internal/pkg/redis"
	"context"

	"github.com/goccy/go-json"
)

// Publisher messages 表变更的发布端
type Publisher interface {
	PublishInsert(ctx context.Context, msg *dto.MessageDTO) error
}

// EncodeInsert 编码为 {"type":"INSERT","table":"messages","record":{...}}
func EncodeInsert(msg *dto.MessageDTO) ([]byte, error) {
	return json.Marshal(&dto.ChangeEvent{
		Type:   consts.EventInsert,
		Table:  consts.TableMessages,
		Record: msg,
	})
}

// DecodeChatID 取出变更事件所属会话；不是消息记录时返回 false
func DecodeChatID(payload []byte) (uint64, bool) {
	var event dto.ChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil || event.Record == nil {
		return 0, false
	}
	return event.Record.ChatID, true
}

// SubscribedFrame 订阅生效后下发给客户端的首帧
func SubscribedFrame() []byte {
	data, _ := json.Marshal(&dto.ChangeEvent{Type: consts.EventSubscribed})
	return data
}

type redisPublisher struct {
	channel string
}

// NewRedisPublisher 发布到 Redis 频道，所有订阅者收到全部会话的事件
func NewRedisPublisher(channel string) Publisher {
	return &redisPublisher{channel: channel}
}

func (s *redisPublisher) PublishInsert(ctx context.Context, msg *dto.MessageDTO) error {
	data, err := EncodeInsert(msg)
	if err != nil {
		return err
	}
	return redis.Publish(ctx, s.channel, data)
}

type nopPublisher struct{}

// NewNopPublisher 变更由 Canal 中转时，业务层不再直接发布
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishInsert(context.Context, *dto.MessageDTO) error { return nil }
