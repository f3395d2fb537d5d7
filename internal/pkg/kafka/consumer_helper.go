package kafka

import (
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

const (
	batchSize     = 32
	batchTimeout  = 500 * time.Millisecond
	maxRetryDelay = 5 * time.Second
)

// ErrSkip 与当前中转无关的消息，直接提交偏移量
var ErrSkip = errors.New("canal message skipped")

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 攒批拉取消息，满批或超时后处理
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					processBatch(session, batch, logic)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 按分区内顺序逐条处理，同一会话的推送不能乱序
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	ctx := session.Context()
	for _, msg := range messages {
		if !runWithRetry(ctx, msg, logic) {
			return
		}
		session.MarkMessage(msg, "")
	}
	session.Commit()
}

// runWithRetry 失败后指数退避重试，会话结束时返回 false
func runWithRetry(ctx context.Context, msg *sarama.ConsumerMessage, logic LogicFunc) bool {
	retryInterval := 100 * time.Millisecond
	for {
		err := logic(ctx, msg)
		if err == nil || errors.Is(err, ErrSkip) {
			return true
		}
		log.Error("process message error", "err", err, "partition", msg.Partition, "offset", msg.Offset)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(retryInterval):
		}
		retryInterval *= 2
		if retryInterval > maxRetryDelay {
			retryInterval = maxRetryDelay
		}
	}
}

// ToCanalMessage 解析 canal 消息，表名不符或无数据时返回 ErrSkip
func ToCanalMessage(value []byte, tableName string) (*CanalMessage, error) {
	var canalMsg CanalMessage
	if err := json.Unmarshal(value, &canalMsg); err != nil {
		log.Error("unmarshal canal message error", "err", err)
		return nil, ErrSkip
	}

	if canalMsg.IsDDL || canalMsg.Table != tableName || len(canalMsg.Data) == 0 {
		return nil, ErrSkip
	}

	return &canalMsg, nil
}
