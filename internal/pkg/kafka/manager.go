package kafka

import (
	"Chatwave/internal/api/config"
	"Chatwave/internal/pkg/realtime"
	"Chatwave/internal/repository"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理 Canal 中转消费者
type ConsumerManager struct {
	topic           string
	messageConsumer sarama.ConsumerGroup
	messageHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, publisher realtime.Publisher, profileRepo repository.ProfileRepo) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	messageConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaMessageConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		topic:           cfg.KafkaMessageConsumer.Topic,
		messageConsumer: messageConsumer,
		messageHandler:  NewMessageHandler(publisher, profileRepo),
	}, nil
}

// Start 阻塞运行直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.messageConsumer.Errors() {
			log.Error("message relay error", "err", err)
		}
	}()

	go func() {
		log.Info("message relay started", "topic", m.topic)
		for {
			if err := m.messageConsumer.Consume(ctx, []string{m.topic}, m.messageHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.messageConsumer.Close(); err != nil {
		log.Error("Failed to close message consumer", "err", err)
		return err
	}
	return nil
}
