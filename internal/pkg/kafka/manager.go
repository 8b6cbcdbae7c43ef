package kafka

import (
	"Teamline/internal/api/config"
	"Teamline/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	subsConsumer sarama.ConsumerGroup
	subsHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, receiptSvc service.ReadReceiptService) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	subsConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaSubsConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}
	subsHandler := NewSubscriptionHandler(receiptSvc)

	return &ConsumerManager{
		subsConsumer: subsConsumer,
		subsHandler:  subsHandler,
	}, nil
}

// Start 启动所有消费者，阻塞到 ctx 取消
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	go func() {
		topic := cfg.KafkaSubsConsumer.Topic
		log.Info("Subscription consumer started", "topic", topic)
		for {
			if err := m.subsConsumer.Consume(ctx, []string{topic}, m.subsHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.subsConsumer.Close(); err != nil {
		log.Error("Failed to close subscription consumer", "err", err)
	}

	return nil
}
