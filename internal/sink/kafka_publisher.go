package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedkafka "github.com/radieske/opendota-tools/internal/shared/kafka"
)

// KafkaPublisher encapsula o writer Kafka e o logger.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

// NewKafkaPublisher cria um publisher para um tópico Kafka.
// Em ambiente local/dev garante a existência do tópico antes de criar o writer.
func NewKafkaPublisher(brokers string, topic string, env string, log *zap.Logger) *KafkaPublisher {
	if env == "local" || env == "dev" {
		if err := ensureTopic(sharedkafka.SplitBrokers(brokers), topic); err != nil {
			log.Warn("failed to create kafka topic", zap.String("topic", topic), zap.Error(err))
		}
	}

	return &KafkaPublisher{
		writer: sharedkafka.NewWriter(brokers, topic),
		log:    log,
	}
}

// ensureTopic emite CreateTopics pelo controller do cluster; tópico existente não é erro
func ensureTopic(brokers []string, topic string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("kafka brokers not provided")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("get controller: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", controller.Host, controller.Port)
	cconn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer cconn.Close()

	// single-broker: 1 partição, replicação 1
	err = cconn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	return nil
}

// Publish envia o payload; a chave (match_id) mantém eventos da mesma partida na mesma partição
func (p *KafkaPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	if err := sharedkafka.WriteJSON(ctx, p.writer, key, payload); err != nil {
		p.log.Error("failed to publish to kafka", zap.String("topic", p.writer.Topic), zap.Error(err))
		return fmt.Errorf("kafka publish: %w", err)
	}
	p.log.Debug("published to kafka", zap.String("topic", p.writer.Topic), zap.String("key", key))
	return nil
}

// Close finaliza o writer e libera recursos associados.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
