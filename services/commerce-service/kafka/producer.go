package kafka

import (
	"context"
	"time"

	"github.com/b2bconnect/commerce-backend/services/common/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer writes order events to a single topic
type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	logger.Log.Info("Kafka producer initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &Producer{writer: w, topic: topic}
}

// WriteEvent publishes payload keyed by key. Events of one seller share a key
// and therefore a partition.
func (p *Producer) WriteEvent(ctx context.Context, key string, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error(ctx, "Failed to publish order event", err, zap.String("topic", p.topic), zap.String("key", key))
		return err
	}
	return nil
}

func (p *Producer) Close() error {
	logger.Log.Info("Closing Kafka producer", zap.String("topic", p.topic))
	return p.writer.Close()
}
