package services

import (
	"context"
	"encoding/json"
	"time"

	awspkg "github.com/b2bconnect/commerce-backend/pkg/aws"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/common/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventWriter is the Kafka side of event delivery
type EventWriter interface {
	WriteEvent(ctx context.Context, key string, payload []byte) error
}

// OrderEventPublisher fans an order event out to Kafka and SNS. Either sink
// may be nil.
type OrderEventPublisher struct {
	kafka    EventWriter
	sns      awspkg.SNSPublisher
	topicArn string
	timeout  time.Duration
}

func NewOrderEventPublisher(kafka EventWriter, sns awspkg.SNSPublisher, topicArn string) *OrderEventPublisher {
	return &OrderEventPublisher{kafka: kafka, sns: sns, topicArn: topicArn, timeout: 5 * time.Second}
}

func (p *OrderEventPublisher) Publish(ctx context.Context, event models.OrderEvent) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error(ctx, "Failed to marshal order event", err, zap.String("event", event.Event))
		return
	}

	// The request may already be finishing; keep its values, drop its deadline.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if p.kafka != nil {
		if err := p.kafka.WriteEvent(pubCtx, event.SellerID, payload); err != nil {
			logger.Warn(ctx, "Kafka publish failed", zap.String("event", event.Event), zap.Error(err))
		}
	}
	if p.sns != nil && p.topicArn != "" {
		attrs := map[string]string{"event": event.Event}
		if err := p.sns.Publish(pubCtx, p.topicArn, payload, attrs); err != nil {
			logger.Warn(ctx, "SNS publish failed", zap.String("event", event.Event), zap.Error(err))
		}
	}
}
