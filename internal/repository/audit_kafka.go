package repository

import (
	"context"

	"StockResearch/internal/domain/models"
	xkafka "StockResearch/pkg/kafka"
	xlogger "StockResearch/pkg/logger"
)

// KafkaAudit publishes call records to a Kafka topic, keyed by provider so a
// provider's records stay ordered within a partition.
type KafkaAudit struct {
	producer *xkafka.Producer
	topic    string
	logger   *xlogger.Logger
}

func NewKafkaAudit(producer *xkafka.Producer, topic string, logger *xlogger.Logger) *KafkaAudit {
	if topic == "" {
		topic = "stockresearch.api_calls"
	}
	return &KafkaAudit{producer: producer, topic: topic, logger: logger}
}

// Record publishes one call record. Failures are logged, never propagated.
func (k *KafkaAudit) Record(ctx context.Context, rec models.CallRecord) {
	if err := k.producer.Publish(ctx, k.topic, []byte(rec.Provider), rec); err != nil {
		k.logger.Warn("audit publish failed",
			xlogger.String("provider", rec.Provider), xlogger.Error(err))
	}
}

func (k *KafkaAudit) Close() error {
	return k.producer.Close()
}

// NopAudit discards all records.
type NopAudit struct{}

func (NopAudit) Record(context.Context, models.CallRecord) {}

func (NopAudit) Close() error { return nil }
