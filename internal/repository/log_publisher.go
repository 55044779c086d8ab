package repository

import (
	"context"

	applogger "FinSignal/pkg/logger"
)

// LogPublisher ships aggregated error logs through the Kafka producer.
type LogPublisher struct {
	producer messagePublisher
}

// NewLogPublisher creates a publisher for logger.CollectionConfig.
func NewLogPublisher(producer messagePublisher) applogger.Publisher {
	return &LogPublisher{producer: producer}
}

func (p *LogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, []byte("logs"), payload)
}
