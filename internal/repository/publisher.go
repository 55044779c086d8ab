package repository

import "context"

// messagePublisher is the part of pkg/kafka.Producer the adapters need.
type messagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}
