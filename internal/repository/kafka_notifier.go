package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier delivers notifications as records on a Kafka topic.
type KafkaNotifier struct {
	producer messagePublisher
	topic    string
	now      func() time.Time
}

// NewKafkaNotifier creates a Kafka-backed notifier.
func NewKafkaNotifier(producer messagePublisher, topic string) repository.Notifier {
	return &KafkaNotifier{producer: producer, topic: topic, now: time.Now}
}

type notificationRecord struct {
	Symbol string    `json:"symbol,omitempty"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Send publishes text keyed by the instrument hashtag so one symbol stays on one partition.
func (n *KafkaNotifier) Send(ctx context.Context, text string) error {
	symbol := hashtag(text)
	err := n.producer.Publish(ctx, n.topic, []byte(symbol), notificationRecord{
		Symbol: symbol,
		Text:   text,
		SentAt: n.now().UTC(),
	})
	if err == nil {
		return nil
	}
	return classifyKafkaError(err)
}

// classifyKafkaError maps writer failures onto the delivery taxonomy. The writer
// reports broker errors per message as kafka.WriteErrors; the record is only
// permanent when every failed message carries a permanent code.
func classifyKafkaError(err error) error {
	var werrs kafka.WriteErrors
	if errors.As(err, &werrs) {
		if werrs.Count() == 0 {
			return models.Transient(err)
		}
		for _, e := range werrs {
			if e != nil && !isPermanentKafkaError(e) {
				return models.Transient(err)
			}
		}
		return models.Permanent(err)
	}
	if isPermanentKafkaError(err) {
		return models.Permanent(err)
	}
	return models.Transient(err)
}

func isPermanentKafkaError(err error) bool {
	var kerr kafka.Error
	if !errors.As(err, &kerr) || kerr.Temporary() {
		return false
	}
	switch kerr {
	case kafka.MessageSizeTooLarge, kafka.InvalidTopic, kafka.TopicAuthorizationFailed:
		return true
	}
	return false
}

// hashtag returns the first "#WORD" token, or "".
func hashtag(text string) string {
	for _, f := range strings.Fields(text) {
		if len(f) > 1 && f[0] == '#' {
			return f[1:]
		}
	}
	return ""
}
