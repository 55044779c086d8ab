package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderContentType = "content-type"

	contentJSON = "application/json"
	contentText = "text/plain; charset=utf-8"
)

// messageWriter is the part of kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes keyed records. Records with the same key land on the same
// partition when HashByKey is set (the default).
type Producer struct {
	writer *kafka.Writer
	w      messageWriter
	comp   string
	now    func() time.Time
}

// Message is one record. Headers are added after the content-type header.
type Message struct {
	Key     []byte
	Value   interface{}
	Headers map[string]string
}

// NewProducer creates a new Kafka producer.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchBytes:   1048576,
		BatchTimeout: 50 * time.Millisecond,
		HashByKey:    true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	var balancer kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		balancer = &kafka.Hash{}
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               balancer,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            parseCompression(cfg.Compression),
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		ReadTimeout:            cfg.ReadTimeout,
		BatchSize:              cfg.BatchSize,
		BatchBytes:             int64(cfg.BatchBytes),
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: cfg.AutoCreateTopics,
	}

	initProducerMetricsOnce()
	return newProducer(writer, writer, cfg.Compression), nil
}

func newProducer(writer *kafka.Writer, w messageWriter, comp string) *Producer {
	return &Producer{writer: writer, w: w, comp: comp, now: time.Now}
}

// Publish sends one record to topic. Values that are not []byte or string are JSON-encoded.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishBatch writes all messages in one call. Nothing is written if any value fails to encode.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := p.now()
	records := make([]kafka.Message, 0, len(messages))
	var size int64
	for i, m := range messages {
		value, contentType, err := encodeValue(m.Value)
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		records = append(records, kafka.Message{
			Topic:   topic,
			Key:     m.Key,
			Value:   value,
			Time:    start,
			Headers: headers(contentType, m.Headers),
		})
		size += int64(len(value))
	}

	err := p.w.WriteMessages(ctx, records...)
	observeProducerMetrics(topic, p.comp, size, len(records), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", topic, err)
	}
	return nil
}

// Close flushes pending batches and closes the producer.
func (p *Producer) Close() error {
	if p.w == nil {
		return nil
	}
	return p.w.Close()
}

func encodeValue(value interface{}) ([]byte, string, error) {
	switch v := value.(type) {
	case []byte:
		return v, "", nil
	case string:
		return []byte(v), contentText, nil
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, "", fmt.Errorf("marshal value: %w", err)
		}
		return b, contentJSON, nil
	}
}

func headers(contentType string, extra map[string]string) []kafka.Header {
	if contentType == "" && len(extra) == 0 {
		return nil
	}
	out := make([]kafka.Header, 0, len(extra)+1)
	if contentType != "" {
		out = append(out, kafka.Header{Key: HeaderContentType, Value: []byte(contentType)})
	}
	for k, v := range extra {
		out = append(out, kafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

var (
	producerRecords *prometheus.CounterVec
	producerBytes   *prometheus.CounterVec
	producerLatency *prometheus.HistogramVec
	producerOnce    sync.Once
)

func initProducerMetricsOnce() {
	producerOnce.Do(func() {
		producerRecords = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finsignal",
			Subsystem: "kafka_producer",
			Name:      "records_total",
			Help:      "Records written to Kafka by result",
		}, []string{"topic", "compression", "result"})
		producerBytes = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finsignal",
			Subsystem: "kafka_producer",
			Name:      "bytes_total",
			Help:      "Record value bytes written to Kafka",
		}, []string{"topic", "compression"})
		producerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "finsignal",
			Subsystem: "kafka_producer",
			Name:      "write_seconds",
			Help:      "Latency of one WriteMessages call",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"})
	})
}

func observeProducerMetrics(topic, comp string, bytes int64, count int, dur time.Duration, err error) {
	if producerRecords == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	producerRecords.WithLabelValues(topic, comp, result).Add(float64(count))
	if err == nil {
		producerBytes.WithLabelValues(topic, comp).Add(float64(bytes))
	}
	producerLatency.WithLabelValues(topic).Observe(dur.Seconds())
}
