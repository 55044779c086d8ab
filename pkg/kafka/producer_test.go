package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)
}

func TestNewProducerAppliesOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("zstd"),
		WithHashByKey(false),
	)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, kafka.Zstd, p.writer.Compression)
	assert.IsType(t, &kafka.LeastBytes{}, p.writer.Balancer)
}

func TestPublishEncodesAndTagsRecords(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(nil, w, "gzip")

	require.NoError(t, p.Publish(context.Background(), "notifications", []byte("BTCUSDT"), map[string]string{"symbol": "BTCUSDT"}))
	require.NoError(t, p.PublishBatch(context.Background(), "notifications", []Message{
		{Key: []byte("ETHUSDT"), Value: "hello", Headers: map[string]string{"run-id": "r1"}},
	}))

	require.Len(t, w.written, 2)
	assert.Equal(t, "notifications", w.written[0].Topic)
	assert.Equal(t, []byte("BTCUSDT"), w.written[0].Key)
	assert.JSONEq(t, `{"symbol":"BTCUSDT"}`, string(w.written[0].Value))
	assert.Equal(t, contentJSON, headerValue(w.written[0], HeaderContentType))

	assert.Equal(t, []byte("hello"), w.written[1].Value)
	assert.Equal(t, contentText, headerValue(w.written[1], HeaderContentType))
	assert.Equal(t, "r1", headerValue(w.written[1], "run-id"))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishBatchRejectsUnencodable(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(nil, w, "gzip")

	err := p.PublishBatch(context.Background(), "t", []Message{
		{Value: "ok"},
		{Value: make(chan int)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message 1")
	assert.Empty(t, w.written)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := kafka.LeaderNotAvailable
	p := newProducer(nil, &fakeWriter{err: boom}, "gzip")

	err := p.Publish(context.Background(), "t", nil, []byte("raw"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestPublishEmptyBatchIsNoop(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(nil, w, "gzip")
	require.NoError(t, p.PublishBatch(context.Background(), "t", nil))
	assert.Empty(t, w.written)
}
