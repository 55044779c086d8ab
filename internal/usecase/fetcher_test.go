package usecase

import (
	"context"
	"testing"
	"time"

	drepo "FinSignal/internal/domain/repository"

	"github.com/stretchr/testify/assert"
)

func TestFetchWithRetryFixedDelay(t *testing.T) {
	md := newFakeMarket()
	md.set("BTCUSDT", drepo.Interval5m, series(3, closeFlat))
	md.fail("BTCUSDT", drepo.Interval5m, 2)

	f := NewBarFetcher(md, 3, time.Second, nopLogger(), nopMetrics)
	rec := &sleepRecorder{}
	f.sleep = rec.sleep

	bars := f.FetchWithRetry(context.Background(), "BTCUSDT", drepo.Interval5m, 3)
	assert.Len(t, bars, 3)
	assert.Equal(t, 3, md.fetchCalls("BTCUSDT", drepo.Interval5m))
	assert.Equal(t, []time.Duration{time.Second, time.Second}, rec.durations())
}

func TestFetchWithRetryTreatsEmptyAsFailure(t *testing.T) {
	md := newFakeMarket()
	f := NewBarFetcher(md, 3, time.Second, nopLogger(), nopMetrics)
	rec := &sleepRecorder{}
	f.sleep = rec.sleep

	assert.Nil(t, f.FetchWithRetry(context.Background(), "ETHUSDT", drepo.Interval1h, 10))
	assert.Equal(t, 3, md.fetchCalls("ETHUSDT", drepo.Interval1h))
	assert.Len(t, rec.durations(), 2, "no sleep after the last attempt")
}

func TestFetchWithRetryStopsWhenContextEnds(t *testing.T) {
	md := newFakeMarket()
	md.fail("BTCUSDT", drepo.Interval5m, -1)
	f := NewBarFetcher(md, 3, time.Hour, nopLogger(), nopMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, f.FetchWithRetry(ctx, "BTCUSDT", drepo.Interval5m, 10))
	assert.Equal(t, 1, md.fetchCalls("BTCUSDT", drepo.Interval5m))
}

func TestNewBarFetcherDefaults(t *testing.T) {
	cases := []struct {
		name         string
		attempts     int
		delay        time.Duration
		wantAttempts int
		wantDelay    time.Duration
	}{
		{"negative", -2, -1, DefaultFetchAttempts, DefaultFetchDelay},
		{"zero", 0, 0, DefaultFetchAttempts, DefaultFetchDelay},
		{"explicit", 5, 250 * time.Millisecond, 5, 250 * time.Millisecond},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewBarFetcher(newFakeMarket(), tc.attempts, tc.delay, nopLogger(), nopMetrics)
			assert.Equal(t, tc.wantAttempts, f.attempts)
			assert.Equal(t, tc.wantDelay, f.delay)
		})
	}
}
