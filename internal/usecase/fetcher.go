package usecase

import (
	"context"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	"FinSignal/pkg/logger"
)

const (
	DefaultFetchAttempts = 3
	DefaultFetchDelay    = time.Second
)

// BarFetcher retries bar fetches with a fixed delay. Gaps in exchange data
// are routine, so exhaustion yields nil rather than an error.
type BarFetcher struct {
	md       drepo.MarketData
	attempts int
	delay    time.Duration
	logger   *logger.Logger
	metrics  drepo.Metrics
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewBarFetcher creates a fetcher; non-positive attempts/delay fall back to 3 x 1s.
func NewBarFetcher(md drepo.MarketData, attempts int, delay time.Duration, l *logger.Logger, m drepo.Metrics) *BarFetcher {
	if attempts <= 0 {
		attempts = DefaultFetchAttempts
	}
	if delay <= 0 {
		delay = DefaultFetchDelay
	}
	return &BarFetcher{md: md, attempts: attempts, delay: delay, logger: l, metrics: m, sleep: sleepCtx}
}

// FetchWithRetry returns newest-first bars, or nil once every attempt came back empty or failed.
func (f *BarFetcher) FetchWithRetry(ctx context.Context, symbol string, iv drepo.Interval, count int) []models.Bar {
	for attempt := 1; attempt <= f.attempts; attempt++ {
		start := time.Now()
		bars, err := f.md.FetchBars(ctx, symbol, iv, count)
		f.metrics.RecordLatency("fetch_bars", time.Since(start).Seconds())
		if err == nil && len(bars) > 0 {
			return bars
		}

		fields := []logger.Field{
			logger.String("symbol", symbol),
			logger.String("interval", iv.Label()),
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", f.attempts),
		}
		if err != nil {
			fields = append(fields, logger.Error(err))
		}
		f.logger.Warn("fetch bars failed", fields...)

		if attempt == f.attempts {
			break
		}
		if err := f.sleep(ctx, f.delay); err != nil {
			return nil
		}
	}
	f.metrics.RecordFetchFailure(iv.Label())
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
