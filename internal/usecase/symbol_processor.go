package usecase

import (
	"context"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/domain/service"
	"FinSignal/pkg/logger"
)

// Enqueuer accepts a finished notification for delivery.
type Enqueuer interface {
	Push(n models.Notification)
}

// SymbolProcessor evaluates one instrument across the active intervals and
// enqueues at most one notification for it.
type SymbolProcessor struct {
	fetcher  *BarFetcher
	eval     service.Evaluator
	budget   *Budget
	out      Enqueuer
	barCount int
	logger   *logger.Logger
	metrics  drepo.Metrics
	now      func() time.Time
}

// NewSymbolProcessor wires a processor to the run's budget and queue.
func NewSymbolProcessor(
	fetcher *BarFetcher,
	eval service.Evaluator,
	budget *Budget,
	out Enqueuer,
	barCount int,
	l *logger.Logger,
	m drepo.Metrics,
) *SymbolProcessor {
	return &SymbolProcessor{
		fetcher:  fetcher,
		eval:     eval,
		budget:   budget,
		out:      out,
		barCount: barCount,
		logger:   l,
		metrics:  m,
		now:      time.Now,
	}
}

// Process returns true when a notification was enqueued.
func (p *SymbolProcessor) Process(ctx context.Context, symbol string, intervals []drepo.Interval) bool {
	if p.budget.CutOff() {
		return false
	}

	results := make([]models.IntervalResult, len(intervals))
	var wg sync.WaitGroup
	for i, iv := range intervals {
		i, iv := i, iv
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					p.metrics.RecordError("interval_panic")
					p.logger.Error("interval task panicked",
						logger.String("symbol", symbol),
						logger.String("interval", iv.Label()),
						logger.Any("panic", r),
					)
				}
			}()
			results[i] = p.evaluateInterval(ctx, symbol, iv)
		}()
	}
	wg.Wait()

	if p.budget.CutOff() {
		return false
	}
	outcome := BuildOutcome(symbol, results)
	if outcome.Empty() {
		return false
	}

	msg := FormatNotification(outcome, p.now())
	if !p.budget.Reserve() {
		p.metrics.RecordCutoff()
		p.logger.Info("message limit reached, skipping", logger.String("symbol", symbol))
		return false
	}

	p.out.Push(msg)
	p.metrics.RecordEnqueued()
	p.logger.Debug("notification enqueued",
		logger.String("symbol", symbol),
		logger.Strings("directions", msg.Directions),
	)
	return true
}

// evaluateInterval never fails; any problem yields a result without a direction.
func (p *SymbolProcessor) evaluateInterval(ctx context.Context, symbol string, iv drepo.Interval) models.IntervalResult {
	res := models.IntervalResult{Interval: iv.Label()}

	raw := p.fetcher.FetchWithRetry(ctx, symbol, iv, p.barCount)
	if len(raw) == 0 {
		p.logger.Warn("no bars, skipping interval",
			logger.String("symbol", symbol),
			logger.String("interval", iv.Label()),
		)
		return res
	}

	bars := closedOldestFirst(raw)
	if err := models.ValidateSeries(bars); err != nil {
		p.metrics.RecordError("malformed_bars")
		p.logger.Error("malformed bars, skipping interval",
			logger.String("symbol", symbol),
			logger.String("interval", iv.Label()),
			logger.Error(err),
		)
		return res
	}

	ev := p.eval.Evaluate(bars)
	if ev.Direction == models.DirectionNone {
		return res
	}
	p.metrics.RecordSignal(string(ev.Direction))

	res.Direction = ev.Direction
	res.Indicators = append([]models.Indicator(nil), ev.Indicators...)
	res.Patterns = append([]string(nil), ev.Patterns...)
	return res
}

// closedOldestFirst reverses exchange order and drops the newest bar, which is still forming.
func closedOldestFirst(newestFirst []models.Bar) []models.Bar {
	if len(newestFirst) == 0 {
		return nil
	}
	out := make([]models.Bar, 0, len(newestFirst)-1)
	for i := len(newestFirst) - 1; i >= 1; i-- {
		out = append(out, newestFirst[i])
	}
	return out
}
