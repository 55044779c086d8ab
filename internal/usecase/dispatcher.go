package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/pkg/logger"
	"FinSignal/pkg/queue"
)

const (
	DefaultWorkers       = 15
	DefaultSendAttempts  = 5
	DefaultSendBaseDelay = time.Second
)

// DispatcherOption configures Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithWorkers sets how many workers drain the queue.
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithSendRetry sets attempts and the first backoff delay, which doubles per transient failure.
func WithSendRetry(attempts int, base time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if attempts > 0 {
			d.attempts = attempts
		}
		if base >= 0 {
			d.baseDelay = base
		}
	}
}

// Dispatcher drains the delivery queue through a shared rate window.
type Dispatcher struct {
	queue     *queue.Queue[models.Notification]
	notifier  drepo.Notifier
	window    *ratelimit.Window
	workers   int
	attempts  int
	baseDelay time.Duration
	logger    *logger.Logger
	metrics   drepo.Metrics
	sleep     func(ctx context.Context, d time.Duration) error

	delivered atomic.Int64
	dropped   atomic.Int64
}

// NewDispatcher creates a dispatcher. The window must be shared by every worker.
func NewDispatcher(
	q *queue.Queue[models.Notification],
	n drepo.Notifier,
	w *ratelimit.Window,
	l *logger.Logger,
	m drepo.Metrics,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		queue:     q,
		notifier:  n,
		window:    w,
		workers:   DefaultWorkers,
		attempts:  DefaultSendAttempts,
		baseDelay: DefaultSendBaseDelay,
		logger:    l,
		metrics:   m,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Workers is the number of sentinels the producer side must enqueue.
func (d *Dispatcher) Workers() int { return d.workers }

// Delivered and Dropped count outcomes so far.
func (d *Dispatcher) Delivered() int { return int(d.delivered.Load()) }
func (d *Dispatcher) Dropped() int   { return int(d.dropped.Load()) }

// Run starts the workers and blocks until each has consumed a sentinel or ctx ends.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.worker(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	for {
		it, err := d.queue.Pop(ctx)
		if err != nil {
			d.logger.Warn("dispatcher worker stopped", logger.Int("worker", id), logger.Error(err))
			return
		}
		if it.Sentinel {
			d.logger.Debug("dispatcher worker finished", logger.Int("worker", id))
			return
		}
		d.deliver(ctx, it.Value)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg models.Notification) {
	res, err := d.window.Reserve(ctx)
	if err != nil {
		d.dropped.Add(1)
		d.metrics.RecordDelivery("dropped")
		d.logger.Error("rate window wait aborted", logger.String("symbol", msg.Symbol), logger.Error(err))
		return
	}
	if res.Waited > 0 {
		d.logger.Info("message rate limit reached, waited", logger.Duration("waited_ms", res.Waited))
	}

	if err := d.Send(ctx, msg.Text); err != nil {
		res.Cancel()
		d.dropped.Add(1)
		d.metrics.RecordDelivery("dropped")
		d.logger.Error("message dropped", logger.String("symbol", msg.Symbol), logger.Error(err))
		return
	}
	res.Commit()
	d.delivered.Add(1)
	d.metrics.RecordDelivery("delivered")
	d.logger.Info("message sent", logger.String("symbol", msg.Symbol))
}

// Send delivers text with exponential backoff on transient failures. A
// retry-after answer is honoured exactly and a permanent failure is not retried.
func (d *Dispatcher) Send(ctx context.Context, text string) error {
	delay := d.baseDelay
	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		err := d.notifier.Send(ctx, text)
		if err == nil {
			d.metrics.RecordSendAttempt("ok")
			return nil
		}
		lastErr = err

		var wait time.Duration
		var ra *models.RetryAfterError
		switch {
		case errors.As(err, &ra):
			d.metrics.RecordSendAttempt("retry_after")
			wait = ra.After
		case errors.Is(err, models.ErrPermanent):
			d.metrics.RecordSendAttempt("permanent")
			return err
		default:
			d.metrics.RecordSendAttempt("transient")
			wait = delay
			delay *= 2
		}

		if attempt == d.attempts {
			break
		}
		d.logger.Warn("send failed, retrying",
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", d.attempts),
			logger.Duration("wait_ms", wait),
			logger.Error(err),
		)
		if err := d.sleep(ctx, wait); err != nil {
			return fmt.Errorf("send aborted: %w", err)
		}
	}
	return fmt.Errorf("send failed after %d attempts: %w", d.attempts, lastErr)
}
