package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/domain/service"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/pkg/logger"
	"FinSignal/pkg/queue"

	"github.com/google/uuid"
)

// EmptyUniverseText is sent once when a run finds nothing to process.
const EmptyUniverseText = "❌ Instrument list is empty."

// OrchestratorConfig carries the per-run limits.
type OrchestratorConfig struct {
	MessageLimit       int
	MessageRateLimit   int
	MaxConcurrentTasks int
	MaxWorkers         int
	ManualRun          bool
	Intervals          []string
	Exclude            []string
	BarCount           int
	FetchAttempts      int
	FetchDelay         time.Duration
	SendAttempts       int
	SendBaseDelay      time.Duration
}

// Orchestrator performs one complete pipeline run: interval selection, universe
// listing, gated fan-out over instruments and an ordered dispatcher shutdown.
type Orchestrator struct {
	cfg      OrchestratorConfig
	market   drepo.MarketData
	notifier drepo.Notifier
	eval     service.Evaluator
	universe drepo.UniverseCache
	logger   *logger.Logger
	metrics  drepo.Metrics

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator creates an orchestrator. universe may be nil.
func NewOrchestrator(
	cfg OrchestratorConfig,
	market drepo.MarketData,
	notifier drepo.Notifier,
	eval service.Evaluator,
	universe drepo.UniverseCache,
	l *logger.Logger,
	m drepo.Metrics,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		market:   market,
		notifier: notifier,
		eval:     eval,
		universe: universe,
		logger:   l,
		metrics:  m,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Run executes one pipeline run. It returns models.ErrEmptyUniverse when no
// instrument survives listing and exclusion; every other failure is contained
// inside the run and only shows up in the report counters.
func (o *Orchestrator) Run(ctx context.Context, opts models.RunOptions) (models.RunReport, error) {
	started := o.now()
	manual := opts.Manual || o.cfg.ManualRun
	report := models.RunReport{
		ID:        uuid.NewString(),
		StartedAt: started,
		Manual:    manual,
	}
	log := o.logger.With(logger.String("run_id", report.ID))

	codes := o.cfg.Intervals
	if len(opts.Intervals) > 0 {
		codes = opts.Intervals
	}
	configured := drepo.ParseIntervals(codes)
	if len(configured) == 0 {
		configured = drepo.AllIntervals()
	}
	active := drepo.ActiveIntervals(started.UTC(), configured, manual)
	for _, iv := range active {
		report.Intervals = append(report.Intervals, iv.Label())
	}
	if len(active) == 0 {
		log.Debug("no intervals due this minute", logger.String("time", started.UTC().Format("15:04")))
		return o.finish(report, nil), nil
	}

	window := ratelimit.NewWindow(o.cfg.MessageRateLimit)
	q := queue.New[models.Notification]()
	dispatcher := NewDispatcher(q, o.notifier, window, log, o.metrics,
		WithWorkers(o.cfg.MaxWorkers),
		WithSendRetry(o.cfg.SendAttempts, o.cfg.SendBaseDelay),
	)
	dispatcher.sleep = o.sleep

	symbols := opts.Symbols
	if len(symbols) == 0 {
		symbols = o.loadUniverse(ctx, log)
	}
	symbols = applyExclusions(symbols, o.cfg.Exclude)
	report.Instruments = len(symbols)

	if len(symbols) == 0 {
		log.Error("instrument universe is empty")
		o.notifyEmptyUniverse(ctx, dispatcher, window, log)
		return o.finish(report, models.ErrEmptyUniverse), models.ErrEmptyUniverse
	}

	log.Info("run started",
		logger.Bool("manual", manual),
		logger.Strings("intervals", report.Intervals),
		logger.Int("instruments", len(symbols)),
		logger.Int("message_limit", o.cfg.MessageLimit),
	)

	budget := NewBudget(o.cfg.MessageLimit)
	fetcher := NewBarFetcher(o.market, o.cfg.FetchAttempts, o.cfg.FetchDelay, log, o.metrics)
	fetcher.sleep = o.sleep
	proc := NewSymbolProcessor(fetcher, o.eval, budget, q, o.cfg.BarCount, log, o.metrics)
	proc.now = o.now
	gate := NewGate(o.cfg.MaxConcurrentTasks)

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		dispatcher.Run(ctx)
	}()

	var wg sync.WaitGroup
	for _, symbol := range symbols {
		symbol := symbol
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := gate.Run(ctx, func(ctx context.Context) {
				proc.Process(ctx, symbol, active)
			})
			var pe *PanicError
			switch {
			case errors.As(err, &pe):
				o.metrics.RecordError("symbol_panic")
				log.Error("symbol processor panicked",
					logger.String("symbol", symbol),
					logger.Any("panic", pe.Value),
					logger.String("stack", string(pe.Stack)),
				)
			case err != nil:
				log.Debug("symbol not started", logger.String("symbol", symbol), logger.Error(err))
			}
		}()
	}
	wg.Wait()

	for i := 0; i < dispatcher.Workers(); i++ {
		q.PushSentinel()
	}
	<-dispatched

	report.Enqueued = budget.Sent()
	report.CutOff = budget.CutOff()
	report.Delivered = dispatcher.Delivered()
	report.Dropped = dispatcher.Dropped()
	report = o.finish(report, nil)

	log.Info("run finished",
		logger.Int("enqueued", report.Enqueued),
		logger.Int("delivered", report.Delivered),
		logger.Int("dropped", report.Dropped),
		logger.Bool("cut_off", report.CutOff),
		logger.Duration("duration_ms", report.Duration),
	)
	return report, nil
}

func (o *Orchestrator) finish(r models.RunReport, err error) models.RunReport {
	r.FinishedAt = o.now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
	if err != nil {
		r.Error = err.Error()
	}
	o.metrics.RecordLatency("run", r.Duration.Seconds())
	return r
}

// loadUniverse prefers the cache; a listing failure is treated as an empty universe.
func (o *Orchestrator) loadUniverse(ctx context.Context, log *logger.Logger) []string {
	if o.universe != nil {
		if symbols, ok := o.universe.GetUniverse(ctx); ok {
			log.Debug("instrument universe from cache", logger.Int("count", len(symbols)))
			return symbols
		}
	}

	start := time.Now()
	symbols, err := o.market.ListInstruments(ctx)
	o.metrics.RecordLatency("list_instruments", time.Since(start).Seconds())
	if err != nil {
		o.metrics.RecordError("list_instruments")
		log.Error("list instruments failed", logger.Error(err))
		return nil
	}
	if o.universe != nil {
		o.universe.SetUniverse(ctx, symbols)
	}
	return symbols
}

func (o *Orchestrator) notifyEmptyUniverse(ctx context.Context, d *Dispatcher, w *ratelimit.Window, log *logger.Logger) {
	res, err := w.Reserve(ctx)
	if err != nil {
		return
	}
	if err := d.Send(ctx, EmptyUniverseText); err != nil {
		res.Cancel()
		log.Error("empty universe notification failed", logger.Error(err))
		return
	}
	res.Commit()
}

// applyExclusions drops excluded symbols (case-insensitive), blanks and duplicates, keeping order.
func applyExclusions(symbols, exclude []string) []string {
	deny := make(map[string]bool, len(exclude))
	for _, s := range exclude {
		deny[strings.ToUpper(strings.TrimSpace(s))] = true
	}
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		key := strings.ToUpper(strings.TrimSpace(s))
		if key == "" || deny[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
