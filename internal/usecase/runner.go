package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	"FinSignal/pkg/logger"
)

// Pipeline runs one pass of the signal pipeline.
type Pipeline interface {
	Run(ctx context.Context, opts models.RunOptions) (models.RunReport, error)
}

// Runner serialises pipeline runs and drives the minute schedule.
// Runs never overlap in-process; the optional RunLock extends that across replicas.
type Runner struct {
	pipeline Pipeline
	lock     drepo.RunLock
	logger   *logger.Logger

	running atomic.Bool
	wg      sync.WaitGroup

	mu   sync.RWMutex
	last *models.RunReport

	now func() time.Time
}

// NewRunner creates a runner; lock may be nil.
func NewRunner(p Pipeline, lock drepo.RunLock, l *logger.Logger) *Runner {
	return &Runner{pipeline: p, lock: lock, logger: l, now: time.Now}
}

// RunOnce runs synchronously. It returns models.ErrRunInProgress if another run holds the slot.
func (r *Runner) RunOnce(ctx context.Context, opts models.RunOptions) (models.RunReport, error) {
	release, err := r.acquire(ctx, opts)
	if err != nil {
		return models.RunReport{}, err
	}
	defer release()
	return r.execute(ctx, opts)
}

// Start runs in the background. ctx must outlive the run.
func (r *Runner) Start(ctx context.Context, opts models.RunOptions) error {
	release, err := r.acquire(ctx, opts)
	if err != nil {
		return err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer release()
		_, _ = r.execute(ctx, opts)
	}()
	return nil
}

// Running reports whether a run is in flight in this process.
func (r *Runner) Running() bool { return r.running.Load() }

// Last returns the most recent finished run.
func (r *Runner) Last() (models.RunReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return models.RunReport{}, false
	}
	return *r.last, true
}

// Schedule starts a run at every minute boundary until ctx ends, then waits for
// the run in flight. A tick that finds a run still going is skipped.
func (r *Runner) Schedule(ctx context.Context) {
	defer r.wg.Wait()
	for {
		now := r.now()
		next := now.Truncate(time.Minute).Add(time.Minute)
		t := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}

		if err := r.Start(ctx, models.RunOptions{}); err != nil {
			r.logger.Warn("scheduled run skipped", logger.Error(err))
		}
	}
}

// Wait blocks until background runs finish.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) acquire(ctx context.Context, opts models.RunOptions) (func(), error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, models.ErrRunInProgress
	}
	if r.lock == nil {
		return func() { r.running.Store(false) }, nil
	}

	// Scheduled runs lock their minute slot and let the key expire so a peer
	// replica cannot repeat the same slot; manual runs release on completion.
	key := "run:" + r.now().UTC().Truncate(time.Minute).Format("200601021504")
	if opts.Manual {
		key = "run:manual"
	}
	ok, err := r.lock.TryLock(ctx, key)
	switch {
	case err != nil:
		r.logger.Warn("run lock unavailable, continuing with local guard", logger.Error(err))
	case !ok:
		r.running.Store(false)
		return nil, models.ErrRunInProgress
	}

	return func() {
		if opts.Manual && err == nil {
			if uerr := r.lock.Unlock(context.WithoutCancel(ctx), key); uerr != nil {
				r.logger.Warn("run unlock failed", logger.String("key", key), logger.Error(uerr))
			}
		}
		r.running.Store(false)
	}, nil
}

func (r *Runner) execute(ctx context.Context, opts models.RunOptions) (models.RunReport, error) {
	report, err := r.pipeline.Run(ctx, opts)
	if err != nil {
		r.logger.Error("run failed", logger.String("run_id", report.ID), logger.Error(err))
	}
	r.mu.Lock()
	r.last = &report
	r.mu.Unlock()
	return report, err
}
