package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/repository"
	"FinSignal/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingPipeline struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	started chan struct{}
}

func newBlockingPipeline() *blockingPipeline {
	return &blockingPipeline{release: make(chan struct{}), started: make(chan struct{}, 8)}
}

func (p *blockingPipeline) Run(ctx context.Context, opts models.RunOptions) (models.RunReport, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	p.started <- struct{}{}
	select {
	case <-p.release:
	case <-ctx.Done():
	}
	return models.RunReport{ID: "r1", Manual: opts.Manual}, nil
}

func TestRunnerRejectsOverlappingRuns(t *testing.T) {
	p := newBlockingPipeline()
	r := NewRunner(p, nil, nopLogger())

	require.NoError(t, r.Start(context.Background(), models.RunOptions{Manual: true}))
	<-p.started
	assert.True(t, r.Running())

	_, err := r.RunOnce(context.Background(), models.RunOptions{})
	assert.ErrorIs(t, err, models.ErrRunInProgress)
	assert.ErrorIs(t, r.Start(context.Background(), models.RunOptions{}), models.ErrRunInProgress)

	close(p.release)
	r.Wait()
	assert.False(t, r.Running())

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "r1", last.ID)
	assert.True(t, last.Manual)
}

func TestRunnerLockSlotAcrossReplicas(t *testing.T) {
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mc.Close()
	lock := repository.NewRunLock(mc, time.Minute)
	at := time.Date(2024, 1, 1, 10, 5, 30, 0, time.UTC)

	p := newBlockingPipeline()
	close(p.release)
	a := NewRunner(p, lock, nopLogger())
	b := NewRunner(p, lock, nopLogger())
	a.now = func() time.Time { return at }
	b.now = func() time.Time { return at }

	_, err := a.RunOnce(context.Background(), models.RunOptions{})
	require.NoError(t, err)
	_, err = b.RunOnce(context.Background(), models.RunOptions{})
	assert.ErrorIs(t, err, models.ErrRunInProgress, "scheduled slot stays locked after the run")

	_, err = b.RunOnce(context.Background(), models.RunOptions{Manual: true})
	require.NoError(t, err)
	_, err = a.RunOnce(context.Background(), models.RunOptions{Manual: true})
	assert.NoError(t, err, "manual runs release their lock")
	assert.Equal(t, 3, p.calls)
}

func TestRunnerLastEmpty(t *testing.T) {
	_, ok := NewRunner(newBlockingPipeline(), nil, nopLogger()).Last()
	assert.False(t, ok)
}

func TestRunnerScheduleStopsWithContext(t *testing.T) {
	r := NewRunner(newBlockingPipeline(), nil, nopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Schedule(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("schedule did not stop")
	}
}
