package usecase

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/semaphore"
)

const DefaultMaxConcurrentTasks = 50

// Gate bounds how many symbol processors run at once.
type Gate struct {
	sem *semaphore.Weighted
}

func NewGate(size int) *Gate {
	if size <= 0 {
		size = DefaultMaxConcurrentTasks
	}
	return &Gate{sem: semaphore.NewWeighted(int64(size))}
}

// PanicError carries a recovered panic out of a gated task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Run blocks for a permit, runs fn and always gives the permit back.
// A panic in fn is recovered and returned as *PanicError.
func (g *Gate) Run(ctx context.Context, fn func(ctx context.Context)) (err error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire gate: %w", err)
	}
	defer g.sem.Release(1)
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	fn(ctx)
	return nil
}
