package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is a sliding-window send limiter shared by every dispatcher worker.
// At any instant the sends recorded in the last span plus the reservations
// still in flight never exceed limit.
type Window struct {
	mu      sync.Mutex
	limit   int
	span    time.Duration
	sent    []time.Time
	pending int
	changed chan struct{}
	now     func() time.Time
}

// WindowOption configures Window.
type WindowOption func(*Window)

// WithSpan overrides the 60s window length.
func WithSpan(d time.Duration) WindowOption {
	return func(w *Window) { w.span = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) WindowOption {
	return func(w *Window) { w.now = now }
}

// NewWindow allows at most limit sends per minute.
func NewWindow(limit int, opts ...WindowOption) *Window {
	if limit <= 0 {
		limit = 1
	}
	w := &Window{
		limit:   limit,
		span:    time.Minute,
		changed: make(chan struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Reservation holds one send slot until it is committed or cancelled.
type Reservation struct {
	w      *Window
	once   sync.Once
	Waited time.Duration
}

// Reserve blocks until a slot is free. The wait is the time left until the
// oldest recorded send leaves the window.
func (w *Window) Reserve(ctx context.Context) (*Reservation, error) {
	start := w.now()
	for {
		w.mu.Lock()
		now := w.now()
		w.prune(now)
		if len(w.sent)+w.pending < w.limit {
			w.pending++
			w.mu.Unlock()
			return &Reservation{w: w, Waited: now.Sub(start)}, nil
		}
		var wait time.Duration = -1
		if len(w.sent) > 0 {
			wait = w.sent[0].Add(w.span).Sub(now)
		}
		changed := w.changed
		w.mu.Unlock()

		var (
			timer  *time.Timer
			expire <-chan time.Time
		)
		if wait >= 0 {
			timer = time.NewTimer(wait)
			expire = timer.C
		}
		select {
		case <-expire:
		case <-changed:
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil, ctx.Err()
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Commit records a successful send at the current time.
func (r *Reservation) Commit() {
	r.once.Do(func() {
		w := r.w
		w.mu.Lock()
		w.pending--
		w.sent = append(w.sent, w.now())
		// waiters blocked only on pending slots now have an expiry to sleep on
		w.broadcast()
		w.mu.Unlock()
	})
}

// Cancel frees the slot without recording a send.
func (r *Reservation) Cancel() {
	r.once.Do(func() {
		w := r.w
		w.mu.Lock()
		w.pending--
		w.broadcast()
		w.mu.Unlock()
	})
}

// Sent returns the send times still inside the window.
func (w *Window) Sent() []time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.now())
	return append([]time.Time(nil), w.sent...)
}

// broadcast wakes every Reserve waiter; callers hold mu.
func (w *Window) broadcast() {
	close(w.changed)
	w.changed = make(chan struct{})
}

func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.sent) && !w.sent[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.sent = append(w.sent[:0], w.sent[i:]...)
	}
}
