package queue

import (
	"context"
	"sync"
)

// Item is either a message or the end-of-work sentinel.
type Item[T any] struct {
	Value    T
	Sentinel bool
}

// Queue is an unbounded in-process FIFO safe for many producers and consumers.
// Push never blocks; Pop blocks until an item arrives or ctx is done.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []Item[T]
	notify chan struct{}
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{notify: make(chan struct{}, 1)}
}

// Push appends a message.
func (q *Queue[T]) Push(v T) {
	q.put(Item[T]{Value: v})
}

// PushSentinel appends one end-of-work marker. Enqueue one per consumer.
func (q *Queue[T]) PushSentinel() {
	q.put(Item[T]{Sentinel: true})
}

func (q *Queue[T]) put(it Item[T]) {
	q.mu.Lock()
	q.items = append(q.items, it)
	q.mu.Unlock()
	q.signal()
}

// Pop removes the oldest item.
func (q *Queue[T]) Pop(ctx context.Context) (Item[T], error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			it := q.items[0]
			var zero Item[T]
			q.items[0] = zero
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				// a single wake-up token may stand in for several pushes
				q.signal()
			}
			return it, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			var zero Item[T]
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of queued items, sentinels included.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
