package usecase

import "sync"

// Budget caps how many notifications one run may enqueue.
// Once exhausted it stays cut off for the rest of the run.
type Budget struct {
	mu     sync.Mutex
	limit  int
	sent   int
	cutoff bool
}

// NewBudget creates a budget for a single run.
func NewBudget(limit int) *Budget {
	if limit < 0 {
		limit = 0
	}
	return &Budget{limit: limit}
}

// Reserve takes one unit if any is left. The first caller that finds the
// budget exhausted flips it to cut off.
func (b *Budget) Reserve() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cutoff {
		return false
	}
	if b.sent < b.limit {
		b.sent++
		return true
	}
	b.cutoff = true
	return false
}

// CutOff is an advisory early-exit check; Reserve is authoritative.
func (b *Budget) CutOff() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cutoff
}

// Sent returns how many units were reserved.
func (b *Budget) Sent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}
