package usecase

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBudgetReserve(t *testing.T) {
	b := NewBudget(2)
	assert.True(t, b.Reserve())
	assert.False(t, b.CutOff())
	assert.True(t, b.Reserve())
	assert.False(t, b.CutOff(), "cutoff is set by the first caller that finds the budget spent")
	assert.False(t, b.Reserve())
	assert.True(t, b.CutOff())
	assert.False(t, b.Reserve())
	assert.Equal(t, 2, b.Sent())
}

func TestBudgetZeroLimit(t *testing.T) {
	b := NewBudget(0)
	assert.False(t, b.Reserve())
	assert.True(t, b.CutOff())
	assert.Zero(t, b.Sent())
}

func TestBudgetNeverExceedsLimitUnderRace(t *testing.T) {
	for _, limit := range []int{0, 1, 7, 100} {
		b := NewBudget(limit)
		var (
			wg      sync.WaitGroup
			granted atomic.Int64
		)
		for i := 0; i < 500; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if b.Reserve() {
					granted.Add(1)
				}
			}()
		}
		wg.Wait()

		want := limit
		if want > 500 {
			want = 500
		}
		assert.EqualValues(t, want, granted.Load())
		assert.Equal(t, want, b.Sent())
		assert.True(t, b.CutOff())
	}
}
