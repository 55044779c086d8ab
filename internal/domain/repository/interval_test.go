package repository

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 1, hour, minute, 0, 0, time.UTC)
}

func TestActiveIntervalsLadder(t *testing.T) {
	all := AllIntervals()
	tests := []struct {
		name string
		now  time.Time
		want []Interval
	}{
		{"off grid", at(10, 7), nil},
		{"five", at(10, 5), []Interval{Interval5m}},
		{"fifteen", at(10, 45), []Interval{Interval5m, Interval15m}},
		{"thirty", at(10, 30), []Interval{Interval5m, Interval15m, Interval30m}},
		{"hour", at(10, 0), []Interval{Interval5m, Interval15m, Interval30m, Interval1h}},
		{"four hours", at(8, 0), []Interval{Interval5m, Interval15m, Interval30m, Interval1h, Interval4h}},
		{"twelve hours", at(12, 0), all},
		{"midnight", at(0, 0), all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActiveIntervals(tt.now, all, false)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActiveIntervalsFiltersConfigured(t *testing.T) {
	got := ActiveIntervals(at(12, 0), []Interval{Interval1h, Interval12h}, false)
	assert.Equal(t, []Interval{Interval1h, Interval12h}, got)

	got = ActiveIntervals(at(10, 30), []Interval{Interval1h}, false)
	assert.Empty(t, got)
}

func TestActiveIntervalsManual(t *testing.T) {
	got := ActiveIntervals(at(10, 7), []Interval{Interval4h, Interval5m}, true)
	assert.Equal(t, []Interval{Interval5m, Interval4h}, got)
}

func TestActiveIntervalsDeterministic(t *testing.T) {
	now := at(16, 0)
	first := ActiveIntervals(now, AllIntervals(), false)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ActiveIntervals(now.Add(30*time.Second), AllIntervals(), false))
	}
}

func TestLessLabelOrdering(t *testing.T) {
	labels := []string{"12h", "weird", "5m", "1h", "abc", "15m"}
	sort.SliceStable(labels, func(i, j int) bool { return LessLabel(labels[i], labels[j]) })
	assert.Equal(t, []string{"5m", "15m", "1h", "12h", "abc", "weird"}, labels)
}

func TestIntervalLabel(t *testing.T) {
	assert.Equal(t, "4h", Interval4h.Label())
	assert.Equal(t, "1440", Interval("1440").Label())
	assert.False(t, IsValidInterval("1440"))
	assert.Equal(t, []Interval{"5", "60"}, ParseIntervals([]string{"5", " 60", "5", "", "1440", "1"}))
}
