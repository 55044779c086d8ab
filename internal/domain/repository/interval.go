package repository

import (
	"sort"
	"strings"
	"time"
)

// Interval is an exchange interval code such as "5" or "240".
type Interval string

const (
	Interval5m  Interval = "5"
	Interval15m Interval = "15"
	Interval30m Interval = "30"
	Interval1h  Interval = "60"
	Interval4h  Interval = "240"
	Interval12h Interval = "720"
)

var knownIntervals = map[Interval]struct {
	label string
	dur   time.Duration
}{
	Interval5m:  {"5m", 5 * time.Minute},
	Interval15m: {"15m", 15 * time.Minute},
	Interval30m: {"30m", 30 * time.Minute},
	Interval1h:  {"1h", time.Hour},
	Interval4h:  {"4h", 4 * time.Hour},
	Interval12h: {"12h", 12 * time.Hour},
}

// AllIntervals returns every supported interval in ascending duration.
func AllIntervals() []Interval {
	return []Interval{Interval5m, Interval15m, Interval30m, Interval1h, Interval4h, Interval12h}
}

// IsValidInterval returns true if iv is a supported interval code.
func IsValidInterval(iv Interval) bool {
	_, ok := knownIntervals[iv]
	return ok
}

// Label is the human form ("1h"); unknown codes are returned as-is.
func (iv Interval) Label() string {
	if k, ok := knownIntervals[iv]; ok {
		return k.label
	}
	return string(iv)
}

// Duration is zero for unknown codes.
func (iv Interval) Duration() time.Duration {
	return knownIntervals[iv].dur
}

// ParseIntervals converts raw codes, dropping blanks, duplicates and unsupported codes.
func ParseIntervals(codes []string) []Interval {
	seen := make(map[Interval]bool, len(codes))
	out := make([]Interval, 0, len(codes))
	for _, c := range codes {
		iv := Interval(strings.TrimSpace(c))
		if !IsValidInterval(iv) || seen[iv] {
			continue
		}
		seen[iv] = true
		out = append(out, iv)
	}
	return out
}

var labelDurations = func() map[string]time.Duration {
	m := make(map[string]time.Duration, len(knownIntervals))
	for _, k := range knownIntervals {
		m[k.label] = k.dur
	}
	return m
}()

// LessLabel orders interval labels by ascending duration; unknown labels sort last, by label.
func LessLabel(a, b string) bool {
	da, okA := labelDurations[a]
	db, okB := labelDurations[b]
	switch {
	case okA && okB:
		return da < db
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}

// ActiveIntervals returns the intervals due at now, restricted to configured.
// Coarser intervals only join on their natural boundary; manual returns every configured interval.
// The result keeps canonical order and is empty off the 5-minute grid.
func ActiveIntervals(now time.Time, configured []Interval, manual bool) []Interval {
	if manual {
		out := append([]Interval(nil), configured...)
		sort.SliceStable(out, func(i, j int) bool { return LessLabel(out[i].Label(), out[j].Label()) })
		return out
	}

	minute, hour := now.Minute(), now.Hour()
	var due []Interval
	switch {
	case minute == 0:
		due = []Interval{Interval5m, Interval15m, Interval30m, Interval1h}
		if hour%4 == 0 {
			due = append(due, Interval4h)
		}
		if hour%12 == 0 {
			due = append(due, Interval12h)
		}
	case minute%30 == 0:
		due = []Interval{Interval5m, Interval15m, Interval30m}
	case minute%15 == 0:
		due = []Interval{Interval5m, Interval15m}
	case minute%5 == 0:
		due = []Interval{Interval5m}
	default:
		return nil
	}

	allowed := make(map[Interval]bool, len(configured))
	for _, iv := range configured {
		allowed[iv] = true
	}
	out := make([]Interval, 0, len(due))
	for _, iv := range due {
		if allowed[iv] {
			out = append(out, iv)
		}
	}
	return out
}
