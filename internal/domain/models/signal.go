package models

import "time"

// Direction is the trading side an interval votes for.
type Direction string

const (
	DirectionNone  Direction = ""
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Indicator is one named value shown next to an interval in a notification.
type Indicator struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Evaluation is what the indicator evaluator derives from one bar sequence.
type Evaluation struct {
	Direction  Direction
	Indicators []Indicator
	Patterns   []string
}

// IntervalResult is produced once per (instrument, interval) and never mutated afterwards.
type IntervalResult struct {
	Interval   string      `json:"interval"`
	Direction  Direction   `json:"direction"`
	Indicators []Indicator `json:"indicators,omitempty"`
	Patterns   []string    `json:"patterns,omitempty"`
}

// SymbolOutcome groups one instrument's directional interval results.
type SymbolOutcome struct {
	Symbol  string
	Results map[Direction][]IntervalResult
}

// Empty reports whether no interval produced a direction.
func (o SymbolOutcome) Empty() bool {
	for _, rs := range o.Results {
		if len(rs) > 0 {
			return false
		}
	}
	return true
}

// Notification is a fully formatted message ready for delivery.
type Notification struct {
	Symbol     string    `json:"symbol"`
	Text       string    `json:"text"`
	Directions []string  `json:"directions"`
	CreatedAt  time.Time `json:"created_at"`
}
