package models

import (
	"fmt"
	"math"
	"time"
)

// Bar is one OHLCV candle.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Validate reports a malformed bar: non-finite numbers, a missing timestamp, or an impossible range.
func (b Bar) Validate() error {
	if b.Timestamp.IsZero() {
		return fmt.Errorf("bar has no timestamp")
	}
	for name, v := range map[string]float64{
		"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close, "volume": b.Volume,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bar %s: %s is not finite", b.Timestamp.Format(time.RFC3339), name)
		}
	}
	if b.High < b.Low {
		return fmt.Errorf("bar %s: high %v below low %v", b.Timestamp.Format(time.RFC3339), b.High, b.Low)
	}
	return nil
}

// Body is close minus open; positive for a bullish candle.
func (b Bar) Body() float64 { return b.Close - b.Open }

// ValidateSeries checks every bar and that timestamps strictly increase.
func ValidateSeries(bars []Bar) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("bar %d: timestamp %s not after %s", i,
				b.Timestamp.Format(time.RFC3339), bars[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// Closes extracts close prices in order.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
