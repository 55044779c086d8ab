package analytics

import (
	"math"

	"FinSignal/internal/domain/models"
)

const (
	RuleHammer = "hammer"

	hammerWindow = 4
)

// Hammer detects a hammer after a decline (LONG) or an inverted hammer after
// a rally (SHORT) on the newest of the last four closed bars.
type Hammer struct{}

func (Hammer) Name() string { return RuleHammer }

func (Hammer) Apply(bars []models.Bar) (models.Direction, []models.Indicator) {
	if len(bars) < hammerWindow {
		return models.DirectionNone, nil
	}
	window := bars[len(bars)-hammerWindow:]
	candle := window[len(window)-1]
	before := window[:len(window)-1]

	body := math.Abs(candle.Body())
	lowerWick := math.Min(candle.Open, candle.Close) - candle.Low
	upperWick := candle.High - math.Max(candle.Open, candle.Close)

	first, last := window[0].Open, candle.Close
	switch {
	case last < first:
		lowest := before[0].Low
		for _, b := range before[1:] {
			lowest = math.Min(lowest, b.Low)
		}
		if lowerWick > 2*body && upperWick < body && candle.Low < lowest && lowerWick > 0 {
			return models.DirectionLong, nil
		}
	case last > first:
		highest := before[0].High
		for _, b := range before[1:] {
			highest = math.Max(highest, b.High)
		}
		if upperWick > 2*body && lowerWick < body && candle.High > highest && upperWick > 0 {
			return models.DirectionShort, nil
		}
	}
	return models.DirectionNone, nil
}
