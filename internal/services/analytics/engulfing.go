package analytics

import "FinSignal/internal/domain/models"

const RuleEngulfing = "engulfing"

// Engulfing looks at the last two bars only.
type Engulfing struct{}

func (Engulfing) Name() string { return RuleEngulfing }

func (Engulfing) Apply(bars []models.Bar) (models.Direction, []models.Indicator) {
	if len(bars) < 2 {
		return models.DirectionNone, nil
	}
	prev, last := bars[len(bars)-2], bars[len(bars)-1]

	switch {
	case prev.Body() < 0 && last.Body() > 0 && last.Open <= prev.Close && last.Close > prev.Open:
		return models.DirectionLong, nil
	case prev.Body() > 0 && last.Body() < 0 && last.Open >= prev.Close && last.Close < prev.Open:
		return models.DirectionShort, nil
	}
	return models.DirectionNone, nil
}
