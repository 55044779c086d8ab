package usecase

import (
	"testing"
	"time"

	"FinSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildOutcomeCanonicalOrder(t *testing.T) {
	o := BuildOutcome("XRPUSDT", []models.IntervalResult{
		{Interval: "12h", Direction: models.DirectionLong},
		{Interval: "weird", Direction: models.DirectionLong},
		{Interval: "5m", Direction: models.DirectionLong},
		{Interval: "1h"},
		{Interval: "4h", Direction: models.DirectionLong},
	})

	var labels []string
	for _, r := range o.Results[models.DirectionLong] {
		labels = append(labels, r.Interval)
	}
	assert.Equal(t, []string{"5m", "4h", "12h", "weird"}, labels)
	assert.Empty(t, o.Results[models.DirectionShort])
	assert.False(t, o.Empty())
}

func TestFormatNotificationIsASnapshot(t *testing.T) {
	o := BuildOutcome("ADAUSDT", []models.IntervalResult{{
		Interval:   "30m",
		Direction:  models.DirectionShort,
		Indicators: []models.Indicator{{Name: "%K", Value: 95.456}, {Name: "MACD", Value: -0.00000123}},
	}})
	at := time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)
	n := FormatNotification(o, at)

	o.Results[models.DirectionShort][0].Interval = "changed"
	assert.Equal(t, "🔥 #ADAUSDT\n🕒 30m\n🔴 SHORT\n30m: %K=95.46 MACD=-0.000001\n", n.Text)
	assert.Equal(t, at, n.CreatedAt)
	assert.Equal(t, []string{"SHORT"}, n.Directions)
}
