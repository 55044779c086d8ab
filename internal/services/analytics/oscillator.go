package analytics

import (
	"FinSignal/internal/domain/models"
	"FinSignal/pkg/ta"
)

const RuleStochMACD = "stoch_macd"

// StochMACD goes LONG when %K is oversold while MACD is positive, SHORT when
// %K is overbought while MACD is negative.
type StochMACD struct {
	p Params
}

func NewStochMACD(p Params) StochMACD { return StochMACD{p: p} }

func (StochMACD) Name() string { return RuleStochMACD }

func (r StochMACD) Apply(bars []models.Bar) (models.Direction, []models.Indicator) {
	close := models.Closes(bars)
	high, low := make([]float64, len(bars)), make([]float64, len(bars))
	for i, b := range bars {
		high[i], low[i] = b.High, b.Low
	}

	var ind []models.Indicator
	st, stOK := ta.Stochastic(high, low, close, r.p.KPeriod, r.p.DPeriod)
	if stOK {
		ind = append(ind, models.Indicator{Name: "%K", Value: st.K}, models.Indicator{Name: "%D", Value: st.D})
	}
	m, mOK := ta.MACD(close, r.p.FastPeriod, r.p.SlowPeriod, r.p.SignalPeriod)
	if mOK {
		ind = append(ind, models.Indicator{Name: "MACD", Value: m.MACD})
	}
	if !stOK || !mOK {
		return models.DirectionNone, ind
	}

	switch {
	case st.K < r.p.Oversold && m.MACD > 0:
		return models.DirectionLong, ind
	case st.K > r.p.Overbought && m.MACD < 0:
		return models.DirectionShort, ind
	}
	return models.DirectionNone, ind
}
