// Package ta holds the indicator math used by the signal rules.
package ta

import (
	"github.com/markcheno/go-talib"
)

// MACDResult is the last point of the MACD, signal and histogram series.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD computes the moving-average convergence/divergence of closes with
// SMA-seeded EMAs. ok is false when there are fewer than slow+signal closes.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, bool) {
	if fast <= 0 || slow <= fast || signal <= 0 || len(closes) < slow+signal {
		return MACDResult{}, false
	}

	emaFast := talib.Ema(closes, fast)
	emaSlow := talib.Ema(closes, slow)

	// talib zero-fills the lookback, so the line is only defined from slow-1 on.
	line := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		line = append(line, emaFast[i]-emaSlow[i])
	}

	sig := talib.Ema(line, signal)
	last := line[len(line)-1]
	lastSig := sig[len(sig)-1]
	return MACDResult{MACD: last, Signal: lastSig, Histogram: last - lastSig}, true
}

// StochasticResult is the latest %K and its %D smoothing.
type StochasticResult struct {
	K float64
	D float64
}

// Stochastic computes the fast stochastic oscillator over the last k+d-1 bars.
// A flat window (highest high equals lowest low) yields %K = 0.
func Stochastic(high, low, close []float64, k, d int) (StochasticResult, bool) {
	n := len(close)
	needed := k + d - 1
	if k <= 0 || d <= 0 || n < needed || len(high) != n || len(low) != n {
		return StochasticResult{}, false
	}

	high, low, close = high[n-needed:], low[n-needed:], close[n-needed:]
	hh, ll := high, low
	if k > 1 {
		hh = talib.Max(high, k)
		ll = talib.Min(low, k)
	}

	percentK := make([]float64, 0, d)
	for i := k - 1; i < needed; i++ {
		rng := hh[i] - ll[i]
		if rng == 0 {
			percentK = append(percentK, 0)
			continue
		}
		percentK = append(percentK, (close[i]-ll[i])/rng*100)
	}

	var sum float64
	for _, v := range percentK {
		sum += v
	}
	return StochasticResult{K: percentK[len(percentK)-1], D: sum / float64(d)}, true
}
