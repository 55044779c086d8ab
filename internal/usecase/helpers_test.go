package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	"FinSignal/pkg/logger"
	"FinSignal/pkg/metrics"
)

var errUpstream = errors.New("upstream unavailable")

// closeLong and closeShort tag synthetic bars so closeEvaluator can read the intended direction.
const (
	closeFlat  = 100
	closeLong  = 101
	closeShort = 99
)

// series returns n newest-first bars sharing one close.
func series(n int, close float64) []models.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Bar, n)
	for i := range out {
		out[i] = models.Bar{
			Timestamp: base.Add(time.Duration(n-i) * time.Minute),
			Open:      close, High: close + 1, Low: close - 1, Close: close, Volume: 10,
		}
	}
	return out
}

type closeEvaluator struct{}

func (closeEvaluator) Evaluate(bars []models.Bar) models.Evaluation {
	if len(bars) < 2 {
		return models.Evaluation{}
	}
	last := bars[len(bars)-1]
	switch last.Close {
	case closeLong:
		return models.Evaluation{
			Direction:  models.DirectionLong,
			Indicators: []models.Indicator{{Name: "%K", Value: 5.2}, {Name: "MACD", Value: 0.0123}},
		}
	case closeShort:
		return models.Evaluation{Direction: models.DirectionShort, Patterns: []string{"engulfing"}}
	}
	return models.Evaluation{}
}

type fakeMarket struct {
	mu       sync.Mutex
	symbols  []string
	listErr  error
	bars     map[string][]models.Bar
	failures map[string]int
	calls    map[string]int
	lists    int
}

func newFakeMarket(symbols ...string) *fakeMarket {
	return &fakeMarket{
		symbols:  symbols,
		bars:     make(map[string][]models.Bar),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func barKey(symbol string, iv drepo.Interval) string { return symbol + "/" + string(iv) }

func (f *fakeMarket) set(symbol string, iv drepo.Interval, bars []models.Bar) {
	f.bars[barKey(symbol, iv)] = bars
}

// fail makes the next n fetches for symbol/iv return an error; n < 0 fails forever.
func (f *fakeMarket) fail(symbol string, iv drepo.Interval, n int) {
	f.failures[barKey(symbol, iv)] = n
}

func (f *fakeMarket) fetchCalls(symbol string, iv drepo.Interval) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[barKey(symbol, iv)]
}

func (f *fakeMarket) ListInstruments(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]string(nil), f.symbols...), f.listErr
}

func (f *fakeMarket) FetchBars(_ context.Context, symbol string, iv drepo.Interval, _ int) ([]models.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := barKey(symbol, iv)
	f.calls[k]++
	if n := f.failures[k]; n != 0 {
		if n > 0 {
			f.failures[k] = n - 1
		}
		return nil, errUpstream
	}
	return append([]models.Bar(nil), f.bars[k]...), nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	script []error
	calls  int
	sent   []string
}

func (n *fakeNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	var err error
	if n.calls < len(n.script) {
		err = n.script[n.calls]
	}
	n.calls++
	if err == nil {
		n.sent = append(n.sent, text)
	}
	return err
}

func (n *fakeNotifier) delivered() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

type sleepRecorder struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.slept = append(s.slept, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.slept...)
}

var nopMetrics = metrics.Nop{}

func nopLogger() *logger.Logger { return logger.Nop() }
