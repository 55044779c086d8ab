package analytics

import (
	"fmt"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/service"
)

// Rule votes for a direction given oldest-first closed bars.
type Rule interface {
	Name() string
	Apply(bars []models.Bar) (models.Direction, []models.Indicator)
}

// Evaluator combines rule votes. Non-empty votes must agree, otherwise there is no signal.
type Evaluator struct {
	rules []Rule
}

var _ service.Evaluator = (*Evaluator)(nil)

// NewEvaluator builds an evaluator from rules.
func NewEvaluator(rules ...Rule) *Evaluator {
	return &Evaluator{rules: rules}
}

// Params configures the built-in rules.
type Params struct {
	KPeriod      int
	DPeriod      int
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
	Overbought   float64
	Oversold     float64
}

// DefaultParams mirrors the production defaults.
func DefaultParams() Params {
	return Params{KPeriod: 14, DPeriod: 3, FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9, Overbought: 90, Oversold: 10}
}

// NewEvaluatorFromNames resolves rule names ("stoch_macd", "engulfing", "hammer").
func NewEvaluatorFromNames(names []string, p Params) (*Evaluator, error) {
	rules := make([]Rule, 0, len(names))
	for _, n := range names {
		switch n {
		case RuleStochMACD:
			rules = append(rules, NewStochMACD(p))
		case RuleEngulfing:
			rules = append(rules, Engulfing{})
		case RuleHammer:
			rules = append(rules, Hammer{})
		default:
			return nil, fmt.Errorf("unknown rule %q", n)
		}
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules configured")
	}
	return NewEvaluator(rules...), nil
}

// Evaluate never fails; fewer than two bars is simply no signal.
func (e *Evaluator) Evaluate(bars []models.Bar) models.Evaluation {
	var out models.Evaluation
	if len(bars) < 2 {
		return out
	}

	for _, r := range e.rules {
		dir, ind := r.Apply(bars)
		out.Indicators = append(out.Indicators, ind...)
		if dir == models.DirectionNone {
			continue
		}
		if out.Direction != models.DirectionNone && out.Direction != dir {
			// conflicting votes
			return models.Evaluation{Indicators: out.Indicators}
		}
		out.Direction = dir
		out.Patterns = append(out.Patterns, r.Name())
	}
	return out
}
