package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"

	"github.com/shopspring/decimal"
)

var directionOrder = []models.Direction{models.DirectionLong, models.DirectionShort}

var directionBadge = map[models.Direction]string{
	models.DirectionLong:  "🟢 LONG",
	models.DirectionShort: "🔴 SHORT",
}

// BuildOutcome groups directional results, ordering intervals canonically within each direction.
func BuildOutcome(symbol string, results []models.IntervalResult) models.SymbolOutcome {
	out := models.SymbolOutcome{Symbol: symbol, Results: make(map[models.Direction][]models.IntervalResult)}
	for _, r := range results {
		if r.Direction == models.DirectionNone {
			continue
		}
		out.Results[r.Direction] = append(out.Results[r.Direction], r)
	}
	for _, rs := range out.Results {
		sort.SliceStable(rs, func(i, j int) bool { return drepo.LessLabel(rs[i].Interval, rs[j].Interval) })
	}
	return out
}

// FormatNotification renders an outcome into a self-contained message.
// The text is copied out of the outcome, so later changes to it are not visible.
func FormatNotification(o models.SymbolOutcome, now time.Time) models.Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "🔥 #%s\n", o.Symbol)

	var dirs []string
	for _, d := range directionOrder {
		rs := o.Results[d]
		if len(rs) == 0 {
			continue
		}
		dirs = append(dirs, string(d))

		labels := make([]string, len(rs))
		for i, r := range rs {
			labels[i] = r.Interval
		}
		fmt.Fprintf(&b, "🕒 %s\n%s\n", strings.Join(labels, ", "), directionBadge[d])

		for _, r := range rs {
			if line := detailLine(r); line != "" {
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
	}

	return models.Notification{
		Symbol:     o.Symbol,
		Text:       b.String(),
		Directions: dirs,
		CreatedAt:  now,
	}
}

func detailLine(r models.IntervalResult) string {
	parts := make([]string, 0, len(r.Indicators)+1)
	for _, ind := range r.Indicators {
		parts = append(parts, ind.Name+"="+formatValue(ind.Name, ind.Value))
	}
	if len(r.Patterns) > 0 {
		parts = append(parts, "["+strings.Join(r.Patterns, ", ")+"]")
	}
	if len(parts) == 0 {
		return ""
	}
	return r.Interval + ": " + strings.Join(parts, " ")
}

// formatValue prints oscillator percentages with two decimals and
// everything else rounded to six decimal places.
func formatValue(name string, v float64) string {
	d := decimal.NewFromFloat(v)
	if strings.HasPrefix(name, "%") {
		return d.StringFixed(2)
	}
	return d.Round(6).String()
}
