package notify

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/dgnsrekt/greekslab/internal/scenario"
)

// Breached reports whether the scenario loss reaches thresholdPct of base value.
func Breached(impact *scenario.Impact, thresholdPct float64) bool {
	return impact != nil && impact.PnL < 0 && -impact.PnLPct >= thresholdPct
}

// FormatStressMessage creates a stress breach notification body.
func FormatStressMessage(impact *scenario.Impact, thresholdPct float64) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Base value: %.2f\n", impact.Base.TotalValue))
	sb.WriteString(fmt.Sprintf("Shocked value: %.2f\n", impact.Shocked.TotalValue))
	sb.WriteString(fmt.Sprintf("P&L: %.2f (%.2f%%)\n", impact.PnL, impact.PnLPct))
	sb.WriteString(fmt.Sprintf("Threshold: -%.2f%%\n", thresholdPct))
	sb.WriteString(fmt.Sprintf("Delta change: %.4f\n", impact.Greeks.Delta))
	sb.WriteString(fmt.Sprintf("Vega change: %.4f", impact.Greeks.Vega))

	// Largest position losers, at most 3
	type loser struct {
		ticker string
		pnl    float64
	}
	var losers []loser
	for i, pos := range impact.Base.Positions {
		if i >= len(impact.Shocked.Positions) {
			break
		}
		if d := impact.Shocked.Positions[i].TotalValue - pos.TotalValue; d < 0 {
			losers = append(losers, loser{fmt.Sprintf("%s %s %.2f", pos.Ticker, pos.Type, pos.Strike), d})
		}
	}
	if len(losers) > 0 {
		slices.SortStableFunc(losers, func(a, b loser) int { return cmp.Compare(a.pnl, b.pnl) })
		sb.WriteString("\n\nLargest losses:\n")
		limit := min(3, len(losers))
		for i := 0; i < limit; i++ {
			sb.WriteString(fmt.Sprintf("- %s: %.2f\n", losers[i].ticker, losers[i].pnl))
		}
		if len(losers) > 3 {
			sb.WriteString(fmt.Sprintf("... and %d more", len(losers)-3))
		}
	}

	return sb.String()
}
