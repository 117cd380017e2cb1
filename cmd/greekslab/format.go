package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/dgnsrekt/greekslab/internal/attribution"
	"github.com/dgnsrekt/greekslab/internal/portfolio"
	"github.com/dgnsrekt/greekslab/internal/pricing"
	"github.com/dgnsrekt/greekslab/internal/scenario"
	"github.com/dgnsrekt/greekslab/internal/surface"
)

const (
	moneyPlaces = 2
	greekPlaces = 4
)

// round formats f to a fixed number of decimals. Non-finite values are
// printed as-is since decimal cannot represent them.
func round(f float64, places int32) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return decimal.NewFromFloat(f).StringFixed(places)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

func greekCells(g pricing.Greeks) string {
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s",
		round(g.Delta, greekPlaces),
		round(g.Gamma, greekPlaces),
		round(g.Theta, greekPlaces),
		round(g.Vega, greekPlaces),
		round(g.Rho, greekPlaces),
	)
}

func writePortfolio(w io.Writer, p *portfolio.Portfolio) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "TICKER\tTYPE\tSTRIKE\tMATURITY\tQTY\tPRICE\tVALUE\tDELTA\tGAMMA\tTHETA\tVEGA\tRHO\t")
	for _, pos := range p.Positions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			pos.Ticker,
			pos.Type,
			round(pos.Strike, moneyPlaces),
			round(pos.Maturity, greekPlaces),
			round(pos.Quantity, moneyPlaces),
			round(pos.Price, greekPlaces),
			round(pos.TotalValue, moneyPlaces),
			greekCells(pos.Greeks),
		)
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t\t\t\t%s\t%s\t\n", round(p.TotalValue, moneyPlaces), greekCells(p.Greeks))
	return tw.Flush()
}

func writeImpact(w io.Writer, impact *scenario.Impact) error {
	tw := newTable(w)
	if impact.Name != "" {
		fmt.Fprintf(tw, "scenario\t%s\t\n", impact.Name)
	}
	fmt.Fprintf(tw, "base value\t%s\t\n", round(impact.Base.TotalValue, moneyPlaces))
	fmt.Fprintf(tw, "shocked value\t%s\t\n", round(impact.Shocked.TotalValue, moneyPlaces))
	fmt.Fprintf(tw, "pnl\t%s\t\n", round(impact.PnL, moneyPlaces))
	fmt.Fprintf(tw, "pnl %%\t%s\t\n", round(impact.PnLPct, moneyPlaces))
	fmt.Fprintln(tw, "\t\t")
	fmt.Fprintln(tw, "\tDELTA\tGAMMA\tTHETA\tVEGA\tRHO\t")
	fmt.Fprintf(tw, "base\t%s\t\n", greekCells(impact.Base.Greeks))
	fmt.Fprintf(tw, "shocked\t%s\t\n", greekCells(impact.Shocked.Greeks))
	fmt.Fprintf(tw, "change\t%s\t\n", greekCells(impact.Greeks))
	return tw.Flush()
}

func writeAttribution(w io.Writer, a *attribution.Attribution, elapsedDays float64, tradingDays *int) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "elapsed days\t%s\t\n", round(elapsedDays, moneyPlaces))
	if tradingDays != nil {
		fmt.Fprintf(tw, "trading days\t%d\t\n", *tradingDays)
	}
	for _, row := range []struct {
		name  string
		value float64
	}{
		{"delta", a.Delta},
		{"gamma", a.Gamma},
		{"theta", a.Theta},
		{"vega", a.Vega},
		{"rho", a.Rho},
		{"unexplained", a.Unexplained},
		{"total", a.Total},
	} {
		fmt.Fprintf(tw, "%s\t%s\t\n", row.name, round(row.value, moneyPlaces))
	}
	return tw.Flush()
}

func writeSurfaceStats(w io.Writer, s *surface.GreekSurface) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "measure\t%s\t\n", s.Measure)
	fmt.Fprintf(tw, "grid\t%dx%d\t\n", len(s.Maturities), len(s.Strikes))
	fmt.Fprintf(tw, "min\t%s\t\n", round(s.Stats.Min, greekPlaces))
	fmt.Fprintf(tw, "max\t%s\t\n", round(s.Stats.Max, greekPlaces))
	fmt.Fprintf(tw, "mean\t%s\t\n", round(s.Stats.Mean, greekPlaces))
	fmt.Fprintf(tw, "std dev\t%s\t\n", round(s.Stats.StdDev, greekPlaces))
	return tw.Flush()
}
