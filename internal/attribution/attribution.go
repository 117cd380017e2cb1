// Package attribution explains the value change between two snapshots of the
// same portfolio with a second-order Taylor expansion in the market inputs.
package attribution

import (
	"errors"
	"fmt"

	"github.com/dgnsrekt/greekslab/internal/portfolio"
	"github.com/dgnsrekt/greekslab/internal/pricing"
)

var (
	ErrLengthMismatch   = errors.New("snapshots have different position counts")
	ErrPositionMismatch = errors.New("positions are not aligned")
	ErrQuantityMismatch = errors.New("position quantity changed between snapshots")
	ErrNilPortfolio     = errors.New("portfolio snapshot is nil")
)

// Attribution splits a P&L into per-Greek contributions and a residual.
// Total equals the sum of the six components.
type Attribution struct {
	Delta       float64 `json:"delta"`
	Gamma       float64 `json:"gamma"`
	Theta       float64 `json:"theta"`
	Vega        float64 `json:"vega"`
	Rho         float64 `json:"rho"`
	Unexplained float64 `json:"unexplained"`
	Total       float64 `json:"total"`
}

// Explained is the part of Total covered by the Greek terms.
func (a Attribution) Explained() float64 {
	return a.Delta + a.Gamma + a.Theta + a.Vega + a.Rho
}

// Attribute decomposes current.TotalValue − previous.TotalValue using the
// previous snapshot's Greeks. Positions are matched by index.
//
// Two empty portfolios are aligned trivially and yield an all-zero
// attribution rather than an error; only nil portfolios and misaligned
// positions are rejected.
func Attribute(current, previous *portfolio.Portfolio, elapsedDays float64) (*Attribution, error) {
	if current == nil || previous == nil {
		return nil, ErrNilPortfolio
	}
	if current.Len() != previous.Len() {
		return nil, fmt.Errorf("%w: current has %d, previous has %d",
			ErrLengthMismatch, current.Len(), previous.Len())
	}

	elapsedYears := elapsedDays / pricing.DaysPerYear

	var a Attribution
	for i := range current.Positions {
		cur, prev := current.Positions[i], previous.Positions[i]
		if err := checkAligned(i, cur, prev); err != nil {
			return nil, err
		}

		qty := prev.Quantity
		dSpot := cur.Spot - prev.Spot
		dVol := cur.Volatility - prev.Volatility
		dRate := cur.Rate - prev.Rate

		a.Delta += prev.Greeks.Delta * dSpot * qty
		a.Gamma += 0.5 * prev.Greeks.Gamma * dSpot * dSpot * qty
		a.Theta += prev.Greeks.Theta * elapsedYears * qty
		a.Vega += prev.Greeks.Vega * dVol * qty
		a.Rho += prev.Greeks.Rho * dRate * qty
	}

	a.Total = current.TotalValue - previous.TotalValue
	a.Unexplained = a.Total - a.Explained()
	return &a, nil
}

func checkAligned(i int, cur, prev portfolio.OptionMetrics) error {
	if cur.Ticker != prev.Ticker || cur.Type != prev.Type {
		return fmt.Errorf("%w at index %d: %s %s vs %s %s",
			ErrPositionMismatch, i, cur.Ticker, cur.Type, prev.Ticker, prev.Type)
	}
	if cur.Quantity != prev.Quantity {
		return fmt.Errorf("%w at index %d: %v vs %v",
			ErrQuantityMismatch, i, cur.Quantity, prev.Quantity)
	}
	return nil
}
