package attribution

import (
	"errors"
	"math"
	"testing"

	"github.com/dgnsrekt/greekslab/internal/portfolio"
	"github.com/dgnsrekt/greekslab/internal/pricing"
	"github.com/dgnsrekt/greekslab/internal/scenario"
)

func snapshot() []pricing.Contract {
	return []pricing.Contract{
		{Ticker: "NVDA", Type: pricing.Call, Spot: 120, Strike: 125, Maturity: 0.5, Volatility: 0.45, Rate: 0.04, Quantity: 20},
		{Ticker: "NVDA", Type: pricing.Put, Spot: 120, Strike: 110, Maturity: 0.5, Volatility: 0.5, Rate: 0.04, Quantity: -10},
		{Ticker: "META", Type: pricing.Call, Spot: 500, Strike: 480, Maturity: 1, Volatility: 0.3, Rate: 0.04, Quantity: 4},
	}
}

func TestAttribute_Reconciles(t *testing.T) {
	previous := portfolio.Aggregate(snapshot())
	current := scenario.ApplyStress(previous, scenario.StressScenario{SpotPctChange: 8, VolPctChange: -15, RateShiftBps: 0.25})

	a, err := Attribute(current, previous, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Total != current.TotalValue-previous.TotalValue {
		t.Errorf("expected total %v, got %v", current.TotalValue-previous.TotalValue, a.Total)
	}
	sum := a.Delta + a.Gamma + a.Theta + a.Vega + a.Rho + a.Unexplained
	if math.Abs(sum-a.Total) > 1e-9*math.Max(1, math.Abs(a.Total)) {
		t.Errorf("components sum %v does not reconcile with total %v", sum, a.Total)
	}
}

func TestAttribute_ComponentFormulas(t *testing.T) {
	prevContracts := snapshot()[:1]
	curContracts := snapshot()[:1]
	curContracts[0].Spot = 123
	curContracts[0].Volatility = 0.47
	curContracts[0].Rate = 0.045

	previous := portfolio.Aggregate(prevContracts)
	current := portfolio.Aggregate(curContracts)

	a, err := Attribute(current, previous, 36.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Differences are taken at run time so they round like the engine's.
	prev, cur := prevContracts[0], curContracts[0]
	g := previous.Positions[0].Greeks
	qty := prev.Quantity
	dSpot := cur.Spot - prev.Spot
	dVol := cur.Volatility - prev.Volatility
	dRate := cur.Rate - prev.Rate
	days := 36.5
	years := days / pricing.DaysPerYear

	want := Attribution{
		Delta: g.Delta * dSpot * qty,
		Gamma: 0.5 * g.Gamma * dSpot * dSpot * qty,
		Theta: g.Theta * years * qty,
		Vega:  g.Vega * dVol * qty,
		Rho:   g.Rho * dRate * qty,
	}

	if a.Delta != want.Delta || a.Gamma != want.Gamma || a.Theta != want.Theta || a.Vega != want.Vega || a.Rho != want.Rho {
		t.Errorf("expected %+v, got %+v", want, *a)
	}
}

func TestAttribute_SmallMoveHasSmallResidual(t *testing.T) {
	previous := portfolio.Aggregate(snapshot())
	current := scenario.ApplyStress(previous, scenario.StressScenario{SpotPctChange: 0.1})

	a, err := Attribute(current, previous, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(a.Unexplained) > 1e-3*math.Abs(a.Total) {
		t.Errorf("residual %v too large relative to total %v for a tiny move", a.Unexplained, a.Total)
	}
}

func TestAttribute_IdenticalSnapshots(t *testing.T) {
	p := portfolio.Aggregate(snapshot())

	a, err := Attribute(p, p, 0)
	if err != nil {
		t.Fatal(err)
	}
	if *a != (Attribution{}) {
		t.Errorf("expected zero attribution, got %+v", *a)
	}
}

func TestAttribute_EmptySnapshots(t *testing.T) {
	empty := portfolio.Aggregate(nil)
	a, err := Attribute(empty, empty, 10)
	if err != nil {
		t.Fatal(err)
	}
	if *a != (Attribution{}) {
		t.Errorf("expected zero attribution, got %+v", *a)
	}
}

func TestAttribute_StructuralErrors(t *testing.T) {
	previous := portfolio.Aggregate(snapshot())

	shorter := portfolio.Aggregate(snapshot()[:2])
	if _, err := Attribute(shorter, previous, 1); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}

	swapped := snapshot()
	swapped[0], swapped[2] = swapped[2], swapped[0]
	if _, err := Attribute(portfolio.Aggregate(swapped), previous, 1); !errors.Is(err, ErrPositionMismatch) {
		t.Errorf("expected ErrPositionMismatch, got %v", err)
	}

	resized := snapshot()
	resized[1].Quantity = -12
	if _, err := Attribute(portfolio.Aggregate(resized), previous, 1); !errors.Is(err, ErrQuantityMismatch) {
		t.Errorf("expected ErrQuantityMismatch, got %v", err)
	}

	if _, err := Attribute(nil, previous, 1); !errors.Is(err, ErrNilPortfolio) {
		t.Errorf("expected ErrNilPortfolio, got %v", err)
	}
}
