package portfolio

import (
	"testing"

	"github.com/dgnsrekt/greekslab/internal/pricing"
)

func sampleContracts() []pricing.Contract {
	return []pricing.Contract{
		{Ticker: "AAPL", Type: pricing.Call, Spot: 190, Strike: 200, Maturity: 0.5, Volatility: 0.25, Rate: 0.04, Quantity: 10},
		{Ticker: "AAPL", Type: pricing.Put, Spot: 190, Strike: 180, Maturity: 0.5, Volatility: 0.28, Rate: 0.04, Quantity: -5},
		{Ticker: "SPY", Type: pricing.Call, Spot: 520, Strike: 520, Maturity: 1, Volatility: 0.15, Rate: 0.045, Quantity: 3},
	}
}

func TestAggregate_TotalsMatchPositions(t *testing.T) {
	contracts := sampleContracts()
	p := Aggregate(contracts)

	if p.Len() != len(contracts) {
		t.Fatalf("expected %d positions, got %d", len(contracts), p.Len())
	}

	var wantValue float64
	var want pricing.Greeks
	for _, c := range contracts {
		price := pricing.Price(c)
		g := pricing.ComputeGreeks(c)
		wantValue += price * c.Quantity
		want.Delta += g.Delta * c.Quantity
		want.Gamma += g.Gamma * c.Quantity
		want.Theta += g.Theta * c.Quantity
		want.Vega += g.Vega * c.Quantity
		want.Rho += g.Rho * c.Quantity
	}

	if p.TotalValue != wantValue {
		t.Errorf("expected total value %v, got %v", wantValue, p.TotalValue)
	}
	if p.Greeks != want {
		t.Errorf("expected aggregate greeks %+v, got %+v", want, p.Greeks)
	}
}

func TestAggregate_PreservesOrderAndDuplicates(t *testing.T) {
	contracts := sampleContracts()
	contracts = append(contracts, contracts[0])

	p := Aggregate(contracts)
	if p.Len() != 4 {
		t.Fatalf("duplicates must not be merged, got %d positions", p.Len())
	}
	for i, m := range p.Positions {
		if m.Contract != contracts[i] {
			t.Errorf("position %d out of order: %+v", i, m.Contract)
		}
		if m.TotalValue != m.Price*m.Quantity {
			t.Errorf("position %d total value mismatch", i)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	p := Aggregate(nil)

	if p.TotalValue != 0 {
		t.Errorf("expected zero total value, got %v", p.TotalValue)
	}
	if p.Greeks != (pricing.Greeks{}) {
		t.Errorf("expected zero greeks, got %+v", p.Greeks)
	}
	if p.Positions == nil {
		t.Error("expected non-nil empty positions slice")
	}
}

func TestAggregate_ExpiredPosition(t *testing.T) {
	p := Aggregate([]pricing.Contract{
		{Ticker: "QQQ", Type: pricing.Call, Spot: 450, Strike: 440, Maturity: 0, Volatility: 0.2, Rate: 0.05, Quantity: 2},
	})

	if !p.Positions[0].Expired {
		t.Error("expected expired position")
	}
	if p.TotalValue != 20 {
		t.Errorf("expected intrinsic total 20, got %v", p.TotalValue)
	}
	if p.Greeks.Delta != 2 {
		t.Errorf("expected delta 2, got %v", p.Greeks.Delta)
	}
}

func TestContracts_ReturnsCopy(t *testing.T) {
	p := Aggregate(sampleContracts())
	cs := p.Contracts()
	cs[0].Spot = 1

	if p.Positions[0].Spot == 1 {
		t.Error("Contracts must not alias portfolio positions")
	}
}
