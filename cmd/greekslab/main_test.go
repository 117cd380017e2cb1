package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dgnsrekt/greekslab/internal/data"
	"github.com/dgnsrekt/greekslab/internal/portfolio"
	"github.com/dgnsrekt/greekslab/internal/pricing"
	"github.com/dgnsrekt/greekslab/internal/scenario"
	"github.com/dgnsrekt/greekslab/internal/tradingcal"
)

func init() {
	logger = zap.NewNop()
}

func sampleContracts() []pricing.Contract {
	return []pricing.Contract{
		{Ticker: "SPY", Type: pricing.Call, Spot: 100, Strike: 100, Maturity: 1, Volatility: 0.2, Rate: 0.05, Quantity: 2},
		{Ticker: "SPY", Type: pricing.Put, Spot: 100, Strike: 95, Maturity: 0.5, Volatility: 0.25, Rate: 0.05, Quantity: -1},
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int32
		want   string
	}{
		{10.450583572185565, 2, "10.45"},
		{-0.0049, 2, "0.00"},
		{0.63683, 4, "0.6368"},
		{3, 2, "3.00"},
		{math.NaN(), 2, "NaN"},
		{math.Inf(1), 2, "+Inf"},
	}

	for _, tt := range tests {
		if got := round(tt.in, tt.places); got != tt.want {
			t.Errorf("round(%v, %d) = %s, want %s", tt.in, tt.places, got, tt.want)
		}
	}
}

func TestWritePortfolio(t *testing.T) {
	var buf bytes.Buffer
	if err := writePortfolio(&buf, portfolio.Aggregate(sampleContracts())); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, 2 positions and total, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "DELTA") {
		t.Errorf("missing header: %s", lines[0])
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[3]), "TOTAL") {
		t.Errorf("expected total row last, got: %s", lines[3])
	}
}

func TestWriteImpact(t *testing.T) {
	base := portfolio.Aggregate(sampleContracts())
	impact := scenario.RunStress(base, scenario.StressScenario{Name: "drop", SpotPctChange: -10})

	var buf bytes.Buffer
	if err := writeImpact(&buf, impact); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"drop", "pnl", "shocked", "change"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConvertContracts(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "positions.csv")
	csv := "ticker,type,spot,strike,maturity,volatility,rate,quantity\n" +
		"SPY,call,100,100,1,0.2,0.05,2\n" +
		"SPY,put,100,95,0.5,0.25,0.05,-1\n"
	if err := os.WriteFile(in, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "positions.jsonl")
	if err := convertContracts(in, out, true); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(raw), "\n"); n != 2 {
		t.Errorf("expected 2 lines, got %d", n)
	}

	back, err := data.LoadContracts(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 || back[1].Type != pricing.Put || back[1].Quantity != -1 {
		t.Errorf("unexpected round trip: %+v", back)
	}
}

func TestConvertContracts_UnsupportedOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "positions.json")
	if err := os.WriteFile(in, []byte(`[{"ticker":"SPY","type":"call","spot":100,"strike":100,"maturity":1,"volatility":0.2,"rate":0.05,"quantity":1}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := convertContracts(in, filepath.Join(dir, "out.xml"), true); err == nil {
		t.Fatal("expected error for unsupported output extension")
	}
}

func TestElapsedBetween(t *testing.T) {
	cal := tradingcal.New()

	days, sessions, err := elapsedBetween(cal, "2025-11-14", "2025-11-17")
	if err != nil {
		t.Fatal(err)
	}
	if days != 3 {
		t.Errorf("expected 3 calendar days over a weekend, got %v", days)
	}
	if sessions != 1 {
		t.Errorf("expected 1 trading session, got %d", sessions)
	}

	if _, _, err := elapsedBetween(cal, "", "2025-11-17"); err == nil {
		t.Error("expected error when a snapshot date is missing")
	}
}
