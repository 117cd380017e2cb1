package volsurface

import (
	"errors"
	"math"
	"testing"

	"github.com/dgnsrekt/greekslab/internal/pricing"
)

func rectangularPoints() []Point {
	strikes := []float64{90, 100, 110}
	maturities := []float64{0.25, 0.5, 1}
	var pts []Point
	// Reverse order to check that Build sorts the axes.
	for j := len(maturities) - 1; j >= 0; j-- {
		for i := len(strikes) - 1; i >= 0; i-- {
			pts = append(pts, Point{
				Strike:     strikes[i],
				Maturity:   maturities[j],
				Volatility: 0.2 + 0.01*float64(i) + 0.05*float64(j),
			})
		}
	}
	return pts
}

func TestBuild_SortsAndFills(t *testing.T) {
	g, err := Build(rectangularPoints())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wantStrikes := []float64{90, 100, 110}
	wantMaturities := []float64{0.25, 0.5, 1}
	for i, k := range wantStrikes {
		if g.Strikes[i] != k {
			t.Errorf("strike %d: expected %v, got %v", i, k, g.Strikes[i])
		}
	}
	for j, m := range wantMaturities {
		if g.Maturities[j] != m {
			t.Errorf("maturity %d: expected %v, got %v", j, m, g.Maturities[j])
		}
	}
	if g.Missing != 0 {
		t.Errorf("expected no missing cells, got %d", g.Missing)
	}
	// Same run-time arithmetic as rectangularPoints.
	i, j := 1, 2
	want := 0.2 + 0.01*float64(i) + 0.05*float64(j)
	if g.Vols[j][i] != want {
		t.Errorf("unexpected vol at [1y][100]: %v, want %v", g.Vols[j][i], want)
	}
}

func TestQuery_ExactAtGridPoints(t *testing.T) {
	pts := rectangularPoints()
	g, err := Build(pts)
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range pts {
		if got := g.Query(p.Strike, p.Maturity); got != p.Volatility {
			t.Errorf("Query(%v, %v) = %v, want %v", p.Strike, p.Maturity, got, p.Volatility)
		}
	}
}

func TestQuery_Bilinear(t *testing.T) {
	g, err := Build([]Point{
		{Strike: 100, Maturity: 1, Volatility: 0.10},
		{Strike: 200, Maturity: 1, Volatility: 0.20},
		{Strike: 100, Maturity: 2, Volatility: 0.30},
		{Strike: 200, Maturity: 2, Volatility: 0.40},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Centre of the cell is the mean of the four corners.
	if got := g.Query(150, 1.5); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("expected 0.25 at centre, got %v", got)
	}
	// Along the lower edge only strike interpolates.
	if got := g.Query(125, 1); math.Abs(got-0.125) > 1e-12 {
		t.Errorf("expected 0.125, got %v", got)
	}
}

func TestQuery_ClampsOutsideGrid(t *testing.T) {
	g, err := Build(rectangularPoints())
	if err != nil {
		t.Fatal(err)
	}

	if got, want := g.Query(10, 0.01), g.Vols[0][0]; got != want {
		t.Errorf("below grid: expected %v, got %v", want, got)
	}
	if got, want := g.Query(500, 5), g.Vols[2][2]; got != want {
		t.Errorf("above grid: expected %v, got %v", want, got)
	}
	// Strike inside, maturity beyond: interpolate along strike on the last row.
	want := (g.Vols[2][0] + g.Vols[2][1]) / 2
	if got := g.Query(95, 10); math.Abs(got-want) > 1e-12 {
		t.Errorf("edge interpolation: expected %v, got %v", want, got)
	}
}

func TestBuild_MissingCellsDefaultToZero(t *testing.T) {
	g, err := Build([]Point{
		{Strike: 100, Maturity: 1, Volatility: 0.2},
		{Strike: 110, Maturity: 2, Volatility: 0.3},
	})
	if err != nil {
		t.Fatal(err)
	}

	if g.Missing != 2 {
		t.Errorf("expected 2 missing cells, got %d", g.Missing)
	}
	if g.Vols[0][1] != 0 || g.Vols[1][0] != 0 {
		t.Errorf("expected zero-filled cells, got %v", g.Vols)
	}
}

func TestBuild_DuplicateLastWins(t *testing.T) {
	g, err := Build([]Point{
		{Strike: 100, Maturity: 1, Volatility: 0.2},
		{Strike: 100, Maturity: 1, Volatility: 0.25},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Strikes) != 1 || len(g.Maturities) != 1 {
		t.Fatalf("expected 1x1 grid, got %dx%d", len(g.Maturities), len(g.Strikes))
	}
	if g.Query(100, 1) != 0.25 {
		t.Errorf("expected last duplicate to win, got %v", g.Query(100, 1))
	}
	// Single cell: every query returns it.
	if g.Query(50, 3) != 0.25 {
		t.Errorf("expected single-cell grid to be flat, got %v", g.Query(50, 3))
	}
}

func TestBuild_Errors(t *testing.T) {
	if _, err := Build(nil); !errors.Is(err, ErrEmptySurface) {
		t.Errorf("expected ErrEmptySurface, got %v", err)
	}
	if _, err := Build([]Point{{Strike: math.NaN(), Maturity: 1, Volatility: 0.2}}); !errors.Is(err, ErrInvalidPoint) {
		t.Errorf("expected ErrInvalidPoint, got %v", err)
	}
}

func TestApply(t *testing.T) {
	g, err := Build(rectangularPoints())
	if err != nil {
		t.Fatal(err)
	}

	c := pricing.Contract{Type: pricing.Call, Spot: 100, Strike: 100, Maturity: 0.5, Volatility: 0.99, Rate: 0.01}
	priced := g.Apply(c)
	if priced.Volatility != g.Vols[1][1] {
		t.Errorf("expected surface vol %v, got %v", g.Vols[1][1], priced.Volatility)
	}
	if c.Volatility != 0.99 {
		t.Error("Apply mutated its input")
	}
}

func TestPoints_RoundTrip(t *testing.T) {
	g, err := Build(rectangularPoints())
	if err != nil {
		t.Fatal(err)
	}
	again, err := Build(g.Points())
	if err != nil {
		t.Fatal(err)
	}
	for j := range g.Vols {
		for i := range g.Vols[j] {
			if g.Vols[j][i] != again.Vols[j][i] {
				t.Errorf("cell [%d][%d] differs after rebuild", j, i)
			}
		}
	}
}
