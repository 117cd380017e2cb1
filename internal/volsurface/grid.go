// Package volsurface builds rectangular implied-volatility grids from scattered
// samples and interpolates them bilinearly.
package volsurface

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/dgnsrekt/greekslab/internal/pricing"
)

var (
	ErrEmptySurface = errors.New("volatility surface has no points")
	ErrInvalidPoint = errors.New("invalid volatility point")
)

// Point is one (strike, maturity, volatility) sample.
type Point struct {
	Strike     float64 `json:"strike"`
	Maturity   float64 `json:"maturity"`
	Volatility float64 `json:"volatility"`
}

// Grid is an immutable strike × maturity volatility table.
// Vols is indexed [maturity][strike].
type Grid struct {
	Strikes    []float64   `json:"strikes"`
	Maturities []float64   `json:"maturities"`
	Vols       [][]float64 `json:"vols"`
	// Missing counts cells with no sample; they hold zero volatility.
	Missing int `json:"missing"`
}

type cellKey struct {
	strike, maturity float64
}

// Build collects the distinct strikes and maturities of points into sorted
// axes and fills each cell from the matching sample. When a pair appears more
// than once the last sample wins. Cells without a sample are left at zero and
// counted in Missing.
func Build(points []Point) (*Grid, error) {
	if len(points) == 0 {
		return nil, ErrEmptySurface
	}

	lookup := make(map[cellKey]float64, len(points))
	strikes := make([]float64, 0, len(points))
	maturities := make([]float64, 0, len(points))
	for i, p := range points {
		if !finite(p.Strike) || !finite(p.Maturity) || !finite(p.Volatility) {
			return nil, fmt.Errorf("%w at row %d: %+v", ErrInvalidPoint, i, p)
		}
		lookup[cellKey{p.Strike, p.Maturity}] = p.Volatility
		strikes = append(strikes, p.Strike)
		maturities = append(maturities, p.Maturity)
	}

	g := &Grid{
		Strikes:    uniqueSorted(strikes),
		Maturities: uniqueSorted(maturities),
	}
	g.Vols = make([][]float64, len(g.Maturities))
	for j, t := range g.Maturities {
		row := make([]float64, len(g.Strikes))
		for i, k := range g.Strikes {
			v, ok := lookup[cellKey{k, t}]
			if !ok {
				g.Missing++
			}
			row[i] = v
		}
		g.Vols[j] = row
	}
	return g, nil
}

// Query interpolates the volatility at (strike, maturity). Coordinates outside
// the grid are clamped to the nearest edge.
func (g *Grid) Query(strike, maturity float64) float64 {
	i1, i2, x := bracket(g.Strikes, strike)
	j1, j2, y := bracket(g.Maturities, maturity)

	v11 := g.Vols[j1][i1]
	v12 := g.Vols[j1][i2]
	v21 := g.Vols[j2][i1]
	v22 := g.Vols[j2][i2]

	return v11*(1-x)*(1-y) + v12*x*(1-y) + v21*(1-x)*y + v22*x*y
}

// Apply returns c priced off the surface: its volatility replaced by the
// interpolated value at its strike and maturity.
func (g *Grid) Apply(c pricing.Contract) pricing.Contract {
	c.Volatility = g.Query(c.Strike, c.Maturity)
	return c
}

// Points flattens the grid back into samples, row by row.
func (g *Grid) Points() []Point {
	out := make([]Point, 0, len(g.Strikes)*len(g.Maturities))
	for j, t := range g.Maturities {
		for i, k := range g.Strikes {
			out = append(out, Point{Strike: k, Maturity: t, Volatility: g.Vols[j][i]})
		}
	}
	return out
}

// bracket finds lo ≤ hi with axis[lo] ≤ v ≤ axis[hi] and the fractional
// weight of v between them. The weight is zero when lo == hi.
func bracket(axis []float64, v float64) (lo, hi int, w float64) {
	last := len(axis) - 1
	switch {
	case v <= axis[0]:
		return 0, 0, 0
	case v >= axis[last]:
		return last, last, 0
	}

	hi = sort.SearchFloat64s(axis, v)
	if axis[hi] == v {
		return hi, hi, 0
	}
	lo = hi - 1
	span := axis[hi] - axis[lo]
	if span == 0 {
		return lo, hi, 0
	}
	return lo, hi, (v - axis[lo]) / span
}

func uniqueSorted(xs []float64) []float64 {
	out := slices.Clone(xs)
	slices.Sort(out)
	return slices.Compact(out)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
