// Package surface samples a single valuation measure over a strike × maturity
// grid for 3-D and contour plots.
package surface

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/dgnsrekt/greekslab/internal/pricing"
)

var (
	ErrUnknownMeasure = errors.New("unknown measure")
	ErrResolution     = errors.New("resolution must be at least 2")
	ErrRange          = errors.New("range minimum must be below maximum")
)

// Measure names the value recorded at each grid node.
type Measure string

const (
	MeasurePrice Measure = "price"
	MeasureDelta Measure = "delta"
	MeasureGamma Measure = "gamma"
	MeasureTheta Measure = "theta"
	MeasureVega  Measure = "vega"
	MeasureRho   Measure = "rho"
)

// Measures lists every supported measure.
var Measures = []Measure{MeasurePrice, MeasureDelta, MeasureGamma, MeasureTheta, MeasureVega, MeasureRho}

// ParseMeasure validates a measure name.
func ParseMeasure(s string) (Measure, error) {
	for _, m := range Measures {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMeasure, s)
}

func (m Measure) extract(v pricing.Valuation) float64 {
	switch m {
	case MeasurePrice:
		return v.Price
	case MeasureDelta:
		return v.Greeks.Delta
	case MeasureGamma:
		return v.Greeks.Gamma
	case MeasureTheta:
		return v.Greeks.Theta
	case MeasureVega:
		return v.Greeks.Vega
	default:
		return v.Greeks.Rho
	}
}

// Range is a closed interval on one axis.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Request describes one sampling run.
type Request struct {
	Template   pricing.Contract `json:"template"`
	Measure    Measure          `json:"measure"`
	Strikes    Range            `json:"strike_range"`
	Maturities Range            `json:"maturity_range"`
	Resolution int              `json:"resolution"`
	Workers    int              `json:"-"`
}

// Defaults used when a caller does not override the grid.
const (
	DefaultResolution    = 40
	DefaultStrikeLowPct  = 0.7
	DefaultStrikeHighPct = 1.3
	DefaultMaturityMin   = 0.1
	DefaultMaturityMax   = 2.0
)

// DefaultRequest spans 70% to 130% of spot in strike and 0.1 to 2 years in maturity
// at 40 points per axis.
func DefaultRequest(template pricing.Contract, m Measure) Request {
	return Request{
		Template:   template,
		Measure:    m,
		Strikes:    Range{Min: template.Spot * DefaultStrikeLowPct, Max: template.Spot * DefaultStrikeHighPct},
		Maturities: Range{Min: DefaultMaturityMin, Max: DefaultMaturityMax},
		Resolution: DefaultResolution,
	}
}

func (r Request) validate() error {
	if _, err := ParseMeasure(string(r.Measure)); err != nil {
		return err
	}
	if r.Resolution < 2 {
		return fmt.Errorf("%w: got %d", ErrResolution, r.Resolution)
	}
	if !(r.Strikes.Min < r.Strikes.Max) {
		return fmt.Errorf("%w: strike %v..%v", ErrRange, r.Strikes.Min, r.Strikes.Max)
	}
	if !(r.Maturities.Min < r.Maturities.Max) {
		return fmt.Errorf("%w: maturity %v..%v", ErrRange, r.Maturities.Min, r.Maturities.Max)
	}
	return nil
}

// GreekSurface is the sampled grid. Values is indexed [maturity][strike].
type GreekSurface struct {
	Measure    Measure     `json:"measure"`
	Strikes    []float64   `json:"strikes"`
	Maturities []float64   `json:"maturities"`
	Values     [][]float64 `json:"values"`
	Stats      Stats       `json:"stats"`
}

// Sample evaluates the template at every (strike, maturity) node. Rows are
// computed concurrently; each row writes only its own slice.
func Sample(ctx context.Context, req Request) (*GreekSurface, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	n := req.Resolution
	s := &GreekSurface{
		Measure:    req.Measure,
		Strikes:    floats.Span(make([]float64, n), req.Strikes.Min, req.Strikes.Max),
		Maturities: floats.Span(make([]float64, n), req.Maturities.Min, req.Maturities.Max),
		Values:     make([][]float64, n),
	}

	workers := req.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for j := range s.Maturities {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.Values[j] = sampleRow(req, s.Strikes, s.Maturities[j])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	flat := make([]float64, 0, n*n)
	for _, row := range s.Values {
		flat = append(flat, row...)
	}
	s.Stats = Summarize(flat)
	return s, nil
}

func sampleRow(req Request, strikes []float64, maturity float64) []float64 {
	row := make([]float64, len(strikes))
	c := req.Template
	c.Maturity = maturity
	for i, k := range strikes {
		c.Strike = k
		row[i] = req.Measure.extract(pricing.Evaluate(c))
	}
	return row
}

// Stats summarizes a flattened surface. StdDev is the population standard deviation.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summarize returns the zero Stats for an empty slice.
func Summarize(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return Stats{
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Mean:   mean,
		StdDev: std,
	}
}
