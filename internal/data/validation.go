package data

import (
	"fmt"
	"math"
	"strings"

	"github.com/dgnsrekt/greekslab/internal/pricing"
)

// ValidationError describes one offending record.
type ValidationError struct {
	Index  int    `json:"index"`
	Ticker string `json:"ticker,omitempty"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationErrors collects every invalid record found in an input set.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationErrors) add(i int, ticker, field, reason string) {
	e.Errors = append(e.Errors, ValidationError{Index: i, Ticker: ticker, Field: field, Reason: reason})
}

func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d invalid field(s):\n", len(e.Errors)))
	for _, v := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - [%d] %s %s: %s\n", v.Index, v.Ticker, v.Field, v.Reason))
	}
	return sb.String()
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ValidateContracts checks pricing preconditions on every contract. Spot,
// strike, maturity and volatility must be positive; rate and quantity finite.
func ValidateContracts(contracts []pricing.Contract) error {
	errs := &ValidationErrors{}

	for i, c := range contracts {
		if strings.TrimSpace(c.Ticker) == "" {
			errs.add(i, c.Ticker, "ticker", "must not be empty")
		}
		if !c.Type.Valid() {
			errs.add(i, c.Ticker, "type", fmt.Sprintf("must be Call or Put, got %q", c.Type))
		}
		positive := []struct {
			name string
			v    float64
		}{
			{"spot", c.Spot}, {"strike", c.Strike}, {"maturity", c.Maturity}, {"volatility", c.Volatility},
		}
		for _, p := range positive {
			if !finite(p.v) || p.v <= 0 {
				errs.add(i, c.Ticker, p.name, fmt.Sprintf("must be > 0, got %v", p.v))
			}
		}
		if !finite(c.Rate) {
			errs.add(i, c.Ticker, "rate", "must be finite")
		}
		if !finite(c.Quantity) {
			errs.add(i, c.Ticker, "quantity", "must be finite")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
