package pricing

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OptionType is the exercise right of a European option.
type OptionType string

const (
	Call OptionType = "Call"
	Put  OptionType = "Put"
)

// ParseOptionType accepts "Call"/"Put" in any letter case.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return "", fmt.Errorf("invalid option type %q (must be Call or Put)", s)
	}
}

// Sign returns +1 for calls and -1 for puts.
func (t OptionType) Sign() float64 {
	if t == Put {
		return -1
	}
	return 1
}

func (t OptionType) Valid() bool {
	return t == Call || t == Put
}

// UnmarshalJSON normalizes the letter case of "call"/"put".
func (t *OptionType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseOptionType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Contract is one option position: the five pricing inputs plus identity and size.
type Contract struct {
	Ticker     string     `json:"ticker"`
	Type       OptionType `json:"type"`
	Spot       float64    `json:"spot"`
	Strike     float64    `json:"strike"`
	Maturity   float64    `json:"maturity"`   // years
	Volatility float64    `json:"volatility"` // annualized
	Rate       float64    `json:"rate"`
	Quantity   float64    `json:"quantity"`
}

// Greeks holds the five first-order (and gamma) sensitivities of one contract
// or, after aggregation, of a whole portfolio.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"` // per year
	Vega  float64 `json:"vega"`  // per unit of volatility
	Rho   float64 `json:"rho"`   // per unit of rate
}

// Add returns the field-wise sum.
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Theta: g.Theta + o.Theta,
		Vega:  g.Vega + o.Vega,
		Rho:   g.Rho + o.Rho,
	}
}

// Scale multiplies every Greek by k.
func (g Greeks) Scale(k float64) Greeks {
	return Greeks{
		Delta: g.Delta * k,
		Gamma: g.Gamma * k,
		Theta: g.Theta * k,
		Vega:  g.Vega * k,
		Rho:   g.Rho * k,
	}
}

// PerDayTheta converts the annualized theta to decay per calendar day.
func (g Greeks) PerDayTheta() float64 {
	return g.Theta / DaysPerYear
}
