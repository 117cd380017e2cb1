// Package scenario re-values portfolios under shifted market parameters.
package scenario

import (
	"math"

	"github.com/dgnsrekt/greekslab/internal/portfolio"
	"github.com/dgnsrekt/greekslab/internal/pricing"
)

// StressScenario is a discrete market shock.
type StressScenario struct {
	Name          string  `json:"name,omitempty"`
	Description   string  `json:"description,omitempty"`
	SpotPctChange float64 `json:"spot_pct_change"` // +10 multiplies spot by 1.10
	VolPctChange  float64 `json:"vol_pct_change"`  // +10 multiplies volatility by 1.10
	RateShiftBps  float64 `json:"rate_shift_bps"`  // added to rate after dividing by 100
}

// TuningParams are the continuous what-if sliders.
type TuningParams struct {
	VolatilityMultiplier float64 `json:"volatility_multiplier"`
	TimeDecayDays        float64 `json:"time_decay_days"`
	RateShiftBps         float64 `json:"rate_shift_bps"`
}

// NeutralTuning leaves every contract unchanged.
func NeutralTuning() TuningParams {
	return TuningParams{VolatilityMultiplier: 1}
}

// rateShift converts a shift expressed in rate-shift units to an additive rate change.
func rateShift(bps float64) float64 {
	return bps / 100
}

// StressContract applies s to a single contract.
func StressContract(c pricing.Contract, s StressScenario) pricing.Contract {
	c.Spot *= 1 + s.SpotPctChange/100
	c.Volatility *= 1 + s.VolPctChange/100
	c.Rate += rateShift(s.RateShiftBps)
	return c
}

// TuneContract applies t to a single contract. Maturity is floored at zero;
// a contract decayed to expiry is valued at its payoff by pricing.Evaluate.
func TuneContract(c pricing.Contract, t TuningParams) pricing.Contract {
	c.Volatility *= t.VolatilityMultiplier
	c.Maturity = math.Max(0, c.Maturity-t.TimeDecayDays/pricing.DaysPerYear)
	c.Rate += rateShift(t.RateShiftBps)
	return c
}

// ApplyStress returns a new portfolio with every position shocked by s.
// The source portfolio is not modified.
func ApplyStress(p *portfolio.Portfolio, s StressScenario) *portfolio.Portfolio {
	return remap(p, func(c pricing.Contract) pricing.Contract {
		return StressContract(c, s)
	})
}

// ApplyTuning returns a new portfolio with every position adjusted by t.
func ApplyTuning(p *portfolio.Portfolio, t TuningParams) *portfolio.Portfolio {
	return remap(p, func(c pricing.Contract) pricing.Contract {
		return TuneContract(c, t)
	})
}

func remap(p *portfolio.Portfolio, fn func(pricing.Contract) pricing.Contract) *portfolio.Portfolio {
	contracts := p.Contracts()
	for i := range contracts {
		contracts[i] = fn(contracts[i])
	}
	return portfolio.Aggregate(contracts)
}

// Impact compares a shifted portfolio with its base.
type Impact struct {
	Name    string               `json:"name,omitempty"`
	Base    *portfolio.Portfolio `json:"base"`
	Shocked *portfolio.Portfolio `json:"shocked"`
	PnL     float64              `json:"pnl"`
	PnLPct  float64              `json:"pnl_pct"`
	Greeks  pricing.Greeks       `json:"greeks_change"`
}

// Compare builds the Impact of moving from base to shocked.
func Compare(name string, base, shocked *portfolio.Portfolio) *Impact {
	pnl := shocked.TotalValue - base.TotalValue
	pct := 0.0
	if base.TotalValue != 0 {
		pct = pnl / math.Abs(base.TotalValue) * 100
	}
	return &Impact{
		Name:    name,
		Base:    base,
		Shocked: shocked,
		PnL:     pnl,
		PnLPct:  pct,
		Greeks:  shocked.Greeks.Add(base.Greeks.Scale(-1)),
	}
}

// RunStress shocks base with s and reports the impact.
func RunStress(base *portfolio.Portfolio, s StressScenario) *Impact {
	return Compare(s.Name, base, ApplyStress(base, s))
}

// RunTuning adjusts base with t and reports the impact.
func RunTuning(base *portfolio.Portfolio, t TuningParams) *Impact {
	return Compare("tuning", base, ApplyTuning(base, t))
}
