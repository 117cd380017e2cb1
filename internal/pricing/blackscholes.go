// Package pricing implements closed-form Black-Scholes valuation of European
// options without dividends.
//
// Price and ComputeGreeks assume spot, strike, maturity and volatility are all
// strictly positive. They do not validate: a violated precondition surfaces as
// NaN or ±Inf. Callers that can drive maturity to zero (time-decay scenarios)
// go through Evaluate, which switches to the expiry payoff.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DaysPerYear converts day counts to year fractions throughout the engine.
const DaysPerYear = 365.0

var stdNormal = distuv.UnitNormal

// cdf is the standard normal cumulative distribution N(x).
func cdf(x float64) float64 { return stdNormal.CDF(x) }

// pdf is the standard normal density N'(x).
func pdf(x float64) float64 { return stdNormal.Prob(x) }

// D1D2 returns the standardized Black-Scholes arguments of N(·).
func D1D2(c Contract) (d1, d2 float64) {
	volSqrtT := c.Volatility * math.Sqrt(c.Maturity)
	d1 = (math.Log(c.Spot/c.Strike) + (c.Rate+0.5*c.Volatility*c.Volatility)*c.Maturity) / volSqrtT
	d2 = d1 - volSqrtT
	return d1, d2
}

// Price returns the theoretical value of one contract.
func Price(c Contract) float64 {
	d1, d2 := D1D2(c)
	discountedStrike := c.Strike * math.Exp(-c.Rate*c.Maturity)
	if c.Type == Put {
		return discountedStrike*cdf(-d2) - c.Spot*cdf(-d1)
	}
	return c.Spot*cdf(d1) - discountedStrike*cdf(d2)
}

// ComputeGreeks returns delta, gamma, theta (per year), vega and rho of one contract.
func ComputeGreeks(c Contract) Greeks {
	d1, d2 := D1D2(c)
	sign := c.Type.Sign()
	sqrtT := math.Sqrt(c.Maturity)
	density := pdf(d1)
	discountedStrike := c.Strike * math.Exp(-c.Rate*c.Maturity)

	return Greeks{
		Delta: sign * cdf(sign*d1),
		Gamma: density / (c.Spot * c.Volatility * sqrtT),
		Theta: -c.Spot*c.Volatility*density/(2*sqrtT) - sign*c.Rate*discountedStrike*cdf(sign*d2),
		Vega:  c.Spot * sqrtT * density,
		Rho:   sign * c.Maturity * discountedStrike * cdf(sign*d2),
	}
}

// Valuation is the price and Greeks of one contract computed together.
type Valuation struct {
	Price   float64 `json:"price"`
	Greeks  Greeks  `json:"greeks"`
	Expired bool    `json:"expired,omitempty"`
}

// Evaluate prices c, falling back to Intrinsic when maturity is not positive.
func Evaluate(c Contract) Valuation {
	if c.Maturity <= 0 {
		return Intrinsic(c)
	}
	return Valuation{
		Price:  Price(c),
		Greeks: ComputeGreeks(c),
	}
}

// Intrinsic values c at expiry: the payoff max(0, sign·(S−K)), a step delta
// (sign when in the money, 0 otherwise) and zero for every other Greek.
func Intrinsic(c Contract) Valuation {
	sign := c.Type.Sign()
	moneyness := sign * (c.Spot - c.Strike)

	v := Valuation{Expired: true}
	if moneyness > 0 {
		v.Price = moneyness
		v.Greeks.Delta = sign
	}
	return v
}
