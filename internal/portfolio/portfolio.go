// Package portfolio prices lists of option contracts and reduces them to
// quantity-weighted totals.
package portfolio

import "github.com/dgnsrekt/greekslab/internal/pricing"

// OptionMetrics is a contract together with its per-contract valuation.
type OptionMetrics struct {
	pricing.Contract
	Price      float64        `json:"price"`
	Greeks     pricing.Greeks `json:"greeks"`
	TotalValue float64        `json:"total_value"` // Price × Quantity
	Expired    bool           `json:"expired,omitempty"`
}

// NewOptionMetrics evaluates c once and derives its position value.
func NewOptionMetrics(c pricing.Contract) OptionMetrics {
	v := pricing.Evaluate(c)
	return OptionMetrics{
		Contract:   c,
		Price:      v.Price,
		Greeks:     v.Greeks,
		TotalValue: v.Price * c.Quantity,
		Expired:    v.Expired,
	}
}

// Portfolio is an ordered set of valued positions and their totals.
type Portfolio struct {
	Positions  []OptionMetrics `json:"positions"`
	TotalValue float64         `json:"total_value"`
	Greeks     pricing.Greeks  `json:"aggregate_greeks"`
}

// Aggregate values every contract and sums price·quantity and greek·quantity
// across positions. Input order is preserved; an empty list yields the zero
// portfolio.
func Aggregate(contracts []pricing.Contract) *Portfolio {
	p := &Portfolio{Positions: make([]OptionMetrics, 0, len(contracts))}
	for _, c := range contracts {
		m := NewOptionMetrics(c)
		p.Positions = append(p.Positions, m)
		p.TotalValue += m.Price * c.Quantity
		p.Greeks = p.Greeks.Add(m.Greeks.Scale(c.Quantity))
	}
	return p
}

// Contracts returns a copy of the underlying contracts in position order.
func (p *Portfolio) Contracts() []pricing.Contract {
	out := make([]pricing.Contract, len(p.Positions))
	for i, m := range p.Positions {
		out[i] = m.Contract
	}
	return out
}

// Len returns the number of positions.
func (p *Portfolio) Len() int {
	return len(p.Positions)
}
