package ws

import (
	"github.com/dgnsrekt/greekslab/internal/portfolio"
	"github.com/dgnsrekt/greekslab/internal/pricing"
	"github.com/dgnsrekt/greekslab/internal/scenario"
)

// Client message types.
const (
	TypeLoad   = "load"
	TypeTune   = "tune"
	TypeStress = "stress"
	TypeReset  = "reset"
)

// Server message types.
const (
	TypeConnected = "connected"
	TypePortfolio = "portfolio"
	TypeTuned     = "tuned"
	TypeStressed  = "stressed"
	TypeError     = "error"
)

// ClientMessage is a request from the what-if UI.
type ClientMessage struct {
	Type      string                   `json:"type"`
	Contracts []pricing.Contract       `json:"contracts,omitempty"`
	Tuning    *TuningUpdate            `json:"tuning,omitempty"`
	Scenario  *scenario.StressScenario `json:"scenario,omitempty"`
	Preset    string                   `json:"preset,omitempty"`
}

// TuningUpdate moves some of the sliders. Omitted fields keep their current
// position.
type TuningUpdate struct {
	VolatilityMultiplier *float64 `json:"volatility_multiplier,omitempty"`
	TimeDecayDays        *float64 `json:"time_decay_days,omitempty"`
	RateShiftBps         *float64 `json:"rate_shift_bps,omitempty"`
}

// Apply returns t with the fields set in u replaced.
func (u TuningUpdate) Apply(t scenario.TuningParams) scenario.TuningParams {
	if u.VolatilityMultiplier != nil {
		t.VolatilityMultiplier = *u.VolatilityMultiplier
	}
	if u.TimeDecayDays != nil {
		t.TimeDecayDays = *u.TimeDecayDays
	}
	if u.RateShiftBps != nil {
		t.RateShiftBps = *u.RateShiftBps
	}
	return t
}

// merge layers a newer update over u.
func (u TuningUpdate) merge(newer TuningUpdate) TuningUpdate {
	if newer.VolatilityMultiplier != nil {
		u.VolatilityMultiplier = newer.VolatilityMultiplier
	}
	if newer.TimeDecayDays != nil {
		u.TimeDecayDays = newer.TimeDecayDays
	}
	if newer.RateShiftBps != nil {
		u.RateShiftBps = newer.RateShiftBps
	}
	return u
}

// coalesces reports whether a newer request of the same type supersedes this one.
func (m ClientMessage) coalesces() bool {
	return m.Type == TypeTune || m.Type == TypeStress
}

// ServerMessage is a response pushed to the UI.
type ServerMessage struct {
	Type         string                 `json:"type"`
	ConnectionID string                 `json:"connection_id,omitempty"`
	Protocol     string                 `json:"protocol,omitempty"`
	Portfolio    *portfolio.Portfolio   `json:"portfolio,omitempty"`
	Tuning       *scenario.TuningParams `json:"tuning,omitempty"`
	Impact       *scenario.Impact       `json:"impact,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

func errorMessage(err error) ServerMessage {
	return ServerMessage{Type: TypeError, Error: err.Error()}
}
