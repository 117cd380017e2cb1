package ws

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"golang.org/x/time/rate"

	"github.com/dgnsrekt/greekslab/internal/config"
	"github.com/dgnsrekt/greekslab/internal/data"
	"github.com/dgnsrekt/greekslab/internal/portfolio"
	"github.com/dgnsrekt/greekslab/internal/scenario"
)

var (
	ErrNoPortfolio  = errors.New("no portfolio loaded")
	ErrUnknownType  = errors.New("unknown message type")
	ErrQueueFull    = errors.New("too many pending requests")
	ErrMissingInput = errors.New("missing field")
)

const maxPending = 32

// Session is the what-if state of one connection: the loaded portfolio and
// the current slider positions.
type Session struct {
	limits config.WhatIfConfig
	base   *portfolio.Portfolio
	tuning scenario.TuningParams
}

func NewSession(limits config.WhatIfConfig) *Session {
	return &Session{limits: limits, tuning: scenario.NeutralTuning()}
}

// Clamp bounds the sliders to the configured ranges.
func (s *Session) Clamp(t scenario.TuningParams) scenario.TuningParams {
	t.VolatilityMultiplier = clamp(t.VolatilityMultiplier, s.limits.MinVolMultiplier, s.limits.MaxVolMultiplier)
	t.TimeDecayDays = clamp(t.TimeDecayDays, 0, s.limits.MaxDecayDays)
	if math.IsNaN(t.RateShiftBps) || math.IsInf(t.RateShiftBps, 0) {
		t.RateShiftBps = 0
	}
	return t
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Handle applies one request and returns the response to send.
func (s *Session) Handle(m ClientMessage) ServerMessage {
	switch m.Type {
	case TypeLoad:
		if err := data.ValidateContracts(m.Contracts); err != nil {
			return errorMessage(err)
		}
		s.base = portfolio.Aggregate(m.Contracts)
		s.tuning = scenario.NeutralTuning()
		return ServerMessage{Type: TypePortfolio, Portfolio: s.base}

	case TypeReset:
		if s.base == nil {
			return errorMessage(ErrNoPortfolio)
		}
		s.tuning = scenario.NeutralTuning()
		return ServerMessage{Type: TypePortfolio, Portfolio: s.base}

	case TypeTune:
		if s.base == nil {
			return errorMessage(ErrNoPortfolio)
		}
		if m.Tuning == nil {
			return errorMessage(fmt.Errorf("%w: tuning", ErrMissingInput))
		}
		s.tuning = s.Clamp(m.Tuning.Apply(s.tuning))
		t := s.tuning
		return ServerMessage{Type: TypeTuned, Tuning: &t, Impact: scenario.RunTuning(s.base, t)}

	case TypeStress:
		if s.base == nil {
			return errorMessage(ErrNoPortfolio)
		}
		sc, err := resolveScenario(m)
		if err != nil {
			return errorMessage(err)
		}
		// Stress is applied on top of the current sliders.
		tuned := scenario.ApplyTuning(s.base, s.tuning)
		t := s.tuning
		return ServerMessage{Type: TypeStressed, Tuning: &t, Impact: scenario.RunStress(tuned, sc)}

	default:
		return errorMessage(fmt.Errorf("%w: %q", ErrUnknownType, m.Type))
	}
}

func resolveScenario(m ClientMessage) (scenario.StressScenario, error) {
	if m.Preset != "" {
		return scenario.Lookup(m.Preset)
	}
	if m.Scenario == nil {
		return scenario.StressScenario{}, fmt.Errorf("%w: scenario or preset", ErrMissingInput)
	}
	return *m.Scenario, nil
}

// requestQueue holds pending requests in arrival order. A tune or stress
// request replaces a trailing request of the same type, so the newest slider
// position wins when the client outpaces the limiter.
type requestQueue struct {
	mu      sync.Mutex
	pending []ClientMessage
	wake    chan struct{}
}

func newRequestQueue() *requestQueue {
	return &requestQueue{wake: make(chan struct{}, 1)}
}

func (q *requestQueue) push(m ClientMessage) error {
	q.mu.Lock()
	n := len(q.pending)
	switch {
	case n > 0 && m.coalesces() && q.pending[n-1].Type == m.Type:
		// Partial slider moves accumulate so a superseded field is not lost.
		if prev := q.pending[n-1].Tuning; prev != nil && m.Tuning != nil {
			merged := prev.merge(*m.Tuning)
			m.Tuning = &merged
		}
		q.pending[n-1] = m
	case n >= maxPending:
		q.mu.Unlock()
		return ErrQueueFull
	default:
		q.pending = append(q.pending, m)
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *requestQueue) peek() (ClientMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return ClientMessage{}, false
	}
	return q.pending[0], true
}

func (q *requestQueue) pop() (ClientMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return ClientMessage{}, false
	}
	m := q.pending[0]
	q.pending = q.pending[1:]
	return m, true
}

// process drains the queue until ctx is done. Only tune and stress requests
// consume limiter tokens; the request is taken after the wait so a newer
// slider position queued meanwhile is the one computed.
func (q *requestQueue) process(ctx context.Context, s *Session, limiter *rate.Limiter, out func(ServerMessage)) {
	for ctx.Err() == nil {
		head, ok := q.peek()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
				continue
			}
		}

		if head.coalesces() {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}
		m, ok := q.pop()
		if !ok {
			continue
		}
		out(s.Handle(m))
	}
}
