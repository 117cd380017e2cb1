package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/dgnsrekt/greekslab/internal/attribution"
	"github.com/dgnsrekt/greekslab/internal/config"
	"github.com/dgnsrekt/greekslab/internal/data"
	"github.com/dgnsrekt/greekslab/internal/notify"
	"github.com/dgnsrekt/greekslab/internal/portfolio"
	"github.com/dgnsrekt/greekslab/internal/pricing"
	"github.com/dgnsrekt/greekslab/internal/scenario"
	"github.com/dgnsrekt/greekslab/internal/surface"
	"github.com/dgnsrekt/greekslab/internal/tradingcal"
	"github.com/dgnsrekt/greekslab/internal/volsurface"
	"github.com/dgnsrekt/greekslab/internal/ws"
)

// maxResolution caps Greek-surface requests at 250k nodes.
const maxResolution = 500

type Server struct {
	config   *config.Config
	store    *data.SurfaceStore
	calendar *tradingcal.Calendar
	hub      *ws.Hub
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewServer creates the API handlers. hub may be nil when what-if sessions are disabled.
func NewServer(cfg *config.Config, hub *ws.Hub, notifier notify.Notifier, logger *zap.Logger) *Server {
	return &Server{
		config:   cfg,
		store:    data.NewSurfaceStore(cfg.Server.MaxSurfaces),
		calendar: tradingcal.New(),
		hub:      hub,
		notifier: notifier,
		logger:   logger,
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

type contractsRequest struct {
	Contracts []pricing.Contract `json:"contracts"`
}

// decodeContracts reads and validates a {"contracts": [...]} body.
func decodeContracts(r *http.Request) ([]pricing.Contract, error) {
	var req contractsRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if err := data.ValidateContracts(req.Contracts); err != nil {
		return nil, err
	}
	return req.Contracts, nil
}

type healthResponse struct {
	Status         string `json:"status"`
	Surfaces       int    `json:"surfaces"`
	WhatIfSessions int    `json:"whatif_sessions"`
	WhatIfEnabled  bool   `json:"whatif_enabled"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Surfaces: s.store.Len(), WhatIfEnabled: s.hub != nil}
	if s.hub != nil {
		resp.WhatIfSessions = s.hub.Count()
	}
	writeJSON(w, http.StatusOK, resp)
}

type priceResponse struct {
	portfolio.OptionMetrics
	ThetaPerDay float64 `json:"theta_per_day"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var c pricing.Contract
	if err := decode(r, &c); err != nil {
		s.writeError(w, err)
		return
	}
	if err := data.ValidateContracts([]pricing.Contract{c}); err != nil {
		s.writeError(w, err)
		return
	}

	m := portfolio.NewOptionMetrics(c)
	writeJSON(w, http.StatusOK, priceResponse{OptionMetrics: m, ThetaPerDay: m.Greeks.PerDayTheta()})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	contracts, err := decodeContracts(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p := portfolio.Aggregate(contracts)
	if err := checkFinite("portfolio", p); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]scenario.StressScenario{"scenarios": scenario.Presets()})
}

type stressRequest struct {
	Contracts []pricing.Contract       `json:"contracts"`
	Scenario  *scenario.StressScenario `json:"scenario"`
	Preset    string                   `json:"preset"`
	Alert     bool                     `json:"alert"`
}

type stressResponse struct {
	*scenario.Impact
	Alerted bool `json:"alerted,omitempty"`
}

func (s *Server) handleStress(w http.ResponseWriter, r *http.Request) {
	var req stressRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := data.ValidateContracts(req.Contracts); err != nil {
		s.writeError(w, err)
		return
	}

	var sc scenario.StressScenario
	switch {
	case req.Preset != "":
		preset, err := scenario.Lookup(req.Preset)
		if err != nil {
			s.writeError(w, err)
			return
		}
		sc = preset
	case req.Scenario != nil:
		sc = *req.Scenario
	default:
		s.writeError(w, fmt.Errorf("%w: scenario or preset is required", errMalformedBody))
		return
	}

	impact := scenario.RunStress(portfolio.Aggregate(req.Contracts), sc)
	if err := checkImpact(impact); err != nil {
		s.writeError(w, err)
		return
	}
	resp := stressResponse{Impact: impact}

	if req.Alert {
		sent, err := s.notifier.SendStressBreach(r.Context(), impact)
		if err != nil {
			// The stress result is still valid without the alert.
			s.logger.Warn("stress alert failed", zap.String("scenario", sc.Name), zap.Error(err))
		}
		resp.Alerted = sent
	}

	s.logger.Debug("stress computed",
		zap.String("scenario", sc.Name),
		zap.Int("positions", len(req.Contracts)),
		zap.Float64("pnl", impact.PnL),
	)
	writeJSON(w, http.StatusOK, resp)
}

type tuningRequest struct {
	Contracts []pricing.Contract    `json:"contracts"`
	Tuning    scenario.TuningParams `json:"tuning"`
}

func (s *Server) handleTuning(w http.ResponseWriter, r *http.Request) {
	// Omitted sliders decode over the neutral position, not zero.
	req := tuningRequest{Tuning: scenario.NeutralTuning()}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := data.ValidateContracts(req.Contracts); err != nil {
		s.writeError(w, err)
		return
	}
	impact := scenario.RunTuning(portfolio.Aggregate(req.Contracts), req.Tuning)
	if err := checkImpact(impact); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, impact)
}

type attributionRequest struct {
	Previous     []pricing.Contract `json:"previous"`
	Current      []pricing.Contract `json:"current"`
	ElapsedDays  *float64           `json:"elapsed_days"`
	PreviousAsOf string             `json:"previous_as_of"`
	CurrentAsOf  string             `json:"current_as_of"`
}

type attributionResponse struct {
	*attribution.Attribution
	ElapsedDays float64 `json:"elapsed_days"`
	TradingDays *int    `json:"trading_days,omitempty"`
}

func (s *Server) handleAttribution(w http.ResponseWriter, r *http.Request) {
	var req attributionRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	for _, side := range [][]pricing.Contract{req.Previous, req.Current} {
		if err := data.ValidateContracts(side); err != nil {
			s.writeError(w, err)
			return
		}
	}

	resp := attributionResponse{}
	switch {
	case req.ElapsedDays != nil:
		resp.ElapsedDays = *req.ElapsedDays
	case req.PreviousAsOf != "" && req.CurrentAsOf != "":
		days, err := s.calendar.ElapsedDays(req.PreviousAsOf, req.CurrentAsOf)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: %v", errMalformedBody, err))
			return
		}
		sessions, err := s.calendar.TradingDaysBetween(req.PreviousAsOf, req.CurrentAsOf)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.ElapsedDays = days
		resp.TradingDays = &sessions
	default:
		s.writeError(w, errMissingElapsed)
		return
	}

	attr, err := attribution.Attribute(portfolio.Aggregate(req.Current), portfolio.Aggregate(req.Previous), resp.ElapsedDays)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp.Attribution = attr
	writeJSON(w, http.StatusOK, resp)
}

type greekSurfaceRequest struct {
	Template      pricing.Contract `json:"template"`
	Measure       surface.Measure  `json:"measure"`
	StrikeRange   *surface.Range   `json:"strike_range"`
	MaturityRange *surface.Range   `json:"maturity_range"`
	Resolution    *int             `json:"resolution"`
}

// surfaceRequest fills omitted fields from the surface config section.
func (s *Server) surfaceRequest(in greekSurfaceRequest) surface.Request {
	cfg := s.config.Surface
	req := surface.Request{
		Template:   in.Template,
		Measure:    in.Measure,
		Strikes:    surface.Range{Min: in.Template.Spot * cfg.StrikeLowPct, Max: in.Template.Spot * cfg.StrikeHighPct},
		Maturities: surface.Range{Min: cfg.MaturityMin, Max: cfg.MaturityMax},
		Resolution: cfg.Resolution,
		Workers:    cfg.Workers,
	}
	if in.StrikeRange != nil {
		req.Strikes = *in.StrikeRange
	}
	if in.MaturityRange != nil {
		req.Maturities = *in.MaturityRange
	}
	if in.Resolution != nil {
		req.Resolution = *in.Resolution
	}
	return req
}

func (s *Server) handleGreekSurface(w http.ResponseWriter, r *http.Request) {
	var in greekSurfaceRequest
	if err := decode(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	if err := data.ValidateContracts([]pricing.Contract{in.Template}); err != nil {
		s.writeError(w, err)
		return
	}

	req := s.surfaceRequest(in)
	if req.Resolution > maxResolution {
		s.writeError(w, fmt.Errorf("%w: %d > %d", errResolutionCap, req.Resolution, maxResolution))
		return
	}

	gs, err := surface.Sample(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

type volSurfaceSummary struct {
	ID         string    `json:"id"`
	Strikes    []float64 `json:"strikes"`
	Maturities []float64 `json:"maturities"`
	Missing    int       `json:"missing"`
	Evicted    string    `json:"evicted,omitempty"`
}

func (s *Server) handleListVolSurfaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"ids": s.store.IDs()})
}

func (s *Server) handleCreateVolSurface(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Points []volsurface.Point `json:"points"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	grid, err := volsurface.Build(req.Points)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if grid.Missing > 0 {
		s.logger.Warn("volatility surface has missing cells",
			zap.Int("missing", grid.Missing),
			zap.Int("cells", len(grid.Strikes)*len(grid.Maturities)),
		)
	}

	rec, evicted := s.store.Put(grid)
	if evicted != "" {
		s.logger.Info("evicted volatility surface", zap.String("id", evicted))
	}

	writeJSON(w, http.StatusCreated, volSurfaceSummary{
		ID:         rec.ID,
		Strikes:    grid.Strikes,
		Maturities: grid.Maturities,
		Missing:    grid.Missing,
		Evicted:    evicted,
	})
}

func (s *Server) handleGetVolSurface(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteVolSurface(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type volQueryResponse struct {
	Strike     float64 `json:"strike"`
	Maturity   float64 `json:"maturity"`
	Volatility float64 `json:"volatility"`
}

func (s *Server) handleQueryVolSurface(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var q volQueryResponse
	if err := runtime.BindQueryParameter("form", true, true, "strike", r.URL.Query(), &q.Strike); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errMalformedBody, err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "maturity", r.URL.Query(), &q.Maturity); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errMalformedBody, err))
		return
	}

	q.Volatility = rec.Grid.Query(q.Strike, q.Maturity)
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handlePriceWithVolSurface(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	contracts, err := decodeContracts(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	priced := make([]pricing.Contract, len(contracts))
	for i, c := range contracts {
		priced[i] = rec.Grid.Apply(c)
	}
	// Missing grid cells interpolate toward zero volatility.
	if err := data.ValidateContracts(priced); err != nil {
		s.writeError(w, err)
		return
	}
	p := portfolio.Aggregate(priced)
	if err := checkFinite("portfolio", p); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
