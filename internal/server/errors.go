package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dgnsrekt/greekslab/internal/attribution"
	"github.com/dgnsrekt/greekslab/internal/data"
	"github.com/dgnsrekt/greekslab/internal/portfolio"
	"github.com/dgnsrekt/greekslab/internal/pricing"
	"github.com/dgnsrekt/greekslab/internal/scenario"
	"github.com/dgnsrekt/greekslab/internal/surface"
	"github.com/dgnsrekt/greekslab/internal/tradingcal"
	"github.com/dgnsrekt/greekslab/internal/volsurface"
)

var (
	errMalformedBody  = errors.New("malformed request body")
	errMissingElapsed = errors.New("elapsed_days or both previous_as_of and current_as_of are required")
	errResolutionCap  = errors.New("resolution exceeds server limit")
	errNonFinite      = errors.New("result is not finite")
)

type errorResponse struct {
	Error   string                 `json:"error"`
	Details []data.ValidationError `json:"details,omitempty"`
}

// writeJSON encodes v before committing the status so an unencodable value
// (NaN or Inf) becomes an error response instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		var unsupported *json.UnsupportedValueError
		if errors.As(err, &unsupported) {
			status = http.StatusUnprocessableEntity
		}
		body, _ = json.Marshal(errorResponse{Error: fmt.Sprintf("%v: %v", errNonFinite, err)})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func greeksFinite(g pricing.Greeks) bool {
	return finite(g.Delta) && finite(g.Gamma) && finite(g.Theta) && finite(g.Vega) && finite(g.Rho)
}

// checkFinite names every position of p whose price, value or Greeks are NaN
// or infinite. label identifies the portfolio in the message.
func checkFinite(label string, p *portfolio.Portfolio) error {
	var bad []string
	for i, pos := range p.Positions {
		if !finite(pos.Price) || !finite(pos.TotalValue) || !greeksFinite(pos.Greeks) {
			bad = append(bad, fmt.Sprintf("%d (%s %s)", i, pos.Ticker, pos.Type))
		}
	}
	switch {
	case len(bad) > 0:
		return fmt.Errorf("%w: %s positions %s", errNonFinite, label, strings.Join(bad, ", "))
	case !finite(p.TotalValue) || !greeksFinite(p.Greeks):
		return fmt.Errorf("%w: %s totals", errNonFinite, label)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verrs *data.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, data.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errMalformedBody),
		errors.Is(err, errMissingElapsed),
		errors.Is(err, scenario.ErrUnknownScenario),
		errors.Is(err, surface.ErrUnknownMeasure),
		errors.Is(err, tradingcal.ErrNegativeInterval):
		return http.StatusBadRequest
	case errors.Is(err, attribution.ErrLengthMismatch),
		errors.Is(err, attribution.ErrPositionMismatch),
		errors.Is(err, attribution.ErrQuantityMismatch),
		errors.Is(err, volsurface.ErrEmptySurface),
		errors.Is(err, volsurface.ErrInvalidPoint),
		errors.Is(err, surface.ErrResolution),
		errors.Is(err, surface.ErrRange),
		errors.Is(err, errResolutionCap),
		errors.Is(err, errNonFinite):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var verrs *data.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Error = "invalid input"
		resp.Details = verrs.Errors
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func checkImpact(impact *scenario.Impact) error {
	if err := checkFinite("base", impact.Base); err != nil {
		return err
	}
	return checkFinite("shocked", impact.Shocked)
}
