package ws

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// NegotiateResponse tells a UI where to open its what-if session.
type NegotiateResponse struct {
	URL          string          `json:"url"`
	Subprotocols []string        `json:"subprotocols"`
	Limits       NegotiateLimits `json:"limits"`
}

// NegotiateLimits are the slider bounds the server clamps to.
type NegotiateLimits struct {
	MinVolMultiplier float64 `json:"min_vol_multiplier"`
	MaxVolMultiplier float64 `json:"max_vol_multiplier"`
	MaxDecayDays     float64 `json:"max_decay_days"`
	RatePerSecond    float64 `json:"rate_per_second"`
}

// HandleNegotiate handles GET /ws/negotiate.
func (h *Hub) HandleNegotiate(w http.ResponseWriter, r *http.Request) {
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}

	response := NegotiateResponse{
		URL:          fmt.Sprintf("%s://%s/ws/whatif", scheme, r.Host),
		Subprotocols: []string{ProtocolJSON, ProtocolProtobuf},
		Limits: NegotiateLimits{
			MinVolMultiplier: h.limits.MinVolMultiplier,
			MaxVolMultiplier: h.limits.MaxVolMultiplier,
			MaxDecayDays:     h.limits.MaxDecayDays,
			RatePerSecond:    h.limits.RatePerSecond,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode negotiate response", zap.Error(err))
	}
}
