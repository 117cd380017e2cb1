package scenario

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownScenario is returned by Lookup for names without a preset.
var ErrUnknownScenario = errors.New("unknown scenario")

var presets = map[string]StressScenario{
	"crash": {
		Name:          "crash",
		Description:   "Equity crash: spot -20%, implied volatility +50%",
		SpotPctChange: -20,
		VolPctChange:  50,
	},
	"correction": {
		Name:          "correction",
		Description:   "Orderly correction: spot -10%, implied volatility +25%",
		SpotPctChange: -10,
		VolPctChange:  25,
	},
	"rally": {
		Name:          "rally",
		Description:   "Broad rally: spot +15%, implied volatility -20%",
		SpotPctChange: 15,
		VolPctChange:  -20,
	},
	"vol_spike": {
		Name:         "vol_spike",
		Description:  "Volatility doubles with spot unchanged",
		VolPctChange: 100,
	},
	"vol_crush": {
		Name:         "vol_crush",
		Description:  "Post-event volatility crush: implied volatility -40%",
		VolPctChange: -40,
	},
	"rate_hike": {
		Name:         "rate_hike",
		Description:  "Risk-free rate up one point",
		RateShiftBps: 1,
	},
	"rate_cut": {
		Name:         "rate_cut",
		Description:  "Risk-free rate down one point",
		RateShiftBps: -1,
	},
}

// Presets returns the built-in scenarios sorted by name.
func Presets() []StressScenario {
	out := make([]StressScenario, 0, len(presets))
	for _, s := range presets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the preset with the given name.
func Lookup(name string) (StressScenario, error) {
	s, ok := presets[name]
	if !ok {
		return StressScenario{}, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	return s, nil
}
