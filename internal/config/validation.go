package config

import (
	"fmt"
	"strings"
)

// ValidationErrors collects every invalid setting found by Validate.
type ValidationErrors struct {
	Problems []string
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Problems) > 0
}

func (e *ValidationErrors) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, p := range e.Problems {
		sb.WriteString(fmt.Sprintf("  - %s\n", p))
	}
	return sb.String()
}

func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.Server.Port == "" {
		errs.add("server.port is required")
	}
	if c.Server.MaxSurfaces < 1 {
		errs.add("server.max_surfaces must be >= 1")
	}

	s := c.Surface
	if s.Resolution < 2 {
		errs.add("surface.resolution must be >= 2 (got %d)", s.Resolution)
	}
	if s.StrikeLowPct <= 0 || s.StrikeLowPct >= s.StrikeHighPct {
		errs.add("surface.strike_low_pct must be > 0 and below strike_high_pct (got %v..%v)", s.StrikeLowPct, s.StrikeHighPct)
	}
	if s.MaturityMin <= 0 || s.MaturityMin >= s.MaturityMax {
		errs.add("surface.maturity_min must be > 0 and below maturity_max (got %v..%v)", s.MaturityMin, s.MaturityMax)
	}
	if s.Workers < 0 {
		errs.add("surface.workers must be >= 0")
	}

	w := c.WhatIf
	if w.RatePerSecond <= 0 {
		errs.add("whatif.rate_per_second must be > 0")
	}
	if w.Burst < 1 {
		errs.add("whatif.burst must be >= 1")
	}
	if w.MinVolMultiplier < 0 || w.MinVolMultiplier > w.MaxVolMultiplier {
		errs.add("whatif.min_vol_multiplier must be >= 0 and <= max_vol_multiplier")
	}
	if w.MaxDecayDays < 0 {
		errs.add("whatif.max_decay_days must be >= 0")
	}

	if !ValidLogLevels[strings.ToLower(c.Logging.Level)] {
		errs.add("invalid logging.level: %s (valid: %s)", c.Logging.Level, strings.Join(logLevelNames, ", "))
	}

	if c.Notify.Enabled {
		if c.Notify.Topic == "" {
			errs.add("notify.topic is required when notify.enabled=true (set GREEKSLAB_NOTIFY_TOPIC)")
		}
		if !ValidPriorities[c.Notify.Priority] {
			errs.add("invalid notify.priority: %s (valid: min, low, default, high, urgent)", c.Notify.Priority)
		}
		if c.Notify.LossThresholdPct <= 0 {
			errs.add("notify.loss_threshold_pct must be > 0")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
