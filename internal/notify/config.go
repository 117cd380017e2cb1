package notify

import "github.com/dgnsrekt/greekslab/internal/config"

// Config holds ntfy notification configuration.
type Config struct {
	Enabled          bool    // Whether notifications are enabled
	Server           string  // ntfy server URL (default: https://ntfy.sh)
	Topic            string  // Topic name (required if enabled)
	Priority         string  // Message priority: min, low, default, high, urgent
	Tags             string  // Comma-separated emoji tags
	Token            string  // Optional access token for private topics
	LossThresholdPct float64 // Alert when a scenario loses at least this share of base value
}

// FromConfig maps the notify section of the application config.
func FromConfig(c config.NotifyConfig) *Config {
	return &Config{
		Enabled:          c.Enabled,
		Server:           c.Server,
		Topic:            c.Topic,
		Priority:         c.Priority,
		Tags:             c.Tags,
		Token:            c.Token,
		LossThresholdPct: c.LossThresholdPct,
	}
}
