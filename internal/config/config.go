package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Surface SurfaceConfig `mapstructure:"surface"`
	WhatIf  WhatIfConfig  `mapstructure:"whatif"`
	Logging LoggingConfig `mapstructure:"logging"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxSurfaces  int           `mapstructure:"max_surfaces"`
}

// SurfaceConfig sets the default Greek-surface grid. Strike bounds are
// fractions of the template's spot.
type SurfaceConfig struct {
	Resolution    int     `mapstructure:"resolution"`
	StrikeLowPct  float64 `mapstructure:"strike_low_pct"`
	StrikeHighPct float64 `mapstructure:"strike_high_pct"`
	MaturityMin   float64 `mapstructure:"maturity_min"`
	MaturityMax   float64 `mapstructure:"maturity_max"`
	Workers       int     `mapstructure:"workers"`
}

// WhatIfConfig bounds the interactive tuning sliders of WebSocket sessions.
type WhatIfConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	RatePerSecond    float64 `mapstructure:"rate_per_second"`
	Burst            int     `mapstructure:"burst"`
	MinVolMultiplier float64 `mapstructure:"min_vol_multiplier"`
	MaxVolMultiplier float64 `mapstructure:"max_vol_multiplier"`
	MaxDecayDays     float64 `mapstructure:"max_decay_days"`
}

type LoggingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Directory   string `mapstructure:"directory"`
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// NotifyConfig configures ntfy alerts for stress-test breaches.
type NotifyConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	Server           string  `mapstructure:"server"`
	Topic            string  `mapstructure:"topic"`
	Priority         string  `mapstructure:"priority"`
	Tags             string  `mapstructure:"tags"`
	Token            string  `mapstructure:"token"`
	LossThresholdPct float64 `mapstructure:"loss_threshold_pct"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_surfaces", 64)
	v.SetDefault("surface.resolution", 40)
	v.SetDefault("surface.strike_low_pct", 0.7)
	v.SetDefault("surface.strike_high_pct", 1.3)
	v.SetDefault("surface.maturity_min", 0.1)
	v.SetDefault("surface.maturity_max", 2.0)
	v.SetDefault("surface.workers", 0)
	v.SetDefault("whatif.enabled", true)
	v.SetDefault("whatif.rate_per_second", 10)
	v.SetDefault("whatif.burst", 5)
	v.SetDefault("whatif.min_vol_multiplier", 0.5)
	v.SetDefault("whatif.max_vol_multiplier", 2.0)
	v.SetDefault("whatif.max_decay_days", 365)
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server", "https://ntfy.sh")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("notify.tags", "chart_with_downwards_trend")
	v.SetDefault("notify.loss_threshold_pct", 10)
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment variable support
	v.SetEnvPrefix("GREEKSLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Keys without a default are invisible to AutomaticEnv during Unmarshal
	_ = v.BindEnv("notify.topic", "GREEKSLAB_NOTIFY_TOPIC")
	_ = v.BindEnv("notify.token", "GREEKSLAB_NOTIFY_TOKEN")
	_ = v.BindEnv("server.port", "GREEKSLAB_SERVER_PORT", "PORT")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without reading files or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
