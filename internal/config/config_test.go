package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults to load, got error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got '%s'", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected 30s read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Surface.Resolution != 40 {
		t.Errorf("expected resolution 40, got %d", cfg.Surface.Resolution)
	}
	if cfg.Surface.StrikeLowPct != 0.7 || cfg.Surface.StrikeHighPct != 1.3 {
		t.Errorf("unexpected strike bounds %v..%v", cfg.Surface.StrikeLowPct, cfg.Surface.StrikeHighPct)
	}
	if cfg.WhatIf.Burst != 5 || cfg.WhatIf.RatePerSecond != 10 {
		t.Errorf("unexpected what-if limiter %+v", cfg.WhatIf)
	}
	if cfg.Notify.Enabled {
		t.Error("notifications should be disabled by default")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GREEKSLAB_SURFACE_RESOLUTION", "25")
	t.Setenv("GREEKSLAB_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Surface.Resolution != 25 {
		t.Errorf("expected env resolution 25, got %d", cfg.Surface.Resolution)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greekslab.yaml")
	content := []byte("server:\n  port: \"9090\"\nwhatif:\n  max_decay_days: 30\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.WhatIf.MaxDecayDays != 30 {
		t.Errorf("expected max decay 30, got %v", cfg.WhatIf.MaxDecayDays)
	}
	if cfg.Surface.Resolution != 40 {
		t.Errorf("defaults should survive a partial file, got resolution %d", cfg.Surface.Resolution)
	}
}

func TestLoadNotifyWithoutTopic(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GREEKSLAB_NOTIFY_ENABLED", "true")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error when notify is enabled without a topic")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}
