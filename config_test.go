package authflow

import (
	"testing"
	"time"
)

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("defaults differ: %+v vs %+v", cfg, DefaultConfig())
	}
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("AUTHFLOW_LANGUAGE", "es")
	t.Setenv("AUTHFLOW_ACTION_TIMEOUT", "5s")
	t.Setenv("AUTHFLOW_AUDIT_ENABLED", "true")
	t.Setenv("AUTHFLOW_AUDIT_BUFFER_SIZE", "16")
	t.Setenv("AUTHFLOW_METRICS_LATENCY_HISTOGRAMS", "true")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Language != "es" || cfg.ActionTimeout != 5*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.Audit.Enabled || cfg.Audit.BufferSize != 16 || !cfg.Audit.DropIfFull {
		t.Fatalf("unexpected audit config %+v", cfg.Audit)
	}
	if !cfg.Metrics.Enabled || !cfg.Metrics.EnableLatencyHistograms {
		t.Fatalf("unexpected metrics config %+v", cfg.Metrics)
	}
}

func TestLoadConfigFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("AUTHFLOW_ACTION_TIMEOUT", "soon")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ActionTimeout = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected negative timeout error")
	}

	cfg = DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected buffer size error")
	}

	cfg = DefaultConfig()
	cfg.Language = "not a tag!"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected language error")
	}
}
