package authflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Config controls controller behavior. Zero values are replaced by defaults
// in Builder.Build.
type Config struct {
	// Language is a BCP 47 tag selecting the message locale.
	Language string `env:"LANGUAGE" envDefault:"en"`
	// ActionTimeout bounds every identity call made by a screen action.
	ActionTimeout time.Duration `env:"ACTION_TIMEOUT" envDefault:"30s"`

	Audit   AuditConfig   `envPrefix:"AUDIT_"`
	Metrics MetricsConfig `envPrefix:"METRICS_"`
}

// AuditConfig controls asynchronous audit dispatch.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED" envDefault:"false"`
	BufferSize int  `env:"BUFFER_SIZE" envDefault:"256"`
	DropIfFull bool `env:"DROP_IF_FULL" envDefault:"true"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED" envDefault:"true"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS" envDefault:"false"`
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig returns the values LoadConfigFromEnv produces with an empty
// environment.
func DefaultConfig() Config {
	return Config{
		Language:      "en",
		ActionTimeout: 30 * time.Second,
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// LoadConfigFromEnv reads AUTHFLOW_* variables, for example
// AUTHFLOW_LANGUAGE, AUTHFLOW_ACTION_TIMEOUT and AUTHFLOW_AUDIT_ENABLED.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "AUTHFLOW_"}); err != nil {
		return Config{}, fmt.Errorf("parse authflow env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate describes the validate operation and its observable behavior.
//
// Validate returns an error for an unparseable language tag, a negative
// timeout, or an enabled audit pipeline without a buffer.
func (c Config) Validate() error {
	if c.Language != "" {
		if _, err := language.Parse(c.Language); err != nil {
			return fmt.Errorf("authflow: language %q: %w", c.Language, err)
		}
	}
	if c.ActionTimeout < 0 {
		return errors.New("authflow: ActionTimeout must be >= 0")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("authflow: Audit.BufferSize must be > 0 when audit is enabled")
	}
	return nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Language == "" {
		c.Language = def.Language
	}
	if c.ActionTimeout == 0 {
		c.ActionTimeout = def.ActionTimeout
	}
	if c.Audit.BufferSize == 0 {
		c.Audit.BufferSize = def.Audit.BufferSize
	}
	return c
}
