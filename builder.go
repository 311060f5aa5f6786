package authflow

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/authflow/identity"
)

// Builder assembles a [Controller]. A Builder is single-use.
type Builder struct {
	config    Config
	service   identity.Service
	navigator Navigator
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a Builder holding DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithService sets the identity service every screen calls.
func (b *Builder) WithService(svc identity.Service) *Builder {
	b.service = svc
	return b
}

// WithNavigator sets the screen switcher.
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithLogger sets the logger. Identity failures are logged at debug level.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink sets the sink and enables audit dispatch.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration, requires a service and a navigator, and
// subscribes the controller to the service's session signal.
func (b *Builder) Build() (*Controller, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.service == nil {
		return nil, errors.New("identity service required")
	}
	if b.navigator == nil {
		return nil, errors.New("navigator required")
	}
	if b.service.Session() == nil {
		return nil, errors.New("identity service exposes no session signal")
	}

	b.built = true
	return newController(cfg, b.service, b.navigator, b.logger, b.auditSink), nil
}
