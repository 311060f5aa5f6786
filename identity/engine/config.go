package engine

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the engine's tunables. Zero values are replaced by defaults in
// [Config.withDefaults].
type Config struct {
	RedisPrefix string `env:"AUTHFLOW_REDIS_PREFIX" envDefault:"af"`

	SessionTTL time.Duration `env:"AUTHFLOW_SESSION_TTL" envDefault:"24h"`
	JWTMethod  string        `env:"AUTHFLOW_JWT_METHOD"  envDefault:"hs256"`
	JWTKey     string        `env:"AUTHFLOW_JWT_KEY"`
	JWTIssuer  string        `env:"AUTHFLOW_JWT_ISSUER"  envDefault:"authflow"`

	PasswordMinLength int    `env:"AUTHFLOW_PASSWORD_MIN_LENGTH" envDefault:"6"`
	Argon2MemoryKB    uint32 `env:"AUTHFLOW_ARGON2_MEMORY_KB"    envDefault:"65536"`
	Argon2Time        uint32 `env:"AUTHFLOW_ARGON2_TIME"         envDefault:"3"`

	ResetTTL         time.Duration `env:"AUTHFLOW_RESET_TTL"          envDefault:"15m"`
	ResetMaxAttempts int           `env:"AUTHFLOW_RESET_MAX_ATTEMPTS" envDefault:"5"`
	ResetLinkBase    string        `env:"AUTHFLOW_RESET_LINK_BASE"    envDefault:"authflow://reset-password"`

	EnumerationDelayMin time.Duration `env:"AUTHFLOW_ENUMERATION_DELAY_MIN" envDefault:"20ms"`
	EnumerationDelayMax time.Duration `env:"AUTHFLOW_ENUMERATION_DELAY_MAX" envDefault:"40ms"`

	EnableIPThrottle  bool          `env:"AUTHFLOW_IP_THROTTLE"        envDefault:"true"`
	MaxSignInFailures int           `env:"AUTHFLOW_MAX_SIGNIN_FAILURES" envDefault:"5"`
	SignInCooldown    time.Duration `env:"AUTHFLOW_SIGNIN_COOLDOWN"     envDefault:"15m"`
	RequestWindow     time.Duration `env:"AUTHFLOW_REQUEST_WINDOW"      envDefault:"1h"`
	MaxSignUps        int           `env:"AUTHFLOW_MAX_SIGNUPS"         envDefault:"10"`
	MaxResetRequests  int           `env:"AUTHFLOW_MAX_RESET_REQUESTS"  envDefault:"5"`
	MaxResetConfirms  int           `env:"AUTHFLOW_MAX_RESET_CONFIRMS"  envDefault:"10"`

	AuditBuffer int `env:"AUTHFLOW_AUDIT_BUFFER" envDefault:"256"`
}

// DefaultConfig returns the same values LoadConfigFromEnv yields with an
// empty environment, minus the JWT key.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

// LoadConfigFromEnv reads AUTHFLOW_* variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.RedisPrefix == "" {
		c.RedisPrefix = "af"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.JWTMethod == "" {
		c.JWTMethod = "hs256"
	}
	if c.JWTIssuer == "" {
		c.JWTIssuer = "authflow"
	}
	if c.PasswordMinLength == 0 {
		c.PasswordMinLength = 6
	}
	if c.Argon2MemoryKB == 0 {
		c.Argon2MemoryKB = 64 * 1024
	}
	if c.Argon2Time == 0 {
		c.Argon2Time = 3
	}
	if c.ResetTTL == 0 {
		c.ResetTTL = 15 * time.Minute
	}
	if c.ResetMaxAttempts == 0 {
		c.ResetMaxAttempts = 5
	}
	if c.ResetLinkBase == "" {
		c.ResetLinkBase = "authflow://reset-password"
	}
	if c.EnumerationDelayMin == 0 && c.EnumerationDelayMax == 0 {
		c.EnumerationDelayMin = 20 * time.Millisecond
		c.EnumerationDelayMax = 40 * time.Millisecond
	}
	if c.MaxSignInFailures == 0 {
		c.MaxSignInFailures = 5
	}
	if c.SignInCooldown == 0 {
		c.SignInCooldown = 15 * time.Minute
	}
	if c.RequestWindow == 0 {
		c.RequestWindow = time.Hour
	}
	if c.AuditBuffer == 0 {
		c.AuditBuffer = 256
	}
	return c
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.JWTKey == "" {
		return errors.New("engine: JWT key is required")
	}
	if c.PasswordMinLength < 6 {
		return errors.New("engine: password minimum length must be at least 6")
	}
	if c.ResetMaxAttempts < 1 {
		return errors.New("engine: reset max attempts must be positive")
	}
	if c.EnumerationDelayMax < c.EnumerationDelayMin {
		return errors.New("engine: enumeration delay max is below min")
	}
	if c.ResetTTL <= 0 || c.SessionTTL <= 0 {
		return errors.New("engine: TTLs must be positive")
	}
	return nil
}
