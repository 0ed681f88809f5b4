package retry

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid retry config")

// Config defines retry behavior. It is built once and shared read-only.
type Config struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	JitterFactor      float64       `yaml:"jitter_factor"`      // 0.0-1.0, fraction of the delay randomized
	BackoffMultiplier float64       `yaml:"backoff_multiplier"` // growth per attempt
	// ThrottlingMultiplier amplifies the delay for KindThrottling only.
	ThrottlingMultiplier float64 `yaml:"throttling_multiplier"`
}

// Default configuration values
const (
	DefaultMaxAttempts          = 5
	DefaultBaseDelay            = 100 * time.Millisecond
	DefaultMaxDelay             = 20 * time.Second
	DefaultJitterFactor         = 0.2
	DefaultBackoffMultiplier    = 2.0
	DefaultThrottlingMultiplier = 2.0
)

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:          DefaultMaxAttempts,
		BaseDelay:            DefaultBaseDelay,
		MaxDelay:             DefaultMaxDelay,
		JitterFactor:         DefaultJitterFactor,
		BackoffMultiplier:    DefaultBackoffMultiplier,
		ThrottlingMultiplier: DefaultThrottlingMultiplier,
	}
}

// NewConfig fills zero fields from DefaultConfig and validates the result.
func NewConfig(cfg Config) (Config, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxAttempts == 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = def.BaseDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = def.MaxDelay
		if c.MaxDelay < c.BaseDelay {
			c.MaxDelay = c.BaseDelay
		}
	}
	if c.BackoffMultiplier == 0 {
		c.BackoffMultiplier = def.BackoffMultiplier
	}
	if c.ThrottlingMultiplier == 0 {
		c.ThrottlingMultiplier = def.ThrottlingMultiplier
	}
	return c
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.BaseDelay <= 0 {
		return fmt.Errorf("%w: base delay must be greater than zero", ErrInvalidConfig)
	}
	if c.MaxDelay < c.BaseDelay {
		return fmt.Errorf("%w: max delay %s is below base delay %s", ErrInvalidConfig, c.MaxDelay, c.BaseDelay)
	}
	if c.JitterFactor < 0 || c.JitterFactor > 1 {
		return fmt.Errorf("%w: jitter factor must be within [0,1], got %v", ErrInvalidConfig, c.JitterFactor)
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("%w: backoff multiplier must be greater than 1, got %v", ErrInvalidConfig, c.BackoffMultiplier)
	}
	if c.ThrottlingMultiplier < 1 {
		return fmt.Errorf("%w: throttling multiplier must be at least 1, got %v", ErrInvalidConfig, c.ThrottlingMultiplier)
	}
	return nil
}

// normalized coerces any config into one Evaluate can work with. Evaluate
// must return a decision for every input, so it never rejects a config.
func (c Config) normalized() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.BaseDelay < 0 {
		c.BaseDelay = 0
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	switch {
	case c.JitterFactor < 0:
		c.JitterFactor = 0
	case c.JitterFactor > 1:
		c.JitterFactor = 1
	}
	if c.BackoffMultiplier < 1 {
		c.BackoffMultiplier = 1
	}
	if c.ThrottlingMultiplier < 1 {
		c.ThrottlingMultiplier = DefaultThrottlingMultiplier
	}
	return c
}
