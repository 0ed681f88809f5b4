package config

import (
	"time"

	"github.com/vietddude/retrypolicy/internal/core/retry"
	redisclient "github.com/vietddude/retrypolicy/internal/infra/redis"
	"github.com/vietddude/retrypolicy/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Retry    retry.Config       `yaml:"retry"`
	Taxonomy map[string]string  `yaml:"taxonomy"` // category -> kind name
	Storage  StorageConfig      `yaml:"storage"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
	// DegradedAfter reports the system degraded once this many failures are
	// journaled. Zero disables the threshold.
	DegradedAfter int `yaml:"degraded_after"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// StorageConfig selects the failed operation journal backend.
type StorageConfig struct {
	Driver    string        `yaml:"driver"`    // memory, postgres, redis
	Namespace string        `yaml:"namespace"` // redis key namespace
	Retention time.Duration `yaml:"retention"` // prune older failures, 0 keeps forever
}

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// TaxonomyOverrides parses the taxonomy section into engine kinds.
func (c *AppConfig) TaxonomyOverrides() (map[string]retry.Kind, error) {
	out := make(map[string]retry.Kind, len(c.Taxonomy))
	for category, name := range c.Taxonomy {
		kind, err := retry.ParseKind(name)
		if err != nil {
			return nil, err
		}
		out[category] = kind
	}
	return out, nil
}

// Engine builds a retry engine using the default taxonomy plus overrides.
func (c *AppConfig) Engine() (*retry.Engine, error) {
	overrides, err := c.TaxonomyOverrides()
	if err != nil {
		return nil, err
	}
	return retry.NewEngine(retry.WithTaxonomy(retry.DefaultTaxonomy().Merge(overrides))), nil
}
