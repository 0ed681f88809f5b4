package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/retrypolicy/internal/core/retry"
)

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	return &AppConfig{
		Server:  ServerConfig{Port: 8080},
		Logging: LoggingConfig{Level: "info"},
		Retry:   retry.DefaultConfig(),
		Storage: StorageConfig{Driver: DriverMemory, Namespace: "default"},
	}
}

// Load reads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) normalize() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	if c.Storage.Namespace == "" {
		c.Storage.Namespace = "default"
	}

	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	policy, err := retry.NewConfig(c.Retry)
	if err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	c.Retry = policy

	if _, err := c.TaxonomyOverrides(); err != nil {
		return fmt.Errorf("taxonomy: %w", err)
	}
	return nil
}
