// Package config loads the bot's configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/ridebot/core/config"
	coredatabase "github.com/m3rciful/ridebot/core/database"
)

// ManagerConfig holds the shared secret compared during manager login.
type ManagerConfig struct {
	Key string `yaml:"key" envconfig:"MANAGER_KEY"`
}

// Config aggregates the core bot configuration with the application's
// database and manager settings.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Manager  ManagerConfig       `yaml:"manager"`
}

// CoreConfig exposes the embedded core configuration for the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if cfg.Manager.Key == "" {
		return nil, fmt.Errorf("manager.key is required")
	}
	return &cfg, nil
}
