// Package config loads server configuration from an optional YAML file.
// Every field has a working default; a missing file is not an error unless
// the path was given explicitly.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slicework/pizza-lb-go/internal/game"
)

// Config is the full server configuration.
type Config struct {
	Addr              string  `yaml:"addr"`
	DatabasePath      string  `yaml:"database_path"`
	SessionTTLMinutes float64 `yaml:"session_ttl_minutes"`

	// Extra difficulty tiers registered on top of the built-in ones.
	Difficulties []game.DifficultyConfig `yaml:"difficulties"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Addr:              ":8090",
		DatabasePath:      "pizzalb.db",
		SessionTTLMinutes: 30,
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RegisterDifficulties adds the configured custom tiers to the registry.
func (c Config) RegisterDifficulties() error {
	for _, d := range c.Difficulties {
		if err := game.RegisterDifficulty(d); err != nil {
			return fmt.Errorf("invalid difficulty %q in config: %w", d.Tier, err)
		}
	}
	return nil
}

// SessionTTL returns the idle session lifetime as a duration.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes * float64(time.Minute))
}

func (c Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("session_ttl_minutes must be positive, got %v", c.SessionTTLMinutes)
	}
	return nil
}
