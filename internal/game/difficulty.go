package game

import (
	"fmt"
	"sort"
)

// DifficultyConfig is the immutable parameter set for one difficulty tier.
// A session copies the config at start; changing a registered tier never
// affects sessions already in flight.
type DifficultyConfig struct {
	Tier                   string  `json:"tier" yaml:"tier"`
	ServerCount            int     `json:"server_count" yaml:"server_count"`
	ServerCapacity         int     `json:"server_capacity" yaml:"server_capacity"`
	SpawnIntervalSeconds   float64 `json:"spawn_interval_seconds" yaml:"spawn_interval_seconds"`
	SessionDurationSeconds float64 `json:"session_duration_seconds" yaml:"session_duration_seconds"`
	ScoreMultiplier        float64 `json:"score_multiplier" yaml:"score_multiplier"`
}

// DefaultServerCapacity is used when a tier does not specify one.
const DefaultServerCapacity = 3

// difficultyRegistry holds all known tiers
var difficultyRegistry = make(map[string]DifficultyConfig)

// RegisterDifficulty adds or replaces a tier in the registry
func RegisterDifficulty(cfg DifficultyConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	difficultyRegistry[cfg.Tier] = cfg
	return nil
}

// GetDifficulty retrieves a tier by name
func GetDifficulty(tier string) (DifficultyConfig, error) {
	cfg, exists := difficultyRegistry[tier]
	if !exists {
		return DifficultyConfig{}, fmt.Errorf("%w: %q", ErrInvalidDifficulty, tier)
	}
	return cfg, nil
}

// ListDifficulties returns all registered tiers, easiest first
// (ordered by spawn interval descending, name as tie-breaker).
func ListDifficulties() []DifficultyConfig {
	tiers := make([]DifficultyConfig, 0, len(difficultyRegistry))
	for _, cfg := range difficultyRegistry {
		tiers = append(tiers, cfg)
	}
	sort.Slice(tiers, func(i, j int) bool {
		if tiers[i].SpawnIntervalSeconds != tiers[j].SpawnIntervalSeconds {
			return tiers[i].SpawnIntervalSeconds > tiers[j].SpawnIntervalSeconds
		}
		return tiers[i].Tier < tiers[j].Tier
	})
	return tiers
}

// Validate checks the numeric constraints every tier must satisfy
func (c DifficultyConfig) Validate() error {
	if c.Tier == "" {
		return fmt.Errorf("%w: empty tier name", ErrInvalidDifficulty)
	}
	if c.ServerCount <= 0 {
		return fmt.Errorf("%w: %q server_count must be > 0", ErrInvalidDifficulty, c.Tier)
	}
	if c.ServerCapacity <= 0 {
		return fmt.Errorf("%w: %q server_capacity must be > 0", ErrInvalidDifficulty, c.Tier)
	}
	if c.SpawnIntervalSeconds <= 0 {
		return fmt.Errorf("%w: %q spawn_interval_seconds must be > 0", ErrInvalidDifficulty, c.Tier)
	}
	if c.SessionDurationSeconds <= 0 {
		return fmt.Errorf("%w: %q session_duration_seconds must be > 0", ErrInvalidDifficulty, c.Tier)
	}
	if c.ScoreMultiplier <= 0 {
		return fmt.Errorf("%w: %q score_multiplier must be > 0", ErrInvalidMultiplier, c.Tier)
	}
	return nil
}

// init registers the canonical tiers
func init() {
	tiers := []DifficultyConfig{
		{Tier: "easy", ServerCount: 3, ServerCapacity: DefaultServerCapacity, SpawnIntervalSeconds: 3, SessionDurationSeconds: 300, ScoreMultiplier: 1.0},
		{Tier: "medium", ServerCount: 4, ServerCapacity: DefaultServerCapacity, SpawnIntervalSeconds: 2, SessionDurationSeconds: 240, ScoreMultiplier: 1.5},
		{Tier: "hard", ServerCount: 5, ServerCapacity: DefaultServerCapacity, SpawnIntervalSeconds: 1, SessionDurationSeconds: 180, ScoreMultiplier: 2.0},
	}
	for _, cfg := range tiers {
		if err := RegisterDifficulty(cfg); err != nil {
			panic(err)
		}
	}
}
