package consensus

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the tunable constants of the consensus core. All fields
// have sane defaults (DefaultConfig); operators override them via a TOML
// file loaded with LoadConfig.
type Config struct {
	// PerHeightCap is the maximum number of candidate blocks kept at a
	// single height outside the genesis cycle.
	PerHeightCap int `toml:"per_height_cap"`

	// DefaultThresholdPercent is the freezing majority required when no
	// per-height threshold override is set, in [1, 99].
	DefaultThresholdPercent int `toml:"default_threshold_percent"`

	// FallbackDelay is how long a leading hash's minimum-vote-timestamp
	// must have passed before VoteDecider adopts it without a majority.
	FallbackDelay time.Duration `toml:"fallback_delay"`

	// FreezeDwell is how long AttemptToFreeze waits between its first and
	// second vote-count check before promoting a block.
	FreezeDwell time.Duration `toml:"freeze_dwell"`

	// MinVerificationInterval is the minimum gap, in block verification
	// timestamps, between a block and its previous block.
	MinVerificationInterval time.Duration `toml:"min_verification_interval"`

	// FetchDedupeWindow bounds how long a (height, hash) pair already
	// requested from a peer is skipped on subsequent sweeps.
	FetchDedupeWindow time.Duration `toml:"fetch_dedupe_window"`

	// FetchDedupeCapacity bounds the in-flight fetch dedupe cache size.
	FetchDedupeCapacity int `toml:"fetch_dedupe_capacity"`

	// MaxConcurrentFetches bounds how many missing-block requests a single
	// sweep issues at once.
	MaxConcurrentFetches int `toml:"max_concurrent_fetches"`
}

// DefaultConfig returns the constants named in the control surface spec:
// 500-block cap, 75% default threshold, 10s fallback, 500ms dwell.
func DefaultConfig() *Config {
	return &Config{
		PerHeightCap:            500,
		DefaultThresholdPercent: 75,
		FallbackDelay:           10 * time.Second,
		FreezeDwell:             500 * time.Millisecond,
		MinVerificationInterval: 1500 * time.Millisecond,
		FetchDedupeWindow:       10 * time.Second,
		FetchDedupeCapacity:     4096,
		MaxConcurrentFetches:    8,
	}
}

// LoadConfig reads a TOML file and overlays it onto DefaultConfig. A
// missing file is not an error; the defaults are used as-is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("consensus: decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configs that would make the core misbehave silently.
func (cfg *Config) Validate() error {
	if cfg.PerHeightCap <= 0 {
		return fmt.Errorf("%w: per_height_cap must be positive", ErrInvalidConfig)
	}
	if cfg.DefaultThresholdPercent < 1 || cfg.DefaultThresholdPercent > 99 {
		return fmt.Errorf("%w: default_threshold_percent must be in [1, 99]", ErrInvalidConfig)
	}
	if cfg.FreezeDwell <= 0 {
		return fmt.Errorf("%w: freeze_dwell must be positive", ErrInvalidConfig)
	}
	return nil
}
