package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if PATZER_CONFIG is set
//  3. env (prefix PATZER_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("PATZER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: PATZER_PERF_FILE, PATZER_REQUEST_PAUSE_MS, ...
	// Map env keys like PATZER_PERF_FILE -> perf_file (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PATZER_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "patzer_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	// Basic validation
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("%w: api_base_url must not be empty", ErrInvalidConfig)
	}
	if cfg.PerfFile == "" || cfg.UsersFile == "" || cfg.SampleFile == "" {
		return nil, fmt.Errorf("%w: cache file paths must not be empty", ErrInvalidConfig)
	}
	if cfg.CheckpointEvery <= 0 {
		return nil, fmt.Errorf("%w: checkpoint_every must be positive, got %d", ErrInvalidConfig, cfg.CheckpointEvery)
	}
	return &cfg, nil
}
