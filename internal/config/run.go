package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/spachava753/rawfetch/internal/models"
	"github.com/spachava753/rawfetch/internal/util"
)

const (
	DefaultRawHost = "https://raw.githubusercontent.com"
	DefaultAPIURL  = "https://api.github.com"
)

// DefaultRunConfig returns a RunConfig with default values.
func DefaultRunConfig() models.RunConfig {
	return models.RunConfig{
		RawHost:     DefaultRawHost,
		APIURL:      DefaultAPIURL,
		TimeoutSec:  30.0,
		StepSummary: true,
		Retry: models.RetryConfig{
			MaxAttempts:    1,
			InitialDelayMs: 1000,
			MaxDelayMs:     30000,
			Multiplier:     2.0,
		},
	}
}

// LoadFile reads a YAML (.yaml, .yml) or TOML (.toml) config file over cfg.
// Fields absent from the file keep their current values.
func LoadFile(path string, cfg models.RunConfig) (models.RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	default:
		return cfg, models.NewConfigError("config", "unsupported config file extension %q", ext)
	}

	return ApplyDefaults(cfg), nil
}

// Load builds a RunConfig from defaults, the optional config file at path and
// the action inputs found through lookup, in that order.
func Load(path string, lookup LookupFunc) (models.RunConfig, error) {
	cfg := DefaultRunConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path, cfg); err != nil {
			return cfg, err
		}
	}
	return ApplyEnv(cfg, lookup)
}

// ApplyDefaults fills zero values that have a non-zero default. Booleans are
// left alone since false is meaningful.
func ApplyDefaults(cfg models.RunConfig) models.RunConfig {
	def := DefaultRunConfig()
	if cfg.RawHost == "" {
		cfg.RawHost = def.RawHost
	}
	if cfg.APIURL == "" {
		cfg.APIURL = def.APIURL
	}
	if cfg.TimeoutSec == 0 {
		cfg.TimeoutSec = def.TimeoutSec
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if cfg.Retry.InitialDelayMs == 0 {
		cfg.Retry.InitialDelayMs = def.Retry.InitialDelayMs
	}
	if cfg.Retry.MaxDelayMs == 0 {
		cfg.Retry.MaxDelayMs = def.Retry.MaxDelayMs
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = def.Retry.Multiplier
	}
	return cfg
}

// Validate checks that cfg describes a runnable batch. Include lines are
// checked later, together with path resolution, before any request is made.
func Validate(cfg models.RunConfig) error {
	repo := strings.TrimSpace(cfg.Repo)
	if repo == "" {
		return models.NewConfigError("repo", "is required")
	}
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return models.NewConfigError("repo", "%q must be in owner/name form", cfg.Repo)
	}
	if strings.TrimSpace(cfg.Ref) == "" {
		return models.NewConfigError("ref", "is required")
	}
	if strings.TrimSpace(cfg.OutputDirectory) == "" {
		return models.NewConfigError("output-directory", "is required")
	}
	if len(cfg.Includes) == 0 {
		return models.NewConfigError("includes", "at least one include is required")
	}
	if cfg.TimeoutSec <= 0 {
		return models.NewConfigError("timeout", "must be positive, got %g", cfg.TimeoutSec)
	}
	if cfg.MaxConcurrency < 0 {
		return models.NewConfigError("max-concurrency", "must not be negative")
	}
	if cfg.RateLimit < 0 {
		return models.NewConfigError("rate-limit", "must not be negative")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return models.NewConfigError("retry.max_attempts", "must be at least 1")
	}
	if _, err := util.ParseSize(cfg.MaxFileSize); err != nil {
		return models.NewConfigError("max-file-size", "%s", err)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "", "text", "json":
	default:
		return models.NewConfigError("log-format", "must be text or json, got %q", cfg.LogFormat)
	}
	return nil
}
