// Package config holds the engine defaults. Values are read from a YAML
// file; a missing file yields the defaults.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"pcb-router/internal/logging"
	"pcb-router/internal/rules"
)

// ErrInvalid is returned for configurations failing validation.
var ErrInvalid = errors.New("invalid config")

// MaxSpringOverDepth is the highest accepted spring-over depth.
const MaxSpringOverDepth = 20

// Engine holds the budgets of the shove engine.
type Engine struct {
	MaxRecursionDepth    int     `yaml:"max_recursion_depth"`
	MaxViaRecursionDepth int     `yaml:"max_via_recursion_depth"`
	SpringOverDepth      int     `yaml:"spring_over_depth"`
	TimeLimitMillis      int     `yaml:"time_limit_ms"` // 0 means none
	PullTightPasses      int     `yaml:"pull_tight_passes"`
	MinTraceHalfWidth    float64 `yaml:"min_trace_half_width"`
	Angle                string  `yaml:"angle"` // none, 45 or 90
}

// TimeLimit returns the configured time limit, zero for none.
func (e Engine) TimeLimit() time.Duration {
	return time.Duration(e.TimeLimitMillis) * time.Millisecond
}

// AngleRestriction parses Angle.
func (e Engine) AngleRestriction() (rules.AngleRestriction, error) {
	return rules.ParseAngleRestriction(e.Angle)
}

// Metrics controls the Prometheus collectors.
type Metrics struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the full file.
type Config struct {
	Engine  Engine         `yaml:"engine"`
	Log     logging.Config `yaml:"log"`
	Metrics Metrics        `yaml:"metrics"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: Engine{
			MaxRecursionDepth:    5,
			MaxViaRecursionDepth: 2,
			SpringOverDepth:      MaxSpringOverDepth,
			PullTightPasses:      256,
			MinTraceHalfWidth:    2,
			Angle:                "none",
		},
		Log: logging.Config{Level: "info", Format: "text"},
	}
}

// Validate checks the value ranges.
func (c *Config) Validate() error {
	e := c.Engine
	switch {
	case e.MaxRecursionDepth < 0:
		return errors.Wrapf(ErrInvalid, "max_recursion_depth %d is negative", e.MaxRecursionDepth)
	case e.MaxViaRecursionDepth < 0:
		return errors.Wrapf(ErrInvalid, "max_via_recursion_depth %d is negative", e.MaxViaRecursionDepth)
	case e.SpringOverDepth < 0 || e.SpringOverDepth > MaxSpringOverDepth:
		return errors.Wrapf(ErrInvalid, "spring_over_depth %d outside 0..%d", e.SpringOverDepth, MaxSpringOverDepth)
	case e.TimeLimitMillis < 0:
		return errors.Wrapf(ErrInvalid, "time_limit_ms %d is negative", e.TimeLimitMillis)
	case e.PullTightPasses < 0:
		return errors.Wrapf(ErrInvalid, "pull_tight_passes %d is negative", e.PullTightPasses)
	case e.MinTraceHalfWidth <= 0:
		return errors.Wrapf(ErrInvalid, "min_trace_half_width %g must be positive", e.MinTraceHalfWidth)
	}
	if _, err := e.AngleRestriction(); err != nil {
		return errors.Mark(err, ErrInvalid)
	}
	return nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parse config %s", path), ErrInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write config %s", path)
}
