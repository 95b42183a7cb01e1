package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"lcdkit/internal/rating"
)

// Config holds lcdkit settings. A workspace places an lcdkit.yml at its
// root; every field has a default so the file is optional.
type Config struct {
	Content   ContentConfig   `yaml:"content"`
	Priority  PriorityConfig  `yaml:"priority"`
	Checklist ChecklistConfig `yaml:"checklist"`
	Server    ServerConfig    `yaml:"server"`
	Audit     AuditConfig     `yaml:"audit"`
}

// ContentConfig locates the two static text resources. Relative paths are
// resolved from the workspace root; http(s) URLs are fetched.
type ContentConfig struct {
	Strategies string `yaml:"strategies"`
	Questions  string `yaml:"questions"`
}

// PriorityConfig controls the priority rollup.
type PriorityConfig struct {
	// ComputedStrategies lists the strategy ids whose displayed priority
	// is the highest sub-strategy priority (default 1, 2, 3, 4).
	ComputedStrategies []string `yaml:"computed_strategies"`
}

// ChecklistConfig controls checklist presentation.
type ChecklistConfig struct {
	// HiddenStrategies are left out of checklist reports (default 7).
	// They still appear on the radar chart.
	HiddenStrategies []string `yaml:"hidden_strategies"`

	// Vocabulary is "five-point" (default) or "four-point".
	Vocabulary rating.Vocabulary `yaml:"vocabulary"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AuditConfig controls the sqlite audit trail.
type AuditConfig struct {
	Enabled *bool  `yaml:"enabled"`
	DB      string `yaml:"db"`
	Actor   string `yaml:"actor"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Content: ContentConfig{
			Strategies: "content/LCD-strategies.txt",
			Questions:  "content/guiding-questions.txt",
		},
		Priority: PriorityConfig{
			ComputedStrategies: []string{"1", "2", "3", "4"},
		},
		Checklist: ChecklistConfig{
			HiddenStrategies: []string{"7"},
			Vocabulary:       rating.FivePoint,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Audit:  AuditConfig{Actor: "lcdkit"},
	}
}

// AuditEnabled reports whether mutations are recorded (default true).
func (c Config) AuditEnabled() bool {
	return c.Audit.Enabled == nil || *c.Audit.Enabled
}

// Load reads the YAML file at path on top of the defaults, then applies
// a sibling .env file and LCDKIT_* environment overrides. A missing or
// empty file is not an error; unknown keys are.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	var errs []error
	for i, id := range c.Priority.ComputedStrategies {
		if !isStrategyID(id) {
			errs = append(errs, fmt.Errorf("priority.computed_strategies[%d]: %q is not a strategy id", i, id))
		}
	}
	for i, id := range c.Checklist.HiddenStrategies {
		if !isStrategyID(id) {
			errs = append(errs, fmt.Errorf("checklist.hidden_strategies[%d]: %q is not a strategy id", i, id))
		}
	}
	switch c.Checklist.Vocabulary {
	case rating.FivePoint, rating.FourPoint:
	default:
		errs = append(errs, fmt.Errorf("checklist.vocabulary: unknown vocabulary %q", c.Checklist.Vocabulary))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config) {
	if addr := os.Getenv("LCDKIT_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if db := os.Getenv("LCDKIT_AUDIT_DB"); db != "" {
		cfg.Audit.DB = db
	}
	if ids := os.Getenv("LCDKIT_COMPUTED_STRATEGIES"); ids != "" {
		cfg.Priority.ComputedStrategies = splitIDs(ids)
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Content.Strategies == "" {
		cfg.Content.Strategies = def.Content.Strategies
	}
	if cfg.Content.Questions == "" {
		cfg.Content.Questions = def.Content.Questions
	}
	if cfg.Checklist.Vocabulary == "" {
		cfg.Checklist.Vocabulary = def.Checklist.Vocabulary
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Audit.Actor == "" {
		cfg.Audit.Actor = def.Audit.Actor
	}
}

func splitIDs(value string) []string {
	var ids []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func isStrategyID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
