// Package config loads LETREC runtime settings from project and user config files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/GitMew/eopl3-noracket/pkg/evaluator"
)

// ProjectFile is the config file name looked up in the project directory.
const ProjectFile = ".letrec.yaml"

// Budget mirrors evaluator.Budget in the config file.
type Budget struct {
	MaxDepth *int64 `yaml:"maxDepth,omitempty"`
	MaxSteps *int64 `yaml:"maxSteps,omitempty"`
	TimeMs   *int64 `yaml:"timeMs,omitempty"`
}

// Config holds runtime settings.
type Config struct {
	Prelude bool   `yaml:"prelude"`
	Pretty  bool   `yaml:"pretty"`
	Budget  Budget `yaml:"budget"`
}

// Default returns the settings used when no config file exists: empty
// initial environment, JSON diagnostics, no budget.
func Default() *Config {
	return &Config{}
}

// ExecBudget converts the configured limits for the evaluator.
func (c *Config) ExecBudget() evaluator.Budget {
	return evaluator.Budget{
		MaxDepth: c.Budget.MaxDepth,
		MaxSteps: c.Budget.MaxSteps,
		TimeMs:   c.Budget.TimeMs,
	}
}

// Load reads settings from the project and user config files.
// Precedence: project (.letrec.yaml) → user (~/.letrec/config.yaml) → defaults.
// It returns the path that was used, or "" for defaults. A config file that
// exists but cannot be decoded is an error.
func Load(projectDir string) (*Config, string, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".letrec", "config.yaml"))
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, path, err
		}
		return cfg, path, nil
	}
	return Default(), "", nil
}

// LoadFile decodes a single config file. Unknown fields are rejected.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	limits := map[string]*int64{
		"maxDepth": c.Budget.MaxDepth,
		"maxSteps": c.Budget.MaxSteps,
		"timeMs":   c.Budget.TimeMs,
	}
	for name, v := range limits {
		if v != nil && *v < 0 {
			return fmt.Errorf("budget.%s must not be negative", name)
		}
	}
	return nil
}
