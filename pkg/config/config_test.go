package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GitMew/eopl3-noracket/pkg/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, path, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected no config path, got %q", path)
	}
	if cfg.Prelude || cfg.Pretty || cfg.Budget.MaxSteps != nil {
		t.Errorf("expected default config, got %+v", cfg)
	}
}

func TestLoad_Project(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), "prelude: true\nbudget:\n  maxSteps: 500\n  maxDepth: 40\n")

	cfg, path, err := config.Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, config.ProjectFile) {
		t.Errorf("got path %q", path)
	}
	if !cfg.Prelude {
		t.Error("expected prelude enabled")
	}
	budget := cfg.ExecBudget()
	if budget.MaxSteps == nil || *budget.MaxSteps != 500 {
		t.Errorf("got maxSteps %v", budget.MaxSteps)
	}
	if budget.MaxDepth == nil || *budget.MaxDepth != 40 {
		t.Errorf("got maxDepth %v", budget.MaxDepth)
	}
	if budget.TimeMs != nil {
		t.Errorf("expected no time budget, got %d", *budget.TimeMs)
	}
}

func TestLoad_UserFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, ".letrec", "config.yaml"), "pretty: true\n")

	cfg, path, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".letrec", "config.yaml")) {
		t.Errorf("got path %q", path)
	}
	if !cfg.Pretty {
		t.Error("expected pretty enabled from user config")
	}
}

func TestLoad_ProjectWinsOverUser(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, ".letrec", "config.yaml"), "pretty: true\n")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), "prelude: true\n")

	cfg, _, err := config.Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pretty || !cfg.Prelude {
		t.Errorf("expected project config only, got %+v", cfg)
	}
}

func TestLoadFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	writeFile(t, path, "")
	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Prelude {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "prelud: true\n", "field prelud not found"},
		{"malformed", "budget: [\n", "config: parse"},
		{"negative limit", "budget:\n  timeMs: -1\n", "budget.timeMs must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			writeFile(t, path, tt.content)
			_, err := config.LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got error %v, want it to contain %q", err, tt.want)
			}
		})
	}
}
