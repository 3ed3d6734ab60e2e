package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	raw := `generator:
  max_consequences: 6
  min_confidence: 0.4
  require_logical_consistency: true
cascade:
  max_cascading_levels: 2
  probability_threshold: 0.25
  seed: 99
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generator.MaxConsequences != 6 {
		t.Fatalf("max consequences = %d, want 6", cfg.Generator.MaxConsequences)
	}
	if cfg.Generator.MinConfidence != 0.4 {
		t.Fatalf("min confidence = %.2f, want 0.4", cfg.Generator.MinConfidence)
	}
	if cfg.Cascade.MaxCascadingLevels != 2 {
		t.Fatalf("levels = %d, want 2", cfg.Cascade.MaxCascadingLevels)
	}
	if cfg.Cascade.Seed != 99 {
		t.Fatalf("seed = %d, want 99", cfg.Cascade.Seed)
	}
	// Unset fields keep defaults.
	if cfg.Cascade.MaxEffectsPerLevel != 5 {
		t.Fatalf("effects per level = %d, want default 5", cfg.Cascade.MaxEffectsPerLevel)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Generator.MaxConsequences != 4 || cfg.Generator.MinConfidence != 0.6 {
		t.Fatalf("unexpected generator defaults: %+v", cfg.Generator)
	}
	if cfg.Cascade.MaxCascadingLevels != 3 || cfg.Cascade.MaxEffectsPerLevel != 5 {
		t.Fatalf("unexpected cascade defaults: %+v", cfg.Cascade)
	}
}
