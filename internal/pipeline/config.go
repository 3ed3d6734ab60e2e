package pipeline

// #region imports
import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #endregion

// #region config

// Config is the yaml tuning surface for the engine. Zero fields fall back
// to the built-in defaults.
type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Cascade   CascadeConfig   `yaml:"cascade"`
}

type GeneratorConfig struct {
	MaxConsequences           int     `yaml:"max_consequences"`
	MinConfidence             float64 `yaml:"min_confidence"`
	RequireLogicalConsistency bool    `yaml:"require_logical_consistency"`
}

type CascadeConfig struct {
	MaxCascadingLevels   int     `yaml:"max_cascading_levels"`
	MaxEffectsPerLevel   int     `yaml:"max_effects_per_level"`
	ProbabilityThreshold float64 `yaml:"probability_threshold"`
	Seed                 int64   `yaml:"seed"`
}

// Default returns the stock tuning.
func Default() Config {
	return Config{
		Generator: GeneratorConfig{
			MaxConsequences:           4,
			MinConfidence:             0.6,
			RequireLogicalConsistency: true,
		},
		Cascade: CascadeConfig{
			MaxCascadingLevels:   3,
			MaxEffectsPerLevel:   5,
			ProbabilityThreshold: 0.1,
		},
	}
}

// Load reads yaml tuning from path, filling unset fields from Default.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("engine.yaml: %w", err)
	}
	if cfg.Generator.MaxConsequences <= 0 {
		cfg.Generator.MaxConsequences = 4
	}
	if cfg.Generator.MinConfidence <= 0 {
		cfg.Generator.MinConfidence = 0.6
	}
	if cfg.Cascade.MaxCascadingLevels <= 0 {
		cfg.Cascade.MaxCascadingLevels = 3
	}
	if cfg.Cascade.MaxEffectsPerLevel <= 0 {
		cfg.Cascade.MaxEffectsPerLevel = 5
	}
	if cfg.Cascade.ProbabilityThreshold <= 0 {
		cfg.Cascade.ProbabilityThreshold = 0.1
	}
	return cfg, nil
}

// #endregion
