package cascade

// #region imports
import (
	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
)

// #endregion

// #region options

// Options bounds a cascade expansion.
type Options struct {
	MaxCascadingLevels   int     // default 3
	MaxEffectsPerLevel   int     // default 5
	ProbabilityThreshold float64 // default 0.1; branches below are pruned
	Seed                 int64   // 0 = time-seeded; fixed seeds replay deterministically
}

// DefaultOptions returns the standard expansion limits.
func DefaultOptions() Options {
	return Options{
		MaxCascadingLevels:   3,
		MaxEffectsPerLevel:   5,
		ProbabilityThreshold: 0.1,
	}
}

// #endregion

// #region relationship

// Relationship is a parent→child edge in the expanded effect graph.
// Strength is in (0, 1].
type Relationship struct {
	ParentID string  `json:"parentId"`
	ChildID  string  `json:"childId"`
	Strength float64 `json:"strength"`
}

// #endregion

// #region node

// Node is one emitted effect with its cascade level (1-based).
type Node struct {
	Effect consequence.CascadingEffect `json:"effect"`
	Level  int                         `json:"level"`
}

// #endregion

// #region expansion

// Expansion is the full expanded effect graph for a batch of consequences.
// Every emitted effect is reachable from a root consequence via
// Relationships.
type Expansion struct {
	TotalEffects     int            `json:"totalEffects"`
	CascadingEffects []Node         `json:"cascadingEffects"`
	MaxCascadeDepth  int            `json:"maxCascadeDepth"`
	Relationships    []Relationship `json:"relationships"`
}

// #endregion
