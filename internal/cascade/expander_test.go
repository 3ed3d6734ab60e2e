package cascade

import (
	"testing"
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
)

func rootWithEffects(id string, probabilities ...float64) consequence.Consequence {
	c := consequence.Consequence{
		ID:          id,
		Type:        consequence.TypeWorldState,
		Description: "Something noteworthy happens in the village",
		Impact: consequence.Impact{
			Level:     consequence.LevelModerate,
			Magnitude: 5,
			Duration:  consequence.DurationMediumTerm,
		},
		Confidence: 0.8,
	}
	for i, p := range probabilities {
		c.CascadingEffects = append(c.CascadingEffects, consequence.CascadingEffect{
			ID:          id + "-eff-" + string(rune('a'+i)),
			Description: "ripple through nearby systems",
			Delay:       time.Second,
			Probability: p,
			Impact: consequence.Impact{
				Level:           consequence.LevelModerate,
				Magnitude:       5,
				AffectedSystems: []string{"world_state"},
			},
		})
	}
	return c
}

func TestExpandPrunesBelowThreshold(t *testing.T) {
	root := rootWithEffects("c1", 0.05, 0.5)
	exp := Expand([]consequence.Consequence{root}, Options{
		MaxCascadingLevels:   1,
		MaxEffectsPerLevel:   5,
		ProbabilityThreshold: 0.1,
		Seed:                 42,
	})
	if exp.TotalEffects != 1 {
		t.Fatalf("expected the 0.05 effect pruned, got %d effects", exp.TotalEffects)
	}
	if exp.CascadingEffects[0].Effect.Probability != 0.5 {
		t.Fatalf("wrong effect survived: %+v", exp.CascadingEffects[0].Effect)
	}
	if exp.MaxCascadeDepth != 1 {
		t.Fatalf("depth = %d, want 1", exp.MaxCascadeDepth)
	}
}

func TestExpandCapsPerLevel(t *testing.T) {
	root := rootWithEffects("c1", 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9)
	exp := Expand([]consequence.Consequence{root}, Options{
		MaxCascadingLevels:   1,
		MaxEffectsPerLevel:   5,
		ProbabilityThreshold: 0.1,
		Seed:                 42,
	})
	if exp.TotalEffects != 5 {
		t.Fatalf("expected level cap of 5, got %d", exp.TotalEffects)
	}
}

func TestExpandDerivedLevels(t *testing.T) {
	root := rootWithEffects("c1", 1.0)
	exp := Expand([]consequence.Consequence{root}, Options{
		MaxCascadingLevels:   3,
		MaxEffectsPerLevel:   5,
		ProbabilityThreshold: 0.1,
		Seed:                 42,
	})

	// Probability 1.0 always emits at level 2 (0.6 after attenuation) and
	// the 0.6 child may or may not emit at level 3 depending on the draw.
	if exp.MaxCascadeDepth < 2 {
		t.Fatalf("expected at least depth 2, got %d", exp.MaxCascadeDepth)
	}

	var child *Node
	for i := range exp.CascadingEffects {
		if exp.CascadingEffects[i].Level == 2 {
			child = &exp.CascadingEffects[i]
			break
		}
	}
	if child == nil {
		t.Fatal("no level-2 node found")
	}
	if child.Effect.Probability != 0.6 {
		t.Fatalf("child probability = %.2f, want 0.6", child.Effect.Probability)
	}
	if child.Effect.Impact.Magnitude != 4 {
		t.Fatalf("child magnitude = %d, want parent minus one", child.Effect.Impact.Magnitude)
	}
	if child.Effect.Delay != 2*time.Second {
		t.Fatalf("child delay = %s, want doubled", child.Effect.Delay)
	}
	if child.Effect.ParentConsequenceID != "c1-eff-a" {
		t.Fatalf("child parent = %s, want the level-1 effect", child.Effect.ParentConsequenceID)
	}
}

func TestExpandDeterministicStructure(t *testing.T) {
	roots := []consequence.Consequence{
		rootWithEffects("c1", 0.9, 0.4),
		rootWithEffects("c2", 0.7),
	}
	opts := Options{
		MaxCascadingLevels:   3,
		MaxEffectsPerLevel:   5,
		ProbabilityThreshold: 0.1,
		Seed:                 7,
	}
	first := Expand(roots, opts)
	second := Expand(roots, opts)

	if first.TotalEffects != second.TotalEffects {
		t.Fatalf("effect counts differ: %d vs %d", first.TotalEffects, second.TotalEffects)
	}
	if first.MaxCascadeDepth != second.MaxCascadeDepth {
		t.Fatalf("depths differ: %d vs %d", first.MaxCascadeDepth, second.MaxCascadeDepth)
	}
	if len(first.Relationships) != len(second.Relationships) {
		t.Fatalf("edge counts differ: %d vs %d", len(first.Relationships), len(second.Relationships))
	}
}

func TestExpandRelationshipEdges(t *testing.T) {
	root := rootWithEffects("c1", 0.8)
	exp := Expand([]consequence.Consequence{root}, Options{
		MaxCascadingLevels:   1,
		MaxEffectsPerLevel:   5,
		ProbabilityThreshold: 0.1,
		Seed:                 42,
	})
	if len(exp.Relationships) != 1 {
		t.Fatalf("expected one edge, got %d", len(exp.Relationships))
	}
	edge := exp.Relationships[0]
	if edge.ParentID != "c1" || edge.ChildID != "c1-eff-a" {
		t.Fatalf("edge %s→%s, want c1→c1-eff-a", edge.ParentID, edge.ChildID)
	}
	if edge.Strength != 0.8 {
		t.Fatalf("edge strength = %.2f, want probability", edge.Strength)
	}
}

func TestExpandEmptyInput(t *testing.T) {
	exp := Expand(nil, Options{Seed: 1})
	if exp.TotalEffects != 0 || exp.MaxCascadeDepth != 0 {
		t.Fatalf("empty input should produce empty expansion, got %+v", exp)
	}
}
