package cascade

// #region imports
import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
)

// #endregion

// #region constants

// attenuation is the probability decay applied per derived level.
const attenuation = 0.6

// #endregion

// #region expand

// Expand grows each consequence's declared follow-on effects into a bounded
// effect graph. Level 1 holds the declared cascading effects; deeper levels
// hold derived ripples whose emission is sampled against the parent's
// probability. This is the only place in the pipeline that draws random
// numbers; a fixed Seed makes a run fully deterministic.
func Expand(valid []consequence.Consequence, opts Options) Expansion {
	if opts.MaxCascadingLevels <= 0 {
		opts.MaxCascadingLevels = 3
	}
	if opts.MaxEffectsPerLevel <= 0 {
		opts.MaxEffectsPerLevel = 5
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	exp := Expansion{}

	// Level 1: declared effects, pruned and capped.
	var current []Node
	for _, c := range valid {
		for _, eff := range c.CascadingEffects {
			if eff.Probability < opts.ProbabilityThreshold {
				continue
			}
			if len(current) >= opts.MaxEffectsPerLevel {
				break
			}
			if eff.ID == "" {
				eff.ID = uuid.New().String()
			}
			if eff.ParentConsequenceID == "" {
				eff.ParentConsequenceID = c.ID
			}
			node := Node{Effect: eff, Level: 1}
			current = append(current, node)
			exp.Relationships = append(exp.Relationships, Relationship{
				ParentID: c.ID,
				ChildID:  eff.ID,
				Strength: strengthFor(eff.Probability),
			})
		}
	}
	exp.CascadingEffects = append(exp.CascadingEffects, current...)
	if len(current) > 0 {
		exp.MaxCascadeDepth = 1
	}

	// Deeper levels: derived ripples.
	for level := 2; level <= opts.MaxCascadingLevels && len(current) > 0; level++ {
		var next []Node
		for _, parent := range current {
			if len(next) >= opts.MaxEffectsPerLevel {
				break
			}
			if rng.Float64() > parent.Effect.Probability {
				continue
			}
			child := deriveChild(parent.Effect)
			if child.Probability < opts.ProbabilityThreshold {
				continue
			}
			node := Node{Effect: child, Level: level}
			next = append(next, node)
			exp.Relationships = append(exp.Relationships, Relationship{
				ParentID: parent.Effect.ID,
				ChildID:  child.ID,
				Strength: strengthFor(child.Probability),
			})
		}
		exp.CascadingEffects = append(exp.CascadingEffects, next...)
		if len(next) > 0 {
			exp.MaxCascadeDepth = level
		}
		current = next
	}

	exp.TotalEffects = len(exp.CascadingEffects)
	log.Printf("[CASCADE] expanded %d roots into %d effects (depth %d)",
		len(valid), exp.TotalEffects, exp.MaxCascadeDepth)
	return exp
}

// #endregion

// #region derive

// deriveChild produces the next-level ripple of an effect: attenuated
// probability, reduced magnitude, accumulated delay.
func deriveChild(parent consequence.CascadingEffect) consequence.CascadingEffect {
	child := consequence.CascadingEffect{
		ID:                  uuid.New().String(),
		ParentConsequenceID: parent.ID,
		Description:         fmt.Sprintf("Ripple of: %s", parent.Description),
		Delay:               parent.Delay * 2,
		Probability:         parent.Probability * attenuation,
		Impact:              parent.Impact,
	}
	if child.Impact.Magnitude > 1 {
		child.Impact.Magnitude--
	}
	child.Impact.Level = consequence.LevelForMagnitude(child.Impact.Magnitude)
	return child
}

// strengthFor maps a probability to an edge strength in (0, 1].
func strengthFor(probability float64) float64 {
	if probability <= 0.05 {
		return 0.05
	}
	if probability > 1 {
		return 1
	}
	return probability
}

// #endregion
