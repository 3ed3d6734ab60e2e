package generator

// #region imports
import (
	"strings"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
	"github.com/danielpatrickdp/living-world/go-engine/internal/lexicon"
)

// #endregion

// #region classifier-interface

// TypeClassifier infers a consequence type from free text. The keyword
// implementation is the default; swap it for a model-backed classifier
// without touching the parsing strategies.
type TypeClassifier interface {
	ClassifyType(description string) consequence.Type
}

// #endregion

// #region keyword-classifier

// KeywordClassifier matches fixed keyword sets against the lower-cased
// description. No model call.
type KeywordClassifier struct{}

// typeOrder fixes the match precedence so classification is deterministic.
var typeOrder = []consequence.Type{
	consequence.TypeRelationship,
	consequence.TypeEnvironment,
	consequence.TypeEconomic,
	consequence.TypeCombat,
	consequence.TypeExploration,
	consequence.TypeCharacter,
}

// ClassifyType returns the first type whose vocabulary appears in the
// description, falling back to world_state.
func (KeywordClassifier) ClassifyType(description string) consequence.Type {
	lower := strings.ToLower(description)
	for _, t := range typeOrder {
		if lexicon.ContainsAny(lower, lexicon.TypeKeywords[string(t)]) {
			return t
		}
	}
	return consequence.TypeWorldState
}

// #endregion

// #region impact-inference

// InferImpact derives an impact from description keywords: escalation words
// bump to critical/9, diminution words drop to minor/2, else moderate/5.
func InferImpact(description string, typ consequence.Type) consequence.Impact {
	lower := strings.ToLower(description)

	level := consequence.LevelModerate
	magnitude := 5
	switch {
	case lexicon.ContainsAny(lower, lexicon.EscalationWords):
		level = consequence.LevelCritical
		magnitude = 9
	case lexicon.ContainsAny(lower, lexicon.DiminutionWords):
		level = consequence.LevelMinor
		magnitude = 2
	}

	return consequence.Impact{
		Level:           level,
		Magnitude:       magnitude,
		Duration:        consequence.DurationMediumTerm,
		AffectedSystems: InferAffectedSystems(lower, typ),
	}
}

// InferAffectedSystems always includes the consequence's own type plus any
// of economic/environment/relationship whose trigger words appear.
func InferAffectedSystems(lower string, typ consequence.Type) []string {
	systems := []string{string(typ)}
	for _, extra := range []consequence.Type{
		consequence.TypeEconomic, consequence.TypeEnvironment, consequence.TypeRelationship,
	} {
		if extra == typ {
			continue
		}
		if lexicon.ContainsAny(lower, lexicon.TypeKeywords[string(extra)]) {
			systems = append(systems, string(extra))
		}
	}
	return systems
}

// #endregion
