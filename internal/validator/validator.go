package validator

// #region imports
import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
	"github.com/danielpatrickdp/living-world/go-engine/internal/lexicon"
)

// #endregion

// #region context

// Context carries the read-only world inputs a validation run checks against.
type Context struct {
	Rules []consequence.WorldRule
}

// #endregion

// #region options

// Options tunes a batch validation run.
type Options struct {
	// Rules are the world rules coherence checks run against.
	Rules []consequence.WorldRule

	// Classifier detects pairwise conflicts. Nil means the keyword default.
	Classifier ConflictClassifier
}

// #endregion

// #region batch-result

// BatchResult is the output of validating a whole batch.
type BatchResult struct {
	ValidConsequences   []consequence.Consequence
	InvalidConsequences []consequence.Consequence
	Conflicts           []consequence.Conflict
	ValidationResults   []consequence.ValidationResult
}

// #endregion

// #region validator

// Validator runs the fixed battery of per-item rule checks plus batch-level
// conflict detection and resolution.
type Validator struct {
	classifier ConflictClassifier
}

// New creates a validator with the default keyword conflict classifier.
func New() *Validator {
	return &Validator{classifier: KeywordConflictClassifier{}}
}

// #endregion

// #region validate-one

// ValidateConsequence runs five independent checks and aggregates the result.
// IsValid iff zero errors across all checks; warnings never block.
func (v *Validator) ValidateConsequence(c consequence.Consequence, ctx Context) consequence.ValidationResult {
	res := consequence.ValidationResult{ConsequenceID: c.ID}

	checkStructure(c, &res)
	checkTypeConsistency(c, &res)
	checkImpactLogic(c, &res)
	checkWorldCoherence(c, ctx.Rules, &res)
	checkTemporalLogic(c, &res)

	res.IsValid = len(res.Errors) == 0
	return res
}

// #endregion

// #region validate-batch

// ValidateConsequences validates each item, then detects and resolves
// pairwise conflicts over the valid subset. Per-item validation is
// order-independent; the conflict pass is sequential because ordering
// decides which consequence wins.
func (v *Validator) ValidateConsequences(batch []consequence.Consequence, opts Options) BatchResult {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = v.classifier
	}

	result := BatchResult{}
	ctx := Context{Rules: opts.Rules}
	for _, c := range batch {
		r := v.ValidateConsequence(c, ctx)
		result.ValidationResults = append(result.ValidationResults, r)
		if r.IsValid {
			result.ValidConsequences = append(result.ValidConsequences, c)
		} else {
			result.InvalidConsequences = append(result.InvalidConsequences, c)
		}
	}

	conflicts := DetectConflicts(result.ValidConsequences, classifier)
	if len(conflicts) > 0 {
		log.Printf("[VALIDATE] %d conflicts in batch of %d valid consequences",
			len(conflicts), len(result.ValidConsequences))
	}
	result.ValidConsequences, result.Conflicts = ResolveConflicts(result.ValidConsequences, conflicts)
	return result
}

// ValidateBatchWithRules runs per-item validation against rules before the
// conflict pass. Used by the generator's post-parse filter.
func (v *Validator) ValidateBatchWithRules(batch []consequence.Consequence, rules []consequence.WorldRule) BatchResult {
	result := BatchResult{}
	ctx := Context{Rules: rules}
	for _, c := range batch {
		r := v.ValidateConsequence(c, ctx)
		result.ValidationResults = append(result.ValidationResults, r)
		if r.IsValid {
			result.ValidConsequences = append(result.ValidConsequences, c)
		} else {
			result.InvalidConsequences = append(result.InvalidConsequences, c)
		}
	}
	return result
}

// #endregion

// #region check-structure

func checkStructure(c consequence.Consequence, res *consequence.ValidationResult) {
	if len(strings.TrimSpace(c.Description)) < 10 {
		res.Errors = append(res.Errors, "description must be at least 10 characters")
	}
	if !c.Type.Known() {
		res.Errors = append(res.Errors, fmt.Sprintf("unrecognized consequence type %q", c.Type))
	}
	if c.Impact.Magnitude < 1 || c.Impact.Magnitude > 10 {
		res.Errors = append(res.Errors, fmt.Sprintf("magnitude %d outside [1,10]", c.Impact.Magnitude))
	}
	if !c.Impact.Level.Known() {
		res.Errors = append(res.Errors, fmt.Sprintf("unrecognized impact level %q", c.Impact.Level))
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		res.Errors = append(res.Errors, fmt.Sprintf("confidence %.2f outside [0,1]", c.Confidence))
	}
	if c.Impact.Duration != "" && !c.Impact.Duration.Known() {
		res.Warnings = append(res.Warnings, fmt.Sprintf("unrecognized duration %q", c.Impact.Duration))
	}
}

// #endregion

// #region check-type-consistency

func checkTypeConsistency(c consequence.Consequence, res *consequence.ValidationResult) {
	keywords, ok := lexicon.TypeKeywords[string(c.Type)]
	if !ok {
		return
	}
	lower := strings.ToLower(c.Description)
	if !lexicon.ContainsAny(lower, keywords) {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("description does not mention any %s vocabulary", c.Type))
	}
}

// #endregion

// #region check-impact-logic

// validSystems maps a consequence type to the systems conventionally
// affected by it.
var validSystems = map[consequence.Type][]string{
	consequence.TypeRelationship: {"relationship", "character", "world_state"},
	consequence.TypeEnvironment:  {"environment", "world_state", "economic"},
	consequence.TypeCharacter:    {"character", "relationship", "world_state"},
	consequence.TypeWorldState:   {"world_state", "environment", "economic", "relationship"},
	consequence.TypeEconomic:     {"economic", "world_state", "environment"},
	consequence.TypeCombat:       {"combat", "character", "relationship", "world_state"},
	consequence.TypeExploration:  {"exploration", "world_state", "environment"},
}

func checkImpactLogic(c consequence.Consequence, res *consequence.ValidationResult) {
	lo, hi := c.Impact.Level.MagnitudeBucket()
	if c.Impact.Magnitude >= 1 && c.Impact.Magnitude <= 10 &&
		(c.Impact.Magnitude < lo || c.Impact.Magnitude > hi) {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("magnitude %d outside expected bucket [%d,%d] for level %s",
				c.Impact.Magnitude, lo, hi, c.Impact.Level))
	}

	valid, ok := validSystems[c.Type]
	if !ok || len(c.Impact.AffectedSystems) == 0 {
		return
	}
	validSet := make(map[string]bool, len(valid))
	for _, s := range valid {
		validSet[s] = true
	}
	any := false
	for _, s := range c.Impact.AffectedSystems {
		if validSet[s] {
			any = true
			break
		}
	}
	if !any {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("no affected system is conventional for type %s", c.Type))
	}
}

// #endregion

// #region check-world-coherence

func checkWorldCoherence(c consequence.Consequence, rules []consequence.WorldRule, res *consequence.ValidationResult) {
	lower := strings.ToLower(c.Description)
	tokens := lexicon.TokenSet(c.Description)

	for _, phrase := range lexicon.ImpossiblePhrases {
		if strings.Contains(lower, phrase) {
			res.Errors = append(res.Errors,
				fmt.Sprintf("description asserts an impossible change (%q)", phrase))
		}
	}

	for _, rule := range rules {
		ruleLower := strings.ToLower(rule.Description)
		if !strings.Contains(ruleLower, "cannot") && !strings.Contains(ruleLower, "impossible") {
			continue
		}
		ruleTokens := lexicon.TokenSet(rule.Description)
		for _, pair := range lexicon.RuleAntonymPairs {
			a, b := pair[0], pair[1]
			if ruleTokens[a] && tokens[b] {
				res.Errors = append(res.Errors,
					fmt.Sprintf("violates rule %q: uses %q where the rule states %q", rule.Name, b, a))
			}
			if ruleTokens[b] && tokens[a] {
				res.Errors = append(res.Errors,
					fmt.Sprintf("violates rule %q: uses %q where the rule states %q", rule.Name, a, b))
			}
		}
	}
}

// #endregion

// #region check-temporal-logic

const delayWarningThreshold = 5 * time.Minute

func checkTemporalLogic(c consequence.Consequence, res *consequence.ValidationResult) {
	for _, eff := range c.CascadingEffects {
		if eff.Delay < 0 {
			res.Errors = append(res.Errors,
				fmt.Sprintf("cascading effect %s has negative delay", eff.ID))
		}
		if eff.Probability < 0 || eff.Probability > 1 {
			res.Errors = append(res.Errors,
				fmt.Sprintf("cascading effect %s probability %.2f outside [0,1]", eff.ID, eff.Probability))
		}
		if eff.Delay > delayWarningThreshold {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("cascading effect %s delay %s exceeds 5m", eff.ID, eff.Delay))
		}
	}
	if c.Impact.Duration == consequence.DurationPermanent && c.Impact.Magnitude > 8 {
		res.Warnings = append(res.Warnings, "permanent consequence with magnitude above 8")
	}
}

// #endregion
