package generator

// #region imports
import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
	"github.com/danielpatrickdp/living-world/go-engine/internal/validator"
)

// #endregion

// #region options

// Options configures a generation run.
type Options struct {
	MaxConsequences           int     // default 4
	MinConfidence             float64 // default 0.6
	RequireLogicalConsistency bool    // default true
}

// DefaultOptions returns the standard generation limits.
func DefaultOptions() Options {
	return Options{
		MaxConsequences:           4,
		MinConfidence:             0.6,
		RequireLogicalConsistency: true,
	}
}

// #endregion

// #region request

// Request identifies the player action that produced the response text.
type Request struct {
	ActionID string
	PlayerID string
	Region   string
}

// #endregion

// #region result

// Metadata reports which strategy matched and run counters.
type Metadata struct {
	Strategy     string
	ParsedCount  int
	DroppedCount int
	ElapsedMs    int64
}

// Result is the output of one generation run. Success is false only when
// every strategy produced nothing and the fallback was substituted.
type Result struct {
	Consequences []consequence.Consequence
	Success      bool
	Warnings     []string
	Errors       []string
	Metadata     Metadata
}

// #endregion

// #region generator

// Generator turns one free-text model response into an ordered,
// size-bounded list of typed consequences.
type Generator struct {
	classifier TypeClassifier
	validator  *validator.Validator
}

// New creates a generator with the keyword type classifier.
func New() *Generator {
	return &Generator{
		classifier: KeywordClassifier{},
		validator:  validator.New(),
	}
}

// NewWithClassifier creates a generator with a custom type classifier.
func NewWithClassifier(classifier TypeClassifier) *Generator {
	return &Generator{classifier: classifier, validator: validator.New()}
}

// #endregion

// #region generate

// Generate parses responseText through ordered strategies, stopping at the
// first that yields at least one item, then filters against world rules,
// enforces pairwise logical consistency, and truncates by priority score.
// Never returns zero consequences.
func (g *Generator) Generate(responseText string, req Request, rules []consequence.WorldRule, opts Options) Result {
	start := time.Now()
	if opts.MaxConsequences <= 0 {
		opts.MaxConsequences = 4
	}

	result := Result{Success: true}

	type strategy struct {
		name string
		run  func(string, string) ([]consequence.Consequence, []string)
	}
	strategies := []strategy{
		{StrategyJSON, g.parseStructured},
		{StrategyStructuredText, g.parseList},
		{StrategyPlainText, g.parseNarrative},
	}

	var parsed []consequence.Consequence
	for _, s := range strategies {
		items, warnings := s.run(responseText, req.ActionID)
		result.Warnings = append(result.Warnings, warnings...)
		if len(items) > 0 {
			parsed = items
			result.Metadata.Strategy = s.name
			break
		}
	}

	if len(parsed) == 0 {
		parsed = []consequence.Consequence{fallbackConsequence(req.ActionID)}
		result.Metadata.Strategy = StrategyFallback
		result.Success = false
		result.Errors = append(result.Errors, "no parsing strategy produced output")
	}
	result.Metadata.ParsedCount = len(parsed)

	// Confidence floor
	kept := parsed[:0:0]
	for _, c := range parsed {
		if c.Confidence < opts.MinConfidence && result.Metadata.Strategy != StrategyFallback {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("dropped %q: confidence %.2f below %.2f", short(c.Description), c.Confidence, opts.MinConfidence))
			continue
		}
		kept = append(kept, c)
	}

	// World-rule and structural filter
	if len(kept) > 0 && result.Metadata.Strategy != StrategyFallback {
		batch := g.validator.ValidateBatchWithRules(kept, rules)
		for _, r := range batch.ValidationResults {
			result.Warnings = append(result.Warnings, r.Warnings...)
			if !r.IsValid {
				result.Warnings = append(result.Warnings, r.Errors...)
			}
		}
		kept = batch.ValidConsequences
	}

	// Incremental pairwise consistency: accept each item only if it does
	// not directly contradict an already-accepted one.
	if opts.RequireLogicalConsistency && len(kept) > 1 {
		var consistent []consequence.Consequence
		for _, c := range kept {
			contradicts := false
			for _, accepted := range consistent {
				if validator.DirectlyConflicts(accepted, c) {
					contradicts = true
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("dropped %q: contradicts an accepted consequence", short(c.Description)))
					break
				}
			}
			if !contradicts {
				consistent = append(consistent, c)
			}
		}
		kept = consistent
	}

	// Priority order, then truncate
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].PriorityScore() > kept[j].PriorityScore()
	})
	if len(kept) > opts.MaxConsequences {
		kept = kept[:opts.MaxConsequences]
	}

	if len(kept) == 0 {
		// Everything was filtered away; substitute the fallback so the
		// caller always receives at least one consequence.
		kept = []consequence.Consequence{fallbackConsequence(req.ActionID)}
		result.Warnings = append(result.Warnings, "all parsed consequences were filtered; substituted fallback")
	}

	result.Consequences = kept
	result.Metadata.DroppedCount = result.Metadata.ParsedCount - len(kept)
	if result.Metadata.DroppedCount < 0 {
		result.Metadata.DroppedCount = 0
	}
	result.Metadata.ElapsedMs = time.Since(start).Milliseconds()

	log.Printf("[GEN] strategy=%s parsed=%d kept=%d action=%s",
		result.Metadata.Strategy, result.Metadata.ParsedCount, len(kept), req.ActionID)
	return result
}

// #endregion

// #region helpers

func short(s string) string {
	r := []rune(s)
	if len(r) > 32 {
		return string(r[:32]) + "…"
	}
	return s
}

// #endregion
