package generator

// #region imports
import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
	"github.com/danielpatrickdp/living-world/go-engine/internal/lexicon"
)

// #endregion

// #region strategy-names

// Strategy names reported in parsing metadata.
const (
	StrategyJSON           = "json"
	StrategyStructuredText = "structured_text"
	StrategyPlainText      = "plain_text"
	StrategyFallback       = "fallback"
)

// #endregion

// #region schema

// consequenceSchemaJSON is deliberately lenient: only description is
// required; typed fields reject wrong shapes, missing ones get defaults.
const consequenceSchemaJSON = `{
  "type": "object",
  "required": ["description"],
  "properties": {
    "type": {"type": "string"},
    "description": {"type": "string", "minLength": 10},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "impact": {
      "type": "object",
      "properties": {
        "level": {"type": "string"},
        "magnitude": {"type": "integer", "minimum": 1, "maximum": 10},
        "duration": {"type": "string"},
        "affectedSystems": {"type": "array", "items": {"type": "string"}},
        "affectedCharacters": {"type": "array", "items": {"type": "string"}},
        "affectedLocations": {"type": "array", "items": {"type": "string"}}
      }
    },
    "cascadingEffects": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["description"],
        "properties": {
          "description": {"type": "string"},
          "delay": {"type": "number", "minimum": 0},
          "probability": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    }
  }
}`

var consequenceSchema = jsonschema.MustCompileString("consequence.schema.json", consequenceSchemaJSON)

// #endregion

// #region raw-types

type rawImpact struct {
	Level              string   `json:"level"`
	AffectedSystems    []string `json:"affectedSystems"`
	Magnitude          *int     `json:"magnitude"`
	Duration           string   `json:"duration"`
	AffectedCharacters []string `json:"affectedCharacters"`
	AffectedLocations  []string `json:"affectedLocations"`
}

type rawCascading struct {
	Description  string     `json:"description"`
	DelaySeconds float64    `json:"delay"`
	Probability  *float64   `json:"probability"`
	Impact       *rawImpact `json:"impact"`
}

type rawConsequence struct {
	Type             string         `json:"type"`
	Description      string         `json:"description"`
	Impact           *rawImpact     `json:"impact"`
	Confidence       *float64       `json:"confidence"`
	CascadingEffects []rawCascading `json:"cascadingEffects"`
}

// #endregion

// #region structured-strategy

// parseStructured looks for a fenced data block or a top-level bracketed
// array, validates each element against the consequence schema, and maps
// it with defaults for missing fields.
func (g *Generator) parseStructured(text, actionID string) ([]consequence.Consequence, []string) {
	block := extractDataBlock(text)
	if block == "" {
		return nil, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(block), &elements); err != nil {
		// Single object fallback
		var obj json.RawMessage
		if err := json.Unmarshal([]byte(block), &obj); err != nil {
			return nil, []string{fmt.Sprintf("structured block did not parse: %v", err)}
		}
		elements = []json.RawMessage{obj}
	}

	var out []consequence.Consequence
	var warnings []string
	for i, el := range elements {
		var generic any
		if err := json.Unmarshal(el, &generic); err != nil {
			warnings = append(warnings, fmt.Sprintf("element %d did not parse: %v", i, err))
			continue
		}
		if err := consequenceSchema.Validate(generic); err != nil {
			warnings = append(warnings, fmt.Sprintf("element %d failed schema validation", i))
			continue
		}
		var raw rawConsequence
		if err := json.Unmarshal(el, &raw); err != nil {
			warnings = append(warnings, fmt.Sprintf("element %d did not map: %v", i, err))
			continue
		}
		out = append(out, g.mapRaw(raw, actionID))
	}
	return out, warnings
}

// mapRaw fills defaults: type→world_state, level→minor, magnitude→5,
// confidence→0.8.
func (g *Generator) mapRaw(raw rawConsequence, actionID string) consequence.Consequence {
	c := consequence.Consequence{
		ID:          uuid.New().String(),
		ActionID:    actionID,
		Type:        consequence.TypeWorldState,
		Description: raw.Description,
		Timestamp:   time.Now().UTC(),
		Confidence:  0.8,
	}
	if t := consequence.Type(raw.Type); t.Known() {
		c.Type = t
	}
	if raw.Confidence != nil {
		c.Confidence = *raw.Confidence
	}
	c.Impact = mapRawImpact(raw.Impact, strings.ToLower(raw.Description), c.Type)
	for _, rc := range raw.CascadingEffects {
		eff := consequence.CascadingEffect{
			ID:                  uuid.New().String(),
			ParentConsequenceID: c.ID,
			Description:         rc.Description,
			Delay:               time.Duration(rc.DelaySeconds * float64(time.Second)),
			Probability:         0.5,
			Impact:              mapRawImpact(rc.Impact, strings.ToLower(rc.Description), c.Type),
		}
		if rc.Probability != nil {
			eff.Probability = *rc.Probability
		}
		c.CascadingEffects = append(c.CascadingEffects, eff)
	}
	return c
}

func mapRawImpact(raw *rawImpact, lower string, typ consequence.Type) consequence.Impact {
	impact := consequence.Impact{
		Level:     consequence.LevelMinor,
		Magnitude: 5,
		Duration:  consequence.DurationMediumTerm,
	}
	if raw != nil {
		if l := consequence.Level(raw.Level); l.Known() {
			impact.Level = l
		}
		if raw.Magnitude != nil {
			impact.Magnitude = *raw.Magnitude
		}
		if d := consequence.EffectDuration(raw.Duration); d.Known() {
			impact.Duration = d
		}
		impact.AffectedSystems = raw.AffectedSystems
		impact.AffectedCharacters = raw.AffectedCharacters
		impact.AffectedLocations = raw.AffectedLocations
	}
	if len(impact.AffectedSystems) == 0 {
		impact.AffectedSystems = InferAffectedSystems(lower, typ)
	}
	return impact
}

// extractDataBlock returns the contents of the first fenced code block,
// or the first top-level bracketed array, or "".
func extractDataBlock(text string) string {
	if start := strings.Index(text, "```"); start >= 0 {
		rest := text[start+3:]
		// Skip an optional language tag on the fence line
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && nl < 20 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			if block := strings.TrimSpace(rest[:end]); block != "" {
				return block
			}
		}
	}

	start := strings.IndexByte(text, '[')
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// #endregion

// #region list-strategy

// listMarkers match numbered ("1." / "2)") and bulleted ("-", "*", "•") items.
func isListItem(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}
	switch {
	case trimmed[0] == '-' || trimmed[0] == '*':
		return strings.TrimSpace(trimmed[1:]), true
	case strings.HasPrefix(trimmed, "•"):
		return strings.TrimSpace(strings.TrimPrefix(trimmed, "•")), true
	}
	// Numbered marker: digits followed by '.' or ')'
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i > 0 && i < len(trimmed) && (trimmed[i] == '.' || trimmed[i] == ')') {
		return strings.TrimSpace(trimmed[i+1:]), true
	}
	return "", false
}

// parseList keeps lines that look like list items and infers type and
// impact from keyword tables.
func (g *Generator) parseList(text, actionID string) ([]consequence.Consequence, []string) {
	var out []consequence.Consequence
	for _, line := range strings.Split(text, "\n") {
		desc, ok := isListItem(line)
		if !ok || len(desc) <= 10 {
			continue
		}
		out = append(out, g.fromDescription(desc, actionID))
	}
	return out, nil
}

// #endregion

// #region narrative-strategy

// indicatorWords mark sentences that describe a consequence.
var indicatorWords = []string{
	"result", "effect", "impact", "cause", "caused", "lead", "leads",
	"change", "changed", "consequence", "now", "becomes", "will",
}

const maxNarrativeSentences = 4

// parseNarrative splits into sentences and keeps those over 15 characters
// containing a consequence-indicator word, capped to 4.
func (g *Generator) parseNarrative(text, actionID string) ([]consequence.Consequence, []string) {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	var out []consequence.Consequence
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if len(s) <= 15 {
			continue
		}
		if !lexicon.ContainsAny(strings.ToLower(s), indicatorWords) {
			continue
		}
		out = append(out, g.fromDescription(s, actionID))
		if len(out) >= maxNarrativeSentences {
			break
		}
	}
	return out, nil
}

// #endregion

// #region fallback

// fallbackConsequence synthesizes the single consequence returned when no
// strategy produced output.
func fallbackConsequence(actionID string) consequence.Consequence {
	return consequence.Consequence{
		ID:          uuid.New().String(),
		ActionID:    actionID,
		Type:        consequence.TypeWorldState,
		Description: "Action processed successfully",
		Impact: consequence.Impact{
			Level:           consequence.LevelMinor,
			Magnitude:       2,
			Duration:        consequence.DurationTemporary,
			AffectedSystems: []string{string(consequence.TypeWorldState)},
		},
		Timestamp:  time.Now().UTC(),
		Confidence: 0.5,
	}
}

// #endregion

// #region from-description

// fromDescription builds a consequence from inferred type and impact.
func (g *Generator) fromDescription(desc, actionID string) consequence.Consequence {
	typ := g.classifier.ClassifyType(desc)
	return consequence.Consequence{
		ID:          uuid.New().String(),
		ActionID:    actionID,
		Type:        typ,
		Description: desc,
		Impact:      InferImpact(desc, typ),
		Timestamp:   time.Now().UTC(),
		Confidence:  0.7,
	}
}

// #endregion
