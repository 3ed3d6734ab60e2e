package generator

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
)

var testReq = Request{ActionID: "action-1", PlayerID: "player", Region: "village"}

func TestGenerateJSONStrategy(t *testing.T) {
	text := "The action ripples outward.\n```json\n" + `[
  {
    "type": "economic",
    "description": "The village market prices rise after the caravan arrives",
    "confidence": 0.9,
    "impact": {"level": "moderate", "magnitude": 5, "duration": "medium_term", "affectedSystems": ["economic"]}
  },
  {
    "type": "relationship",
    "description": "The merchant grows to trust the player deeply",
    "confidence": 0.8,
    "impact": {"level": "minor", "magnitude": 3, "duration": "long_term", "affectedSystems": ["relationship"]}
  }
]` + "\n```\n"

	g := New()
	res := g.Generate(text, testReq, nil, DefaultOptions())
	if !res.Success {
		t.Fatalf("expected success, errors: %v", res.Errors)
	}
	if res.Metadata.Strategy != StrategyJSON {
		t.Fatalf("strategy = %s, want %s", res.Metadata.Strategy, StrategyJSON)
	}
	if len(res.Consequences) != 2 {
		t.Fatalf("expected 2 consequences, got %d", len(res.Consequences))
	}
	for _, c := range res.Consequences {
		if c.ActionID != "action-1" {
			t.Fatalf("consequence not tagged with action: %+v", c)
		}
		if c.ID == "" {
			t.Fatal("consequence missing ID")
		}
	}
}

func TestGenerateJSONDefaults(t *testing.T) {
	text := "```\n" + `[{"description": "Something notable shifts in the realm tonight"}]` + "\n```"
	g := New()
	res := g.Generate(text, testReq, nil, DefaultOptions())
	if len(res.Consequences) != 1 {
		t.Fatalf("expected 1 consequence, got %d", len(res.Consequences))
	}
	c := res.Consequences[0]
	if c.Type != consequence.TypeWorldState {
		t.Fatalf("default type = %s, want world_state", c.Type)
	}
	if c.Confidence != 0.8 {
		t.Fatalf("default confidence = %.2f, want 0.8", c.Confidence)
	}
	if c.Impact.Magnitude != 5 {
		t.Fatalf("default magnitude = %d, want 5", c.Impact.Magnitude)
	}
	if len(c.Impact.AffectedSystems) == 0 {
		t.Fatal("affected systems should be inferred when missing")
	}
}

func TestGenerateSkipsInvalidJSONElements(t *testing.T) {
	text := "```\n" + `[
  {"description": "short"},
  {"description": "The harbor trade routes reopen to merchant ships"}
]` + "\n```"
	g := New()
	res := g.Generate(text, testReq, nil, DefaultOptions())
	if len(res.Consequences) != 1 {
		t.Fatalf("expected only the schema-valid element, got %d", len(res.Consequences))
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected a warning for the skipped element")
	}
}

func TestGenerateListStrategy(t *testing.T) {
	text := `The dust settles and three things change:
- The village market prices rise after the disruption
- The guard grows suspicious of strangers in town
1. The forest paths become harder to travel safely`

	g := New()
	res := g.Generate(text, testReq, nil, DefaultOptions())
	if res.Metadata.Strategy != StrategyStructuredText {
		t.Fatalf("strategy = %s, want %s", res.Metadata.Strategy, StrategyStructuredText)
	}
	if len(res.Consequences) != 3 {
		t.Fatalf("expected 3 consequences, got %d", len(res.Consequences))
	}
}

func TestGenerateListStrategyUnicodeBullets(t *testing.T) {
	text := "The scene shifts:\n" +
		"• The village market prices rise after the disruption\n" +
		"• The guard grows suspicious of strangers in town"

	g := New()
	res := g.Generate(text, testReq, nil, DefaultOptions())
	if res.Metadata.Strategy != StrategyStructuredText {
		t.Fatalf("strategy = %s, want %s", res.Metadata.Strategy, StrategyStructuredText)
	}
	if len(res.Consequences) != 2 {
		t.Fatalf("expected 2 consequences, got %d", len(res.Consequences))
	}
	for _, c := range res.Consequences {
		if strings.HasPrefix(c.Description, "•") {
			t.Fatalf("bullet marker leaked into description: %q", c.Description)
		}
	}
}

func TestGenerateNarrativeStrategy(t *testing.T) {
	text := "The blow lands hard. As a result the village watchtower now stands empty. " +
		"This change leads the elders to call an urgent council."

	g := New()
	res := g.Generate(text, testReq, nil, DefaultOptions())
	if res.Metadata.Strategy != StrategyPlainText {
		t.Fatalf("strategy = %s, want %s", res.Metadata.Strategy, StrategyPlainText)
	}
	if len(res.Consequences) == 0 {
		t.Fatal("expected narrative sentences to yield consequences")
	}
}

func TestGenerateEmptyFallsBack(t *testing.T) {
	g := New()
	res := g.Generate("", testReq, nil, DefaultOptions())
	if res.Success {
		t.Fatal("fallback run should not report success")
	}
	if res.Metadata.Strategy != StrategyFallback {
		t.Fatalf("strategy = %s, want %s", res.Metadata.Strategy, StrategyFallback)
	}
	if len(res.Consequences) != 1 {
		t.Fatalf("expected exactly one fallback consequence, got %d", len(res.Consequences))
	}
	c := res.Consequences[0]
	if c.Type != consequence.TypeWorldState || c.Impact.Magnitude != 2 || c.Confidence != 0.5 {
		t.Fatalf("fallback shape wrong: %+v", c)
	}
	if c.Impact.Duration != consequence.DurationTemporary {
		t.Fatalf("fallback duration = %s, want temporary", c.Impact.Duration)
	}
}

func TestGenerateNeverReturnsZero(t *testing.T) {
	// Every parsed item sits below the confidence floor, so all are
	// filtered and the fallback is substituted.
	text := "```\n" + `[{"description": "A faint whisper moves through the village", "confidence": 0.2}]` + "\n```"
	g := New()
	res := g.Generate(text, testReq, nil, DefaultOptions())
	if len(res.Consequences) == 0 {
		t.Fatal("generate must never return zero consequences")
	}
}

func TestGenerateTruncatesByPriority(t *testing.T) {
	lines := make([]string, 0, 6)
	for _, s := range []string{
		"The village market prices rise after the disruption",
		"The guard grows suspicious of strangers in town",
		"The forest paths become harder to travel safely",
		"The innkeeper hears rumors about the night's events",
		"The harbor crews talk about new dangers at sea",
		"The elder worries about the coming winter stores",
	} {
		lines = append(lines, "- "+s)
	}
	g := New()
	res := g.Generate(strings.Join(lines, "\n"), testReq, nil, DefaultOptions())
	if len(res.Consequences) > 4 {
		t.Fatalf("expected at most 4 consequences, got %d", len(res.Consequences))
	}
	for i := 1; i < len(res.Consequences); i++ {
		if res.Consequences[i-1].PriorityScore() < res.Consequences[i].PriorityScore() {
			t.Fatal("consequences not ordered by priority score")
		}
	}
}

func TestGenerateDropsContradictions(t *testing.T) {
	text := `- The village market prices increase after the caravan arrives
- The village market prices decrease after the caravan arrives`
	g := New()
	res := g.Generate(text, testReq, nil, DefaultOptions())
	if len(res.Consequences) != 1 {
		t.Fatalf("expected contradiction dropped, got %d consequences", len(res.Consequences))
	}
}

func TestShortKeepsRunesIntact(t *testing.T) {
	long := strings.Repeat("é", 40)
	got := short(long)
	if !utf8.ValidString(got) {
		t.Fatalf("short produced invalid UTF-8: %q", got)
	}
	if utf8.RuneCountInString(got) != 33 {
		t.Fatalf("rune count = %d, want 32 plus ellipsis", utf8.RuneCountInString(got))
	}
}

func TestGenerateFiltersRuleViolations(t *testing.T) {
	rules := []consequence.WorldRule{
		{ID: "r1", Name: "mortality", Description: "Dead characters cannot act or speak"},
	}
	text := `- The dead guard can act and patrol the walls again
- The village market prices rise after the disruption`
	g := New()
	res := g.Generate(text, testReq, rules, DefaultOptions())
	for _, c := range res.Consequences {
		if strings.Contains(c.Description, "dead guard") {
			t.Fatalf("rule-violating consequence survived: %q", c.Description)
		}
	}
	if len(res.Consequences) != 1 {
		t.Fatalf("expected 1 surviving consequence, got %d", len(res.Consequences))
	}
}
