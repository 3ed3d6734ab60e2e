package generator

import (
	"testing"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want consequence.Type
	}{
		{"relationship-ally", "The merchant becomes a trusted ally", consequence.TypeRelationship},
		{"relationship-betray", "The guard will betray the town council", consequence.TypeRelationship},
		{"environment-storm", "A great storm gathers over the coast", consequence.TypeEnvironment},
		{"economic-prices", "Market prices climb as goods grow scarce", consequence.TypeEconomic},
		{"combat-battle", "A fierce battle erupts at the gates", consequence.TypeCombat},
		{"exploration-ruins", "Ancient ruins emerge beneath the sands", consequence.TypeExploration},
		{"character-mood", "The elder's mood darkens with each passing day", consequence.TypeCharacter},
		{"fallback", "Nothing recognizable happens here", consequence.TypeWorldState},
	}

	c := KeywordClassifier{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.ClassifyType(tt.desc); got != tt.want {
				t.Fatalf("ClassifyType(%q) = %s, want %s", tt.desc, got, tt.want)
			}
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// Relationship vocabulary wins over character vocabulary when both match.
	c := KeywordClassifier{}
	got := c.ClassifyType("The angry rival swears revenge")
	if got != consequence.TypeRelationship {
		t.Fatalf("expected relationship to take precedence, got %s", got)
	}
}

func TestInferImpact(t *testing.T) {
	tests := []struct {
		name          string
		desc          string
		wantLevel     consequence.Level
		wantMagnitude int
	}{
		{"escalation", "The flood destroyed the lower district", consequence.LevelCritical, 9},
		{"diminution", "A slight tremor passes through the square", consequence.LevelMinor, 2},
		{"neutral", "The watch rotates its patrol schedule", consequence.LevelModerate, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impact := InferImpact(tt.desc, consequence.TypeWorldState)
			if impact.Level != tt.wantLevel {
				t.Fatalf("level = %s, want %s", impact.Level, tt.wantLevel)
			}
			if impact.Magnitude != tt.wantMagnitude {
				t.Fatalf("magnitude = %d, want %d", impact.Magnitude, tt.wantMagnitude)
			}
			if impact.Duration != consequence.DurationMediumTerm {
				t.Fatalf("duration = %s, want medium_term", impact.Duration)
			}
		})
	}
}

func TestInferAffectedSystems(t *testing.T) {
	systems := InferAffectedSystems("the storm disrupts trade across the region", consequence.TypeEnvironment)
	if systems[0] != "environment" {
		t.Fatalf("first system should be the consequence's own type, got %v", systems)
	}
	foundEconomic := false
	for _, s := range systems {
		if s == "economic" {
			foundEconomic = true
		}
	}
	if !foundEconomic {
		t.Fatalf("expected economic to be detected from 'trade', got %v", systems)
	}
}
