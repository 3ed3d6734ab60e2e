package worldstate

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
)

// #endregion

// #region default-snapshot

// DefaultSnapshot returns the starter world used when a fresh database has
// no active snapshot. Names are lowercase to match the shared vocabulary.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Version:     1,
		Timestamp:   time.Now().UTC(),
		Environment: "temperate",
		Regions: []Region{
			{Name: "village", CurrentConditions: "calm", Prosperity: 60, Safety: 70},
			{Name: "forest", CurrentConditions: "overgrown", Prosperity: 40, Safety: 50},
			{Name: "mountains", CurrentConditions: "windswept", Prosperity: 30, Safety: 40},
			{Name: "harbor", CurrentConditions: "busy", Prosperity: 65, Safety: 60},
		},
		Characters: []CharacterState{
			{Name: "player", Status: "active", Mood: "neutral"},
			{Name: "merchant", Status: "active", Mood: "neutral", CurrentActivity: "trading"},
			{Name: "elder", Status: "active", Mood: "neutral"},
			{Name: "guard", Status: "active", Mood: "neutral"},
		},
		Economy: Economy{
			Resources: map[string]int{"grain": 100, "iron": 40, "timber": 70},
			TradeRoutes: []TradeRoute{
				{From: "village", To: "harbor", Activity: 55, Danger: 20},
				{From: "village", To: "mountains", Activity: 30, Danger: 45},
			},
			Markets: []Market{
				{Region: "village", PriceIndex: 100},
				{Region: "harbor", PriceIndex: 105},
			},
		},
	}
}

// #endregion

// #region default-rules

// DefaultRules returns the starter rule set. Rules phrased with "cannot"
// or "impossible" participate in coherence checks.
func DefaultRules() []consequence.WorldRule {
	return []consequence.WorldRule{
		{ID: "rule-dead", Name: "mortality", Description: "Dead characters cannot act or speak", Type: "character"},
		{ID: "rule-resurrect", Name: "no-resurrection", Description: "Resurrection is impossible without divine intervention", Type: "character"},
		{ID: "rule-season", Name: "seasons", Description: "The harbor cannot freeze in summer", Type: "environment"},
		{ID: "rule-economy", Name: "trade-integrity", Description: "Destroyed trade routes cannot carry goods", Type: "economic"},
		{ID: "rule-travel", Name: "locality", Description: "Characters cannot be in two regions at once", Type: "world_state"},
	}
}

// #endregion
