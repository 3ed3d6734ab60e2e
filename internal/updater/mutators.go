package updater

// #region imports
import (
	"fmt"
	"strings"
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
	"github.com/danielpatrickdp/living-world/go-engine/internal/lexicon"
	"github.com/danielpatrickdp/living-world/go-engine/internal/worldstate"
)

// #endregion

// #region dispatch

// applyOne dispatches a consequence to its type-specific mutator operating
// on the shared working copy. Mutations are visible to later items in the
// same batch.
func applyOne(snap *worldstate.Snapshot, c consequence.Consequence) ([]consequence.AuditEntry, error) {
	switch c.Type {
	case consequence.TypeRelationship:
		return applyRelationship(snap, c), nil
	case consequence.TypeEnvironment:
		return applyEnvironment(snap, c), nil
	case consequence.TypeCharacter:
		return applyCharacter(snap, c), nil
	case consequence.TypeWorldState:
		return applyWorldEvent(snap, c), nil
	case consequence.TypeEconomic:
		return applyEconomic(snap, c), nil
	case consequence.TypeCombat, consequence.TypeExploration:
		return applyGeneric(snap, c.ID, c.Description, c.Impact, c.Timestamp), nil
	default:
		return nil, fmt.Errorf("no mutator for consequence type %q", c.Type)
	}
}

// #endregion

// #region relationship-mutator

// allyWords and enemyWords pick the sign and weight of a relationship shift.
var allyWords = []string{"ally", "allies", "friend", "friendly", "friendship", "bond"}
var enemyWords = []string{"enemy", "enemies", "hostile", "hostility", "rival", "betray"}

func applyRelationship(snap *worldstate.Snapshot, c consequence.Consequence) []consequence.AuditEntry {
	lower := strings.ToLower(c.Description)
	names := lexicon.MatchNames(c.Description, lexicon.CharacterNames, characterNames(snap))
	if len(names) == 1 && names[0] != "player" {
		names = append(names, "player")
	}
	if len(names) < 2 {
		return applyGeneric(snap, c.ID, c.Description, c.Impact, c.Timestamp)
	}

	modifier := 2.0
	switch {
	case lexicon.ContainsAny(lower, allyWords):
		modifier = 5.0
	case lexicon.ContainsAny(lower, enemyWords):
		modifier = -5.0
	}
	delta := float64(c.Impact.Magnitude) * c.Confidence * modifier

	var entries []consequence.AuditEntry
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			entries = append(entries, shiftRelationship(snap, c, names[i], names[j], delta))
			entries = append(entries, shiftRelationship(snap, c, names[j], names[i], delta))
		}
	}
	return entries
}

func shiftRelationship(snap *worldstate.Snapshot, c consequence.Consequence, from, to string, delta float64) consequence.AuditEntry {
	ch := snap.Character(from)
	edge := ch.Relationship(to)
	prev := edge.Strength
	edge.Strength = worldstate.ClampStrength(edge.Strength + delta)
	edge.History = append(edge.History, c.Description)
	return entry(c.ID, consequence.AuditApplied, "relationship",
		fmt.Sprintf("%s→%s strength %+.1f", from, to, delta),
		fmt.Sprintf("%.1f", prev), fmt.Sprintf("%.1f", edge.Strength), c.Timestamp)
}

// #endregion

// #region environment-mutator

func applyEnvironment(snap *worldstate.Snapshot, c consequence.Consequence) []consequence.AuditEntry {
	lower := strings.ToLower(c.Description)
	regions := lexicon.MatchNames(c.Description, lexicon.RegionNames, regionNames(snap))
	if len(regions) == 0 {
		return applyGeneric(snap, c.ID, c.Description, c.Impact, c.Timestamp)
	}

	dir := gaugeDirection(lower)
	var entries []consequence.AuditEntry
	for _, name := range regions {
		region := snap.Region(name)
		if region == nil {
			continue
		}
		prev := fmt.Sprintf("prosperity=%d safety=%d conditions=%q",
			region.Prosperity, region.Safety, region.CurrentConditions)

		region.CurrentConditions = regenerateConditions(region.CurrentConditions, lower)
		region.Prosperity = worldstate.ClampGauge(region.Prosperity + dir*c.Impact.Magnitude)
		region.Safety = worldstate.ClampGauge(region.Safety + dir*c.Impact.Magnitude)

		entries = append(entries, entry(c.ID, consequence.AuditApplied, "environment",
			fmt.Sprintf("region %s conditions and gauges shifted %+d", name, dir*c.Impact.Magnitude),
			prev,
			fmt.Sprintf("prosperity=%d safety=%d conditions=%q",
				region.Prosperity, region.Safety, region.CurrentConditions),
			c.Timestamp))
	}
	if len(entries) == 0 {
		return applyGeneric(snap, c.ID, c.Description, c.Impact, c.Timestamp)
	}
	return entries
}

// regenerateConditions appends weather and damage hints found in the text.
func regenerateConditions(current, lower string) string {
	var hints []string
	for _, w := range lexicon.WeatherWords {
		if strings.Contains(lower, w) {
			hints = append(hints, w)
		}
	}
	for _, w := range lexicon.DamageWords {
		if strings.Contains(lower, w) {
			hints = append(hints, w)
		}
	}
	if len(hints) == 0 {
		return current
	}
	joined := strings.Join(hints, ", ")
	if current == "" {
		return joined
	}
	return current + "; " + joined
}

// #endregion

// #region character-mutator

var statusTable = map[string]string{
	"dead": "deceased", "killed": "deceased", "slain": "deceased",
	"injured": "injured", "wounded": "injured",
	"missing": "missing", "vanished": "missing",
	"captured": "captured", "imprisoned": "captured",
}

var moodTable = map[string]string{
	"happy": "happy", "grateful": "happy", "joyful": "happy",
	"angry": "angry", "furious": "angry", "enraged": "angry",
	"scared": "fearful", "afraid": "fearful", "terrified": "fearful",
	"sad": "sad", "grieving": "sad",
}

var activityTable = map[string]string{
	"fight": "fighting", "fighting": "fighting", "battle": "fighting",
	"travel": "traveling", "traveling": "traveling", "journey": "traveling",
	"trade": "trading", "trading": "trading", "selling": "trading",
	"rest": "resting", "resting": "resting", "sleeping": "resting",
	"hiding": "hiding", "fleeing": "fleeing",
}

func applyCharacter(snap *worldstate.Snapshot, c consequence.Consequence) []consequence.AuditEntry {
	names := lexicon.MatchNames(c.Description, lexicon.CharacterNames, characterNames(snap))
	if len(names) == 0 {
		return applyGeneric(snap, c.ID, c.Description, c.Impact, c.Timestamp)
	}

	tokens := lexicon.Tokens(c.Description)
	var entries []consequence.AuditEntry
	for _, name := range names {
		ch := snap.Character(name)
		prev := fmt.Sprintf("status=%s mood=%s activity=%s", ch.Status, ch.Mood, ch.CurrentActivity)
		changed := false
		for _, t := range tokens {
			if v, ok := statusTable[t]; ok {
				ch.Status = v
				changed = true
			}
			if v, ok := moodTable[t]; ok {
				ch.Mood = v
				changed = true
			}
			if v, ok := activityTable[t]; ok {
				ch.CurrentActivity = v
				changed = true
			}
		}
		if !changed {
			continue
		}
		entries = append(entries, entry(c.ID, consequence.AuditApplied, "character",
			fmt.Sprintf("character %s updated", name),
			prev,
			fmt.Sprintf("status=%s mood=%s activity=%s", ch.Status, ch.Mood, ch.CurrentActivity),
			c.Timestamp))
	}
	if len(entries) == 0 {
		return applyGeneric(snap, c.ID, c.Description, c.Impact, c.Timestamp)
	}
	return entries
}

// #endregion

// #region world-event-mutator

func applyWorldEvent(snap *worldstate.Snapshot, c consequence.Consequence) []consequence.AuditEntry {
	ev := worldstate.Event{
		ID:          c.ID + ":world_state",
		Type:        "world_state",
		Description: c.Description,
		Timestamp:   c.Timestamp,
	}
	snap.Events = append(snap.Events, ev)
	return []consequence.AuditEntry{entry(c.ID, consequence.AuditApplied, "world_state",
		"recorded world event", "", ev.Description, c.Timestamp)}
}

// #endregion

// #region economic-mutator

const tradeRouteThreshold = 7

func applyEconomic(snap *worldstate.Snapshot, c consequence.Consequence) []consequence.AuditEntry {
	lower := strings.ToLower(c.Description)
	regions := lexicon.MatchNames(c.Description, lexicon.RegionNames, regionNames(snap))

	dir := gaugeDirection(lower)
	var entries []consequence.AuditEntry
	for _, name := range regions {
		region := snap.Region(name)
		if region == nil {
			continue
		}
		prev := region.Prosperity
		region.Prosperity = worldstate.ClampGauge(region.Prosperity + dir*c.Impact.Magnitude)
		entries = append(entries, entry(c.ID, consequence.AuditApplied, "economic",
			fmt.Sprintf("region %s prosperity %+d", name, dir*c.Impact.Magnitude),
			fmt.Sprintf("%d", prev), fmt.Sprintf("%d", region.Prosperity), c.Timestamp))
	}

	if c.Impact.Magnitude > tradeRouteThreshold {
		for i := range snap.Economy.TradeRoutes {
			route := &snap.Economy.TradeRoutes[i]
			prev := fmt.Sprintf("activity=%d danger=%d", route.Activity, route.Danger)
			route.Activity = worldstate.ClampGauge(route.Activity + dir*c.Impact.Magnitude)
			route.Danger = worldstate.ClampGauge(route.Danger - dir*c.Impact.Magnitude/2)
			entries = append(entries, entry(c.ID, consequence.AuditApplied, "economic",
				fmt.Sprintf("trade route %s→%s adjusted", route.From, route.To),
				prev, fmt.Sprintf("activity=%d danger=%d", route.Activity, route.Danger), c.Timestamp))
		}
	}

	if len(entries) == 0 {
		return applyGeneric(snap, c.ID, c.Description, c.Impact, c.Timestamp)
	}
	return entries
}

// #endregion

// #region generic-mutator

// applyGeneric appends one generic event per affected system. Used for
// combat, exploration, cascading effects, and any consequence whose
// dedicated mutator found nothing concrete to touch.
func applyGeneric(snap *worldstate.Snapshot, sourceID, description string, impact consequence.Impact, ts time.Time) []consequence.AuditEntry {
	systems := impact.AffectedSystems
	if len(systems) == 0 {
		systems = []string{"world_state"}
	}
	var entries []consequence.AuditEntry
	for _, system := range systems {
		ev := worldstate.Event{
			ID:          sourceID + ":" + system,
			Type:        system,
			Description: description,
			Timestamp:   ts,
		}
		snap.Events = append(snap.Events, ev)
		entries = append(entries, entry(sourceID, consequence.AuditApplied, system,
			"recorded generic event", "", description, ts))
	}
	return entries
}

// #endregion

// #region helpers

func characterNames(snap *worldstate.Snapshot) []string {
	out := make([]string, len(snap.Characters))
	for i, c := range snap.Characters {
		out[i] = c.Name
	}
	return out
}

func regionNames(snap *worldstate.Snapshot) []string {
	out := make([]string, len(snap.Regions))
	for i, r := range snap.Regions {
		out[i] = r.Name
	}
	return out
}

// gaugeDirection is +1 unless the text is dominated by harmful vocabulary.
func gaugeDirection(lower string) int {
	if lexicon.ContainsAny(lower, lexicon.NegativeShiftWords) &&
		!lexicon.ContainsAny(lower, lexicon.PositiveShiftWords) {
		return -1
	}
	return 1
}

func entry(consequenceID string, action consequence.AuditAction, system, change, prev, next string, ts time.Time) consequence.AuditEntry {
	return consequence.AuditEntry{
		Timestamp:     ts,
		ConsequenceID: consequenceID,
		Action:        action,
		System:        system,
		Change:        change,
		PreviousValue: prev,
		NewValue:      next,
	}
}

// #endregion
