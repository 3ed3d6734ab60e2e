package validator

// #region imports
import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
)

// #endregion

// #region strategy-table

// resolutionPolicy maps a conflict kind to the strategy applied to it.
// modify currently has no distinct modification logic and is handled
// identically to prioritize.
var resolutionPolicy = map[ConflictKind]consequence.ResolutionStrategy{
	KindRedundancy: consequence.ResolveMerge,
	KindDirect:     consequence.ResolvePrioritize,
	KindPriority:   consequence.ResolveRemoveOne,
}

// #endregion

// #region resolve

// ResolveConflicts applies the resolution policy per detected conflict
// against the still-mutable valid list. Returns the surviving consequences
// and the annotated conflict records.
func ResolveConflicts(valid []consequence.Consequence, detected []Detected) ([]consequence.Consequence, []consequence.Conflict) {
	if len(detected) == 0 {
		return valid, nil
	}

	// Work by ID: merges and drops shift indices.
	working := append([]consequence.Consequence(nil), valid...)
	conflicts := make([]consequence.Conflict, 0, len(detected))

	for _, d := range detected {
		firstID := valid[d.First].ID
		secondID := valid[d.Second].ID
		i := indexOf(working, firstID)
		j := indexOf(working, secondID)

		conflict := d.Conflict
		strategy := resolutionPolicy[d.Kind]
		if strategy == "" || strategy == consequence.ResolveModify {
			strategy = consequence.ResolvePrioritize
		}

		if i < 0 || j < 0 {
			conflict.Resolution = &consequence.Resolution{
				Strategy: strategy,
				Notes:    "participant already resolved by an earlier conflict",
			}
			conflicts = append(conflicts, conflict)
			continue
		}

		switch strategy {
		case consequence.ResolveMerge:
			merged := Merge(working[i], working[j])
			working = removeAt(working, j) // j > i always holds after indexOf on ordered slice
			working[indexOf(working, firstID)] = merged
			conflict.Resolution = &consequence.Resolution{
				Strategy:      consequence.ResolveMerge,
				ResolvedValue: merged.ID,
				Notes:         "merged redundant consequences",
			}

		default: // remove_one / prioritize
			drop, keep := pickLoser(working[i], working[j])
			working = removeByID(working, drop.ID)
			conflict.Resolution = &consequence.Resolution{
				Strategy:      strategy,
				ResolvedValue: keep.ID,
				Notes:         fmt.Sprintf("dropped %s (lower confidence)", drop.ID),
			}
		}
		conflicts = append(conflicts, conflict)
	}

	log.Printf("[VALIDATE] resolved %d conflicts, %d consequences survive", len(conflicts), len(working))
	return working, conflicts
}

// #endregion

// #region pick-loser

// pickLoser drops the lower-confidence consequence; ties break on lower
// magnitude, then on batch order (second loses).
func pickLoser(a, b consequence.Consequence) (drop, keep consequence.Consequence) {
	if a.Confidence != b.Confidence {
		if a.Confidence < b.Confidence {
			return a, b
		}
		return b, a
	}
	if a.Impact.Magnitude != b.Impact.Magnitude {
		if a.Impact.Magnitude < b.Impact.Magnitude {
			return a, b
		}
		return b, a
	}
	return b, a
}

// #endregion

// #region merge

// Merge synthesizes one consequence from two: concatenated description,
// union of affected systems/characters/locations, max magnitude and
// confidence, permanent duration if either side was permanent, concatenated
// cascading-effect lists, fresh timestamp, the first item's ID.
func Merge(a, b consequence.Consequence) consequence.Consequence {
	merged := a
	merged.Description = a.Description + "; " + b.Description
	merged.Impact.AffectedSystems = unionStrings(a.Impact.AffectedSystems, b.Impact.AffectedSystems)
	merged.Impact.AffectedCharacters = unionStrings(a.Impact.AffectedCharacters, b.Impact.AffectedCharacters)
	merged.Impact.AffectedLocations = unionStrings(a.Impact.AffectedLocations, b.Impact.AffectedLocations)
	if b.Impact.Magnitude > merged.Impact.Magnitude {
		merged.Impact.Magnitude = b.Impact.Magnitude
	}
	if b.Confidence > merged.Confidence {
		merged.Confidence = b.Confidence
	}
	if a.Impact.Duration == consequence.DurationPermanent || b.Impact.Duration == consequence.DurationPermanent {
		merged.Impact.Duration = consequence.DurationPermanent
	}
	merged.Impact.Level = consequence.LevelForMagnitude(merged.Impact.Magnitude)
	merged.CascadingEffects = append(append([]consequence.CascadingEffect(nil),
		a.CascadingEffects...), b.CascadingEffects...)
	merged.Timestamp = time.Now().UTC()
	if merged.ID == "" {
		merged.ID = uuid.New().String()
	}
	return merged
}

// #endregion

// #region helpers

func indexOf(list []consequence.Consequence, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func removeAt(list []consequence.Consequence, i int) []consequence.Consequence {
	return append(list[:i:i], list[i+1:]...)
}

func removeByID(list []consequence.Consequence, id string) []consequence.Consequence {
	i := indexOf(list, id)
	if i < 0 {
		return list
	}
	return removeAt(list, i)
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// #endregion
