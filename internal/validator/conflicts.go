package validator

// #region imports
import (
	"fmt"
	"sort"
	"strings"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
	"github.com/danielpatrickdp/living-world/go-engine/internal/lexicon"
)

// #endregion

// #region kinds

// ConflictKind is the internal classification driving the resolution policy.
type ConflictKind string

const (
	KindDirect     ConflictKind = "direct"
	KindRedundancy ConflictKind = "redundancy"
	KindPriority   ConflictKind = "priority"
)

// #endregion

// #region classifier-interface

// ConflictClassifier detects the relationship between two consequences.
// The keyword implementation is the default; a more principled classifier
// can replace it without touching pipeline control flow.
type ConflictClassifier interface {
	Classify(a, b consequence.Consequence) (ConflictKind, bool)
}

// #endregion

// #region detected

// Detected pairs a conflict record with the indices it concerns.
type Detected struct {
	Kind     ConflictKind
	First    int // index into the valid slice
	Second   int
	Conflict consequence.Conflict
}

// #endregion

// #region keyword-classifier

// KeywordConflictClassifier is the fixed-vocabulary conflict detector.
type KeywordConflictClassifier struct{}

// Classify applies, in order: priority conflict, direct conflict, redundancy.
func (KeywordConflictClassifier) Classify(a, b consequence.Consequence) (ConflictKind, bool) {
	direct := DirectlyConflicts(a, b)
	if direct && bothCriticalSharedSystem(a, b) {
		return KindPriority, true
	}
	if direct {
		return KindDirect, true
	}
	if redundant(a, b) {
		return KindRedundancy, true
	}
	return "", false
}

// #endregion

// #region direct-conflict

// DirectlyConflicts reports whether two descriptions use opposite terms
// from the antonym table while sharing a recognizable subject.
func DirectlyConflicts(a, b consequence.Consequence) bool {
	tokensA := lexicon.TokenSet(a.Description)
	tokensB := lexicon.TokenSet(b.Description)

	opposed := false
	for _, pair := range lexicon.AntonymPairs {
		x, y := pair[0], pair[1]
		if (hasTerm(tokensA, x) && hasTerm(tokensB, y)) ||
			(hasTerm(tokensA, y) && hasTerm(tokensB, x)) {
			opposed = true
			break
		}
	}
	if !opposed {
		return false
	}

	for _, noun := range lexicon.SubjectNouns {
		if tokensA[noun] && tokensB[noun] {
			return true
		}
	}
	// A shared non-vocabulary subject still anchors the conflict: any
	// common content token of 4+ letters that is neither one of the
	// opposed terms nor a stopword.
	for t := range tokensA {
		if len(t) >= 4 && tokensB[t] && !isAntonymTerm(t) && !lexicon.Stopwords[t] {
			return true
		}
	}
	return false
}

// hasTerm matches a term against the token set, accepting common
// inflections (allies/ally, increased/increase).
func hasTerm(tokens map[string]bool, term string) bool {
	if tokens[term] {
		return true
	}
	for t := range tokens {
		if strings.HasPrefix(t, term) && len(t) <= len(term)+2 {
			return true
		}
		// "allies" → "alli" prefix of neither; handle y/ies
		if strings.HasSuffix(term, "y") && t == term[:len(term)-1]+"ies" {
			return true
		}
	}
	return false
}

func isAntonymTerm(t string) bool {
	for _, pair := range lexicon.AntonymPairs {
		if strings.HasPrefix(t, pair[0]) || strings.HasPrefix(t, pair[1]) {
			return true
		}
	}
	return false
}

// #endregion

// #region redundancy

func redundant(a, b consequence.Consequence) bool {
	sim := lexicon.Similarity(a.Description, b.Description)
	if a.Type == b.Type && sim > 0.8 {
		return true
	}
	if sameSystemSet(a.Impact.AffectedSystems, b.Impact.AffectedSystems) &&
		absInt(a.Impact.Magnitude-b.Impact.Magnitude) < 2 && sim > 0.6 {
		return true
	}
	return false
}

func sameSystemSet(a, b []string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion

// #region priority-conflict

func bothCriticalSharedSystem(a, b consequence.Consequence) bool {
	if a.Impact.Level != consequence.LevelCritical || b.Impact.Level != consequence.LevelCritical {
		return false
	}
	if a.Impact.Magnitude <= 7 || b.Impact.Magnitude <= 7 {
		return false
	}
	set := make(map[string]bool, len(a.Impact.AffectedSystems))
	for _, s := range a.Impact.AffectedSystems {
		set[s] = true
	}
	for _, s := range b.Impact.AffectedSystems {
		if set[s] {
			return true
		}
	}
	return false
}

// #endregion

// #region detect

// DetectConflicts runs the pairwise O(n²) scan over the valid subset.
func DetectConflicts(valid []consequence.Consequence, classifier ConflictClassifier) []Detected {
	var out []Detected
	for i := 0; i < len(valid); i++ {
		for j := i + 1; j < len(valid); j++ {
			kind, ok := classifier.Classify(valid[i], valid[j])
			if !ok {
				continue
			}
			out = append(out, Detected{
				Kind:   kind,
				First:  i,
				Second: j,
				Conflict: consequence.Conflict{
					Type:          conflictTypeFor(valid[i], valid[j]),
					ConsequenceID: valid[i].ID,
					Description: fmt.Sprintf("%s conflict between %q and %q",
						kind, trim(valid[i].Description), trim(valid[j].Description)),
					Severity: severityFor(kind),
				},
			})
		}
	}
	return out
}

func conflictTypeFor(a, b consequence.Consequence) consequence.ConflictType {
	if a.Type == consequence.TypeRelationship || b.Type == consequence.TypeRelationship {
		return consequence.ConflictRelationship
	}
	if a.Type == consequence.TypeEconomic || b.Type == consequence.TypeEconomic {
		return consequence.ConflictResource
	}
	return consequence.ConflictState
}

func severityFor(kind ConflictKind) consequence.Severity {
	switch kind {
	case KindPriority:
		return consequence.SeverityCritical
	case KindDirect:
		return consequence.SeverityHigh
	default:
		return consequence.SeverityLow
	}
}

func trim(s string) string {
	r := []rune(s)
	if len(r) > 40 {
		return string(r[:40]) + "…"
	}
	return s
}

// #endregion
