package lexicon

// #region imports
import (
	"strings"
	"unicode"
)

// #endregion

// #region type-keywords

// TypeKeywords maps a consequence type name to its trigger vocabulary.
// Matched against lower-cased descriptions; no model call.
var TypeKeywords = map[string][]string{
	"relationship": {
		"friend", "enemy", "ally", "allies", "rival", "trust", "betray",
		"hostile", "friendly", "alliance", "bond", "relationship", "reputation",
	},
	"environment": {
		"weather", "forest", "village", "river", "mountain", "storm",
		"rain", "fog", "terrain", "land", "nature", "climate", "flood", "fire",
	},
	"character": {
		"mood", "status", "injured", "wounded", "angry", "happy",
		"scared", "fearful", "grateful", "dead", "missing", "health",
	},
	"economic": {
		"trade", "market", "price", "gold", "coin", "merchant",
		"wealth", "prosperity", "goods", "caravan", "commerce", "tax",
	},
	"combat": {
		"fight", "battle", "attack", "war", "weapon", "defend",
		"siege", "raid", "wounded", "victory", "defeat", "skirmish",
	},
	"exploration": {
		"discover", "explore", "found", "uncover", "map", "expedition",
		"ruins", "cave", "hidden", "secret", "path", "journey",
	},
	"world_state": {
		"world", "realm", "kingdom", "event", "change", "shift",
	},
}

// #endregion

// #region impact-keywords

// EscalationWords push an inferred impact toward critical.
var EscalationWords = []string{
	"destroy", "destroyed", "massive", "catastrophic", "devastat",
	"annihilat", "obliterat", "collapse", "ruin",
}

// DiminutionWords pull an inferred impact toward minor.
var DiminutionWords = []string{
	"small", "minor", "slight", "slightly", "tiny", "brief", "subtle",
}

// PositiveShiftWords mark a beneficial change to a region gauge.
var PositiveShiftWords = []string{
	"restore", "restored", "flourish", "flourishes", "bloom", "protect",
	"protected", "rebuild", "rebuilt", "prosper", "prospers", "thrive",
	"thrives", "improve", "improved", "increase", "increased", "boost", "boosted",
}

// NegativeShiftWords mark a harmful change to a region gauge.
var NegativeShiftWords = []string{
	"destroy", "destroyed", "damage", "damaged", "burn", "burned",
	"flood", "flooded", "attack", "attacked", "raid", "raided",
	"decline", "declined", "collapse", "collapsed", "decrease", "decreased",
	"worsen", "worsened", "crash", "crashed",
}

// WeatherWords are appended to a region's condition string when present.
var WeatherWords = []string{
	"storm", "rain", "fog", "snow", "drought", "clear skies", "heatwave",
}

// DamageWords are appended to a region's condition string when present.
var DamageWords = []string{
	"burned", "flooded", "destroyed", "ruined", "scorched", "ravaged",
}

// #endregion

// #region names

// CharacterNames is the fixed vocabulary of recognizable character names.
// Snapshot characters are matched in addition to these.
var CharacterNames = []string{
	"player", "merchant", "guard", "elder", "blacksmith", "innkeeper",
	"villager", "dragon", "mayor", "hunter", "priest", "bandit",
}

// RegionNames is the fixed vocabulary of recognizable region names.
// Snapshot regions are matched in addition to these.
var RegionNames = []string{
	"village", "forest", "mountains", "river", "castle", "harbor",
	"plains", "swamp", "capital",
}

// SubjectNouns anchors conflict detection: two descriptions only conflict
// when they share at least one of these subjects.
var SubjectNouns = []string{
	"village", "forest", "dragon", "player", "character", "npc",
	"economy", "trade", "market", "relationship", "environment",
	"weather", "combat", "magic", "resources", "buildings",
}

// #endregion

// #region antonyms

// AntonymPairs are opposing term pairs used for direct-conflict detection
// between two consequence descriptions.
var AntonymPairs = [][2]string{
	{"increase", "decrease"},
	{"improve", "worsen"},
	{"ally", "enemy"},
	{"friendly", "hostile"},
	{"peaceful", "violent"},
	{"open", "close"},
	{"enable", "disable"},
	{"create", "destroy"},
}

// RuleAntonymPairs are opposing term pairs used for world-rule coherence:
// a rule stating one side is contradicted by a description using the other.
var RuleAntonymPairs = [][2]string{
	{"can", "cannot"},
	{"possible", "impossible"},
	{"never", "always"},
	{"forbidden", "allowed"},
}

// ImpossiblePhrases are canonical phrasings rejected outright.
var ImpossiblePhrases = []string{
	"immediately and permanently",
	"instantly and forever",
}

// #endregion

// #region stopwords

// Stopwords are common English words that never count as a subject or
// topic anchor on their own.
var Stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"being": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "not": true,
	"no": true, "and": true, "or": true, "but": true, "if": true,
	"then": true, "than": true, "so": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "into": true,
	"of": true, "on": true, "to": true, "with": true, "about": true,
	"up": true, "out": true, "it": true, "its": true, "this": true,
	"that": true, "these": true, "those": true, "what": true, "which": true,
	"who": true, "how": true, "when": true, "where": true, "why": true,
	"you": true, "me": true, "i": true, "my": true, "your": true,
	"we": true, "they": true, "he": true, "she": true, "her": true,
	"him": true, "his": true, "us": true, "them": true, "their": true,
	"there": true, "here": true, "after": true, "before": true,
	"during": true, "while": true, "across": true, "along": true,
	"over": true, "under": true, "through": true, "between": true,
	"again": true, "once": true, "now": true, "soon": true,
}

// #endregion

// #region tokens

// Tokens splits text into lowercase alphabetic tokens.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// TokenSet returns the unique lowercase tokens of text.
func TokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range Tokens(text) {
		set[t] = true
	}
	return set
}

// Similarity is token-overlap similarity: |intersection| / |union| of the
// whitespace-split lower-cased token sets.
func Similarity(a, b string) float64 {
	setA := TokenSet(a)
	setB := TokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	inter := 0
	for t := range setA {
		if setB[t] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// ContainsAny reports whether the lower-cased text contains any keyword.
func ContainsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MatchNames returns every name from vocab (plus extra) found as a token in
// the description, in order of first appearance, without duplicates.
// Matching is case-insensitive; the canonical spelling is returned, with
// extra taking precedence over vocab.
func MatchNames(description string, vocab, extra []string) []string {
	tokens := Tokens(description)
	canonical := make(map[string]string, len(vocab)+len(extra))
	for _, n := range vocab {
		canonical[strings.ToLower(n)] = n
	}
	for _, n := range extra {
		canonical[strings.ToLower(n)] = n
	}
	seen := make(map[string]bool)
	var out []string
	for _, t := range tokens {
		name, ok := canonical[t]
		if ok && !seen[t] {
			seen[t] = true
			out = append(out, name)
		}
	}
	return out
}

// #endregion
