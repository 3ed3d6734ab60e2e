package consequence

// #region imports
import (
	"time"
)

// #endregion

// #region consequence-type

// Type classifies the system a consequence primarily affects.
type Type string

const (
	TypeRelationship Type = "relationship"
	TypeEnvironment  Type = "environment"
	TypeCharacter    Type = "character"
	TypeWorldState   Type = "world_state"
	TypeEconomic     Type = "economic"
	TypeCombat       Type = "combat"
	TypeExploration  Type = "exploration"
)

// AllTypes lists every recognized consequence type.
var AllTypes = []Type{
	TypeRelationship, TypeEnvironment, TypeCharacter,
	TypeWorldState, TypeEconomic, TypeCombat, TypeExploration,
}

// Known reports whether t is a recognized type.
func (t Type) Known() bool {
	for _, k := range AllTypes {
		if t == k {
			return true
		}
	}
	return false
}

// #endregion

// #region impact-level

// Level buckets the severity of an impact.
type Level string

const (
	LevelMinor       Level = "minor"
	LevelModerate    Level = "moderate"
	LevelMajor       Level = "major"
	LevelSignificant Level = "significant"
	LevelCritical    Level = "critical"
)

// Known reports whether l is a recognized level.
func (l Level) Known() bool {
	switch l {
	case LevelMinor, LevelModerate, LevelMajor, LevelSignificant, LevelCritical:
		return true
	}
	return false
}

// MagnitudeBucket returns the inclusive magnitude range conventionally
// associated with a level. Magnitudes outside the bucket are a warning,
// not a hard error.
func (l Level) MagnitudeBucket() (lo, hi int) {
	switch l {
	case LevelMinor:
		return 1, 3
	case LevelModerate:
		return 4, 6
	case LevelMajor:
		return 7, 8
	case LevelSignificant:
		return 9, 9
	case LevelCritical:
		return 10, 10
	}
	return 1, 10
}

// LevelForMagnitude maps a magnitude back to its conventional level.
func LevelForMagnitude(magnitude int) Level {
	switch {
	case magnitude <= 3:
		return LevelMinor
	case magnitude <= 6:
		return LevelModerate
	case magnitude <= 8:
		return LevelMajor
	case magnitude == 9:
		return LevelSignificant
	default:
		return LevelCritical
	}
}

// #endregion

// #region duration

// EffectDuration classifies how long an impact persists.
type EffectDuration string

const (
	DurationTemporary  EffectDuration = "temporary"
	DurationShortTerm  EffectDuration = "short_term"
	DurationMediumTerm EffectDuration = "medium_term"
	DurationLongTerm   EffectDuration = "long_term"
	DurationPermanent  EffectDuration = "permanent"
)

// Known reports whether d is a recognized duration class.
func (d EffectDuration) Known() bool {
	switch d {
	case DurationTemporary, DurationShortTerm, DurationMediumTerm, DurationLongTerm, DurationPermanent:
		return true
	}
	return false
}

// #endregion

// #region impact

// Impact measures what a consequence touches and how hard.
type Impact struct {
	Level              Level          `json:"level"`
	AffectedSystems    []string       `json:"affectedSystems"`
	Magnitude          int            `json:"magnitude"` // 1-10
	Duration           EffectDuration `json:"duration"`
	AffectedCharacters []string       `json:"affectedCharacters,omitempty"`
	AffectedLocations  []string       `json:"affectedLocations,omitempty"`
}

// #endregion

// #region cascading-effect

// CascadingEffect is a probabilistic secondary effect declared inside a
// consequence. Delay is declared but only honored by the cross-region
// arrival scheduler; in-batch application is immediate.
type CascadingEffect struct {
	ID                  string        `json:"id"`
	ParentConsequenceID string        `json:"parentConsequenceId"`
	Description         string        `json:"description"`
	Delay               time.Duration `json:"delay"`
	Probability         float64       `json:"probability"` // 0-1
	Impact              Impact        `json:"impact"`
}

// #endregion

// #region consequence

// Consequence is a typed, measured effect derived from free text,
// awaiting validation and application.
type Consequence struct {
	ID               string            `json:"id"`
	ActionID         string            `json:"actionId"`
	Type             Type              `json:"type"`
	Description      string            `json:"description"`
	Impact           Impact            `json:"impact"`
	CascadingEffects []CascadingEffect `json:"cascadingEffects,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
	Confidence       float64           `json:"confidence"` // 0-1
}

// PriorityScore orders consequences for truncation and application.
// Higher scores apply first.
func (c Consequence) PriorityScore() float64 {
	return float64(c.Impact.Magnitude)*c.Confidence + 2.0*float64(len(c.CascadingEffects))
}

// #endregion

// #region world-rule

// WorldRule is a declarative constraint supplied by the gateway.
// Read-only input; never mutated by the pipeline.
type WorldRule struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Constraints []string `json:"constraints,omitempty"`
	Exceptions  []string `json:"exceptions,omitempty"`
}

// #endregion

// #region conflict

// ConflictType categorizes a detected conflict between consequences.
type ConflictType string

const (
	ConflictState        ConflictType = "state_conflict"
	ConflictRelationship ConflictType = "relationship_conflict"
	ConflictResource     ConflictType = "resource_conflict"
)

// Severity grades a conflict.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ResolutionStrategy names how a conflict was (or should be) resolved.
type ResolutionStrategy string

const (
	ResolveRemoveOne  ResolutionStrategy = "remove_one"
	ResolvePrioritize ResolutionStrategy = "prioritize"
	ResolveMerge      ResolutionStrategy = "merge"
	ResolveModify     ResolutionStrategy = "modify"
	ResolveOverwrite  ResolutionStrategy = "overwrite"
	ResolveEscalate   ResolutionStrategy = "escalate"
	ResolveReject     ResolutionStrategy = "reject"
)

// Resolution records how a conflict was handled.
type Resolution struct {
	Strategy      ResolutionStrategy `json:"strategy"`
	ResolvedValue string             `json:"resolvedValue,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}

// Conflict is a detected relationship between two consequences that
// requires resolution before application.
type Conflict struct {
	Type          ConflictType `json:"type"`
	ConsequenceID string       `json:"consequenceId"`
	Description   string       `json:"description"`
	Severity      Severity     `json:"severity"`
	Resolution    *Resolution  `json:"resolution,omitempty"`
}

// #endregion

// #region audit-entry

// AuditAction classifies an audit-trail entry.
type AuditAction string

const (
	AuditApplied  AuditAction = "applied"
	AuditConflict AuditAction = "conflict"
	AuditFailed   AuditAction = "failed"
)

// AuditEntry records one state mutation attributable to one consequence.
// Append-only.
type AuditEntry struct {
	Timestamp     time.Time   `json:"timestamp"`
	ConsequenceID string      `json:"consequenceId"`
	Action        AuditAction `json:"action"`
	System        string      `json:"system"`
	Change        string      `json:"change"`
	PreviousValue string      `json:"previousValue,omitempty"`
	NewValue      string      `json:"newValue,omitempty"`
}

// #endregion

// #region validation-result

// ValidationResult aggregates every per-item check for one consequence.
// IsValid iff zero errors across all checks; warnings never block.
type ValidationResult struct {
	ConsequenceID string   `json:"consequenceId"`
	IsValid       bool     `json:"isValid"`
	Errors        []string `json:"errors,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// #endregion
