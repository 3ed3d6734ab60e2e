package history

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/cascade"
)

// #endregion

// #region effect-history

// EffectHistory is the persisted record of one cascade graph, enabling
// later player discovery and cross-region delayed arrival.
type EffectHistory struct {
	ID                  string            `json:"id"`
	OriginalActionID    string            `json:"originalActionId"`
	Timestamp           time.Time         `json:"timestamp"`
	Graph               cascade.Expansion `json:"graph"`
	DiscoveredBy        []string          `json:"discoveredBy,omitempty"`
	AchievementUnlocked bool              `json:"achievementUnlocked"`
	PersistentEffects   []string          `json:"persistentEffects,omitempty"`
}

// #endregion

// #region cross-region

// CrossRegionEffectRecord schedules a delayed effect arrival in a region
// other than its source. The only place in the pipeline where a declared
// delay is genuinely honored.
type CrossRegionEffectRecord struct {
	EffectID         string    `json:"effectId"`
	HistoryID        string    `json:"historyId"`
	SourceRegion     string    `json:"sourceRegion"`
	TargetRegion     string    `json:"targetRegion"`
	ArrivalTimestamp time.Time `json:"arrivalTimestamp"`
	PropagationPath  []string  `json:"propagationPath"`
	Magnitude        int       `json:"magnitude"`
	Description      string    `json:"description"`
}

// #endregion

// #region discovery

// DiscoveryMethod records how a player found an effect.
type DiscoveryMethod string

const (
	DiscoveryObserved DiscoveryMethod = "observed"
	DiscoveryRumor    DiscoveryMethod = "rumor"
	DiscoveryScrying  DiscoveryMethod = "scrying"
)

// achievementThreshold is the distinct-discoverer count that unlocks the
// history record's achievement.
const achievementThreshold = 5

// #endregion

// #region opportunity

// Opportunity points a player at a persistent effect they have not yet
// discovered.
type Opportunity struct {
	HistoryID        string    `json:"historyId"`
	OriginalActionID string    `json:"originalActionId"`
	EffectID         string    `json:"effectId"`
	Hint             string    `json:"hint"`
	CreatedAt        time.Time `json:"createdAt"`
}

// #endregion

// #region filters

// Filter narrows GetEffectHistory reads.
type Filter struct {
	ActionID string
	Limit    int
	Offset   int
}

// OpportunityQuery narrows GetEmergentOpportunities reads.
type OpportunityQuery struct {
	PlayerID string
	Limit    int
	Offset   int
}

// #endregion

// #region persist-options

// PersistOptions configures one persistButterflyEffect call.
type PersistOptions struct {
	// SourceRegion anchors cross-region detection; effects whose affected
	// locations differ are scheduled for delayed arrival.
	SourceRegion string

	// TravelTime computes region-to-region travel time. Nil = 30s flat.
	TravelTime func(source, target string) time.Duration
}

// #endregion
