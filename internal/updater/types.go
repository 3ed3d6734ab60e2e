package updater

// #region imports
import (
	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
	"github.com/danielpatrickdp/living-world/go-engine/internal/worldstate"
)

// #endregion

// #region metadata

// Metadata captures telemetry from one application run.
type Metadata struct {
	ElapsedMs        int64
	PersistedVersion int64 // 0 when persistence failed
	MutationCount    int
}

// #endregion

// #region result

// Result bundles everything returned by ApplyConsequences. Success is
// false only when persisting the updated snapshot failed; individual
// consequence failures are reported in FailedConsequences without
// aborting the batch.
type Result struct {
	Success              bool
	UpdatedWorldState    worldstate.Snapshot
	AppliedConsequences  []consequence.Consequence
	FailedConsequences   []consequence.Consequence
	Conflicts            []consequence.Conflict
	AuditTrail           []consequence.AuditEntry
	Metadata             Metadata
}

// #endregion
