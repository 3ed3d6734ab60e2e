package updater

// #region imports
import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/audit"
	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
	"github.com/danielpatrickdp/living-world/go-engine/internal/worldstate"
)

// #endregion

// #region updater-struct

// Updater applies priority-ordered batches of valid consequences to a
// working copy of the world snapshot and persists the result through the
// gateway. Single-threaded by design: ordering decides which consequence
// wins and what the audit trail records.
type Updater struct {
	gateway  worldstate.Gateway
	auditLog *audit.Log // nil = audit trail returned but not persisted
}

// New creates an updater over the given gateway.
func New(gateway worldstate.Gateway) *Updater {
	return &Updater{gateway: gateway}
}

// WithAuditLog attaches persistent audit-trail storage.
func (u *Updater) WithAuditLog(l *audit.Log) *Updater {
	u.auditLog = l
	return u
}

// #endregion

// #region apply

// ApplyConsequences applies the batch to a deep copy of snap (or of the
// gateway's current snapshot when snap is nil), in priority order, with
// one audit entry per mutation. A failing consequence is recorded and the
// loop continues; there is no rollback of earlier items. Only a
// persistence failure flips Success.
func (u *Updater) ApplyConsequences(ctx context.Context, batch []consequence.Consequence, snap *worldstate.Snapshot) Result {
	start := time.Now()
	result := Result{Success: true}

	var base worldstate.Snapshot
	if snap != nil {
		base = *snap
	} else {
		current, err := u.gateway.CurrentState(ctx)
		if err != nil {
			result.Success = false
			result.Conflicts = append(result.Conflicts, consequence.Conflict{
				Type:        consequence.ConflictState,
				Description: fmt.Sprintf("failed to read current state: %v", err),
				Severity:    consequence.SeverityCritical,
			})
			return result
		}
		base = current
	}
	working := base.Clone()

	ordered := append([]consequence.Consequence(nil), batch...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PriorityScore() > ordered[j].PriorityScore()
	})

	for _, c := range ordered {
		entries, err := applyOne(&working, c)
		if err != nil {
			result.FailedConsequences = append(result.FailedConsequences, c)
			result.AuditTrail = append(result.AuditTrail, consequence.AuditEntry{
				Timestamp:     c.Timestamp,
				ConsequenceID: c.ID,
				Action:        consequence.AuditFailed,
				System:        string(c.Type),
				Change:        fmt.Sprintf("application failed: %v", err),
			})
			continue
		}
		result.AuditTrail = append(result.AuditTrail, entries...)

		// A consequence's own cascading effects are applied immediately in
		// the same pass via the generic mutator. Their declared delay is
		// not honored here; only cross-region arrival records defer.
		for _, eff := range c.CascadingEffects {
			cascadeEntries := applyGeneric(&working, eff.ID, eff.Description, eff.Impact, c.Timestamp)
			result.AuditTrail = append(result.AuditTrail, cascadeEntries...)
		}

		result.AppliedConsequences = append(result.AppliedConsequences, c)
	}
	result.Metadata.MutationCount = len(result.AuditTrail)

	// Advisory pass: annotate any surfaced conflicts with a strategy
	// without re-touching the already-mutated state.
	result.Conflicts = annotateResolutions(result.Conflicts)

	if err := u.gateway.UpdateState(ctx, working); err != nil {
		result.Success = false
		result.Conflicts = append(result.Conflicts, consequence.Conflict{
			Type:        consequence.ConflictState,
			Description: fmt.Sprintf("failed to persist world state: %v", err),
			Severity:    consequence.SeverityCritical,
			Resolution: &consequence.Resolution{
				Strategy: consequence.ResolveEscalate,
				Notes:    "persistence failed; caller must re-read and retry",
			},
		})
		result.AuditTrail = append(result.AuditTrail, consequence.AuditEntry{
			Timestamp: time.Now().UTC(),
			Action:    consequence.AuditConflict,
			System:    "world_state",
			Change:    "snapshot persist rejected",
		})
	} else {
		working.Version++
		result.Metadata.PersistedVersion = working.Version
	}
	result.UpdatedWorldState = working

	if u.auditLog != nil {
		if err := u.auditLog.Append(ctx, result.AuditTrail); err != nil {
			log.Printf("[APPLY] audit persist failed: %v", err)
		}
	}

	result.Metadata.ElapsedMs = time.Since(start).Milliseconds()
	log.Printf("[APPLY] applied=%d failed=%d mutations=%d success=%v",
		len(result.AppliedConsequences), len(result.FailedConsequences),
		result.Metadata.MutationCount, result.Success)
	return result
}

// #endregion

// #region annotate-resolutions

// annotateResolutions attaches an advisory strategy to conflicts that
// reached the updater unresolved. Advisory metadata only; state is never
// re-mutated here.
func annotateResolutions(conflicts []consequence.Conflict) []consequence.Conflict {
	for i := range conflicts {
		if conflicts[i].Resolution != nil {
			continue
		}
		var strategy consequence.ResolutionStrategy
		switch conflicts[i].Severity {
		case consequence.SeverityCritical:
			strategy = consequence.ResolveEscalate
		case consequence.SeverityHigh:
			strategy = consequence.ResolveOverwrite
		case consequence.SeverityMedium:
			strategy = consequence.ResolveMerge
		default:
			strategy = consequence.ResolveReject
		}
		conflicts[i].Resolution = &consequence.Resolution{
			Strategy: strategy,
			Notes:    "advisory only; state already applied",
		}
	}
	return conflicts
}

// #endregion
