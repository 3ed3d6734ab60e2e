package worldstate

// #region imports
import (
	"context"
	"errors"
	"sync"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
)

// #endregion

// #region errors

// ErrVersionConflict is returned when a persist carries a stale snapshot
// version. The caller must re-read and re-apply.
var ErrVersionConflict = errors.New("worldstate: snapshot version conflict")

// #endregion

// #region gateway

// Gateway is the world-rule/state boundary. The pipeline reads rules and
// the current snapshot through it and persists updated snapshots back.
// UpdateState must reject a snapshot whose Version is not the active
// version, so a delayed cross-region arrival cannot silently overwrite a
// newer foreground update.
type Gateway interface {
	WorldRules(ctx context.Context) ([]consequence.WorldRule, error)
	CurrentState(ctx context.Context) (Snapshot, error)
	UpdateState(ctx context.Context, snap Snapshot) error
}

// #endregion

// #region memory-gateway

// MemoryGateway is an in-process Gateway used by tests and the replay
// harness. Safe for concurrent use.
type MemoryGateway struct {
	mu    sync.Mutex
	rules []consequence.WorldRule
	snap  Snapshot

	// UpdateErr, when set, is returned by the next UpdateState call.
	UpdateErr error
}

// NewMemoryGateway seeds a gateway with rules and an initial snapshot.
func NewMemoryGateway(rules []consequence.WorldRule, snap Snapshot) *MemoryGateway {
	if snap.Version == 0 {
		snap.Version = 1
	}
	return &MemoryGateway{rules: rules, snap: snap}
}

// WorldRules returns the configured rule set.
func (g *MemoryGateway) WorldRules(ctx context.Context) ([]consequence.WorldRule, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]consequence.WorldRule(nil), g.rules...), nil
}

// CurrentState returns a deep copy of the active snapshot.
func (g *MemoryGateway) CurrentState(ctx context.Context) (Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap.Clone(), nil
}

// UpdateState installs snap as the active snapshot if its version matches.
func (g *MemoryGateway) UpdateState(ctx context.Context, snap Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.UpdateErr != nil {
		err := g.UpdateErr
		g.UpdateErr = nil
		return err
	}
	if snap.Version != g.snap.Version {
		return ErrVersionConflict
	}
	snap.Version++
	g.snap = snap.Clone()
	return nil
}

// #endregion
