package updater

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
	"github.com/danielpatrickdp/living-world/go-engine/internal/worldstate"
)

func makeConsequence(id, desc string, typ consequence.Type, magnitude int, confidence float64) consequence.Consequence {
	return consequence.Consequence{
		ID:          id,
		ActionID:    "action-1",
		Type:        typ,
		Description: desc,
		Impact: consequence.Impact{
			Level:           consequence.LevelForMagnitude(magnitude),
			Magnitude:       magnitude,
			Duration:        consequence.DurationMediumTerm,
			AffectedSystems: []string{string(typ)},
		},
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Confidence: confidence,
	}
}

func testGateway() *worldstate.MemoryGateway {
	return worldstate.NewMemoryGateway(worldstate.DefaultRules(), worldstate.DefaultSnapshot())
}

func TestApplyEconomicRaisesProsperity(t *testing.T) {
	g := testGateway()
	ctx := context.Background()
	before, _ := g.CurrentState(ctx)
	startProsperity := before.Region("village").Prosperity

	c := makeConsequence("c1", "Trade flourishes and the village prosperity increases", consequence.TypeEconomic, 5, 0.9)
	result := New(g).ApplyConsequences(ctx, []consequence.Consequence{c}, nil)

	if !result.Success {
		t.Fatalf("apply failed: %+v", result.Conflicts)
	}
	after := result.UpdatedWorldState
	if got := after.Region("village").Prosperity; got <= startProsperity {
		t.Fatalf("prosperity = %d, want above %d", got, startProsperity)
	}
	if len(result.AppliedConsequences) != 1 || len(result.FailedConsequences) != 0 {
		t.Fatalf("applied=%d failed=%d, want 1/0", len(result.AppliedConsequences), len(result.FailedConsequences))
	}

	persisted, _ := g.CurrentState(ctx)
	if persisted.Region("village").Prosperity != after.Region("village").Prosperity {
		t.Fatal("persisted snapshot does not match returned snapshot")
	}
}

func TestApplyNegativeDescriptionLowersGauges(t *testing.T) {
	g := testGateway()
	ctx := context.Background()
	before, _ := g.CurrentState(ctx)
	startSafety := before.Region("forest").Safety

	c := makeConsequence("c1", "The fire destroyed much of the forest undergrowth", consequence.TypeEnvironment, 6, 0.9)
	result := New(g).ApplyConsequences(ctx, []consequence.Consequence{c}, nil)

	after := result.UpdatedWorldState
	if got := after.Region("forest").Safety; got >= startSafety {
		t.Fatalf("safety = %d, want below %d", got, startSafety)
	}
}

func TestApplyRelationshipBothDirections(t *testing.T) {
	g := testGateway()
	ctx := context.Background()

	c := makeConsequence("c1", "The merchant becomes a loyal ally of the player", consequence.TypeRelationship, 5, 0.8)
	result := New(g).ApplyConsequences(ctx, []consequence.Consequence{c}, nil)

	after := result.UpdatedWorldState
	forward := after.Character("merchant").Relationship("player").Strength
	backward := after.Character("player").Relationship("merchant").Strength
	if forward <= 0 || backward <= 0 {
		t.Fatalf("ally shift should raise both edges, got %f / %f", forward, backward)
	}
	if forward != backward {
		t.Fatalf("edges should shift symmetrically, got %f / %f", forward, backward)
	}
	if len(result.AuditTrail) != 2 {
		t.Fatalf("expected one audit entry per directed edge, got %d", len(result.AuditTrail))
	}
}

func TestApplyEnemyLowersRelationship(t *testing.T) {
	g := testGateway()
	ctx := context.Background()

	c := makeConsequence("c1", "The guard now treats the player as a sworn enemy", consequence.TypeRelationship, 5, 0.8)
	result := New(g).ApplyConsequences(ctx, []consequence.Consequence{c}, nil)

	after := result.UpdatedWorldState
	if got := after.Character("guard").Relationship("player").Strength; got >= 0 {
		t.Fatalf("enemy shift should lower strength, got %f", got)
	}
}

func TestApplyUnknownTypeFails(t *testing.T) {
	g := testGateway()
	ctx := context.Background()

	bad := makeConsequence("bad", "An unclassifiable ripple passes through reality", "mystery", 5, 0.8)
	good := makeConsequence("good", "The village market prices rise after the caravan arrives", consequence.TypeEconomic, 5, 0.8)

	result := New(g).ApplyConsequences(ctx, []consequence.Consequence{bad, good}, nil)
	if !result.Success {
		t.Fatal("a failing consequence must not abort the batch")
	}
	if len(result.FailedConsequences) != 1 || result.FailedConsequences[0].ID != "bad" {
		t.Fatalf("expected 'bad' to fail, got %+v", result.FailedConsequences)
	}
	if len(result.AppliedConsequences) != 1 || result.AppliedConsequences[0].ID != "good" {
		t.Fatalf("expected 'good' applied, got %+v", result.AppliedConsequences)
	}
	if len(result.AppliedConsequences)+len(result.FailedConsequences) != 2 {
		t.Fatal("applied plus failed must equal batch size")
	}

	failedEntry := false
	for _, e := range result.AuditTrail {
		if e.ConsequenceID == "bad" && e.Action == consequence.AuditFailed {
			failedEntry = true
		}
	}
	if !failedEntry {
		t.Fatal("failed consequence should leave a failed audit entry")
	}
}

func TestApplyPriorityOrder(t *testing.T) {
	g := testGateway()
	ctx := context.Background()

	low := makeConsequence("low", "The village market prices rise after the caravan arrives", consequence.TypeEconomic, 2, 0.5)
	high := makeConsequence("high", "The village market prices rise after the caravan arrives", consequence.TypeEconomic, 9, 0.9)

	result := New(g).ApplyConsequences(ctx, []consequence.Consequence{low, high}, nil)
	if result.AppliedConsequences[0].ID != "high" {
		t.Fatalf("expected high-priority consequence first, got %s", result.AppliedConsequences[0].ID)
	}
}

func TestApplyCascadingEffectsImmediately(t *testing.T) {
	g := testGateway()
	ctx := context.Background()

	c := makeConsequence("c1", "A change sweeps through the realm after the battle", consequence.TypeWorldState, 5, 0.8)
	c.CascadingEffects = []consequence.CascadingEffect{{
		ID:                  "eff-1",
		ParentConsequenceID: "c1",
		Description:         "refugees arrive in the village seeking shelter",
		Delay:               time.Hour,
		Probability:         0.9,
		Impact: consequence.Impact{
			Level:           consequence.LevelMinor,
			Magnitude:       3,
			AffectedSystems: []string{"world_state"},
		},
	}}

	result := New(g).ApplyConsequences(ctx, []consequence.Consequence{c}, nil)
	found := false
	for _, ev := range result.UpdatedWorldState.Events {
		if ev.ID == "eff-1:world_state" {
			found = true
		}
	}
	if !found {
		t.Fatal("cascading effect should be applied in the same pass despite its delay")
	}
}

func TestApplyPersistFailure(t *testing.T) {
	g := testGateway()
	g.UpdateErr = errors.New("disk on fire")
	ctx := context.Background()

	c := makeConsequence("c1", "The village market prices rise after the caravan arrives", consequence.TypeEconomic, 5, 0.8)
	result := New(g).ApplyConsequences(ctx, []consequence.Consequence{c}, nil)

	if result.Success {
		t.Fatal("persist failure must flip Success")
	}
	if result.Metadata.PersistedVersion != 0 {
		t.Fatalf("persisted version = %d, want 0", result.Metadata.PersistedVersion)
	}
	critical := false
	for _, conflict := range result.Conflicts {
		if conflict.Severity == consequence.SeverityCritical && conflict.Resolution != nil &&
			conflict.Resolution.Strategy == consequence.ResolveEscalate {
			critical = true
		}
	}
	if !critical {
		t.Fatal("persist failure should surface a critical escalate conflict")
	}
}

func TestApplyDeterministic(t *testing.T) {
	batch := []consequence.Consequence{
		makeConsequence("c1", "Trade flourishes and the village prosperity increases", consequence.TypeEconomic, 5, 0.9),
		makeConsequence("c2", "The merchant becomes a loyal ally of the player", consequence.TypeRelationship, 4, 0.8),
		makeConsequence("c3", "A storm rolls over the mountains tonight", consequence.TypeEnvironment, 3, 0.7),
	}

	base := worldstate.DefaultSnapshot()
	run := func() worldstate.Snapshot {
		g := worldstate.NewMemoryGateway(worldstate.DefaultRules(), base.Clone())
		result := New(g).ApplyConsequences(context.Background(), batch, nil)
		if !result.Success {
			t.Fatalf("apply failed: %+v", result.Conflicts)
		}
		return result.UpdatedWorldState
	}

	first, _ := json.Marshal(run())
	second, _ := json.Marshal(run())
	if string(first) != string(second) {
		t.Fatal("re-applying the same batch to the same snapshot must produce identical state")
	}
}

func TestApplyAuditCountsMatchMutations(t *testing.T) {
	g := testGateway()
	ctx := context.Background()

	batch := []consequence.Consequence{
		makeConsequence("c1", "Trade flourishes and the village prosperity increases", consequence.TypeEconomic, 5, 0.9),
		makeConsequence("c2", "A great event reshapes the kingdom overnight", consequence.TypeWorldState, 6, 0.8),
	}
	result := New(g).ApplyConsequences(ctx, batch, nil)

	if result.Metadata.MutationCount != len(result.AuditTrail) {
		t.Fatalf("mutation count %d != audit entries %d", result.Metadata.MutationCount, len(result.AuditTrail))
	}
	if len(result.AuditTrail) == 0 {
		t.Fatal("expected at least one audit entry per applied consequence")
	}
	for _, e := range result.AuditTrail {
		if e.ConsequenceID == "" || e.System == "" {
			t.Fatalf("audit entry missing provenance: %+v", e)
		}
	}
}

func TestApplyExplicitSnapshotNotPersistedVersion(t *testing.T) {
	g := testGateway()
	ctx := context.Background()
	snap, _ := g.CurrentState(ctx)

	c := makeConsequence("c1", "The village market prices rise after the caravan arrives", consequence.TypeEconomic, 5, 0.8)
	result := New(g).ApplyConsequences(ctx, []consequence.Consequence{c}, &snap)
	if !result.Success {
		t.Fatalf("apply failed: %+v", result.Conflicts)
	}
	if result.Metadata.PersistedVersion != snap.Version+1 {
		t.Fatalf("persisted version = %d, want %d", result.Metadata.PersistedVersion, snap.Version+1)
	}
}
