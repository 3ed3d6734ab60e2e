package history

import (
	"context"
	"testing"
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/worldstate"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSchedulerDeliversArrival(t *testing.T) {
	s := tempHistory(t)
	gateway := worldstate.NewMemoryGateway(worldstate.DefaultRules(), worldstate.DefaultSnapshot())
	sched := NewScheduler(s, gateway)
	defer sched.Stop()

	ctx := context.Background()
	_, crossRegion, err := s.PersistButterflyEffect(ctx, "action-1", testGraph(), PersistOptions{
		SourceRegion: "village",
		TravelTime:   func(string, string) time.Duration { return 20 * time.Millisecond },
	})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if len(crossRegion) != 1 {
		t.Fatalf("want one cross-region record, got %d", len(crossRegion))
	}

	before, _ := gateway.CurrentState(ctx)
	startSafety := before.Region("harbor").Safety

	sched.Schedule(crossRegion[0])

	waitFor(t, 2*time.Second, func() bool {
		pending, err := s.PendingCrossRegion(ctx)
		return err == nil && len(pending) == 0
	})

	after, _ := gateway.CurrentState(ctx)
	if after.Region("harbor").Safety >= startSafety {
		t.Fatalf("arrival should nudge harbor safety below %d, got %d", startSafety, after.Region("harbor").Safety)
	}
	found := false
	for _, ev := range after.Events {
		if ev.Type == "cross_region_arrival" {
			found = true
		}
	}
	if !found {
		t.Fatal("arrival should append a cross_region_arrival event")
	}
	if after.Version <= before.Version {
		t.Fatal("arrival should persist a new snapshot version")
	}
}

func TestArrivalDeliveryIdempotent(t *testing.T) {
	s := tempHistory(t)
	gateway := worldstate.NewMemoryGateway(worldstate.DefaultRules(), worldstate.DefaultSnapshot())
	sched := NewScheduler(s, gateway)
	defer sched.Stop()

	ctx := context.Background()
	_, crossRegion, err := s.PersistButterflyEffect(ctx, "action-1", testGraph(), PersistOptions{
		SourceRegion: "village",
		TravelTime:   func(string, string) time.Duration { return 0 },
	})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	rec := crossRegion[0]

	if err := sched.applyArrival(ctx, rec); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	once, _ := gateway.CurrentState(ctx)

	// Redelivery happens when the applied flag was not persisted; it must
	// leave the world untouched.
	if err := sched.applyArrival(ctx, rec); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	twice, _ := gateway.CurrentState(ctx)
	if twice.Version != once.Version {
		t.Fatalf("redelivery persisted version %d over %d", twice.Version, once.Version)
	}
	if twice.Region("harbor").Safety != once.Region("harbor").Safety {
		t.Fatal("redelivery nudged the target region again")
	}
	arrivals := 0
	for _, ev := range twice.Events {
		if ev.Type == "cross_region_arrival" {
			arrivals++
		}
	}
	if arrivals != 1 {
		t.Fatalf("arrival events = %d, want 1", arrivals)
	}
}

func TestSchedulerStopCancelsTimers(t *testing.T) {
	s := tempHistory(t)
	gateway := worldstate.NewMemoryGateway(worldstate.DefaultRules(), worldstate.DefaultSnapshot())
	sched := NewScheduler(s, gateway)

	ctx := context.Background()
	_, crossRegion, err := s.PersistButterflyEffect(ctx, "action-1", testGraph(), PersistOptions{
		SourceRegion: "village",
		TravelTime:   func(string, string) time.Duration { return time.Hour },
	})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	sched.Schedule(crossRegion[0])
	sched.Stop()

	pending, err := s.PendingCrossRegion(ctx)
	if err != nil {
		t.Fatalf("PendingCrossRegion: %v", err)
	}
	if len(pending) != 1 {
		t.Fatal("stopped scheduler should leave the record pending")
	}
}

func TestRestorePendingFiresDueArrivals(t *testing.T) {
	s := tempHistory(t)
	gateway := worldstate.NewMemoryGateway(worldstate.DefaultRules(), worldstate.DefaultSnapshot())

	ctx := context.Background()
	_, crossRegion, err := s.PersistButterflyEffect(ctx, "action-1", testGraph(), PersistOptions{
		SourceRegion: "village",
		TravelTime:   func(string, string) time.Duration { return 0 },
	})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if len(crossRegion) != 1 {
		t.Fatalf("want one cross-region record, got %d", len(crossRegion))
	}

	// A fresh scheduler, as after a restart, picks the record up from the store.
	sched := NewScheduler(s, gateway)
	defer sched.Stop()
	if err := sched.RestorePending(ctx); err != nil {
		t.Fatalf("RestorePending: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		pending, err := s.PendingCrossRegion(ctx)
		return err == nil && len(pending) == 0
	})
}
