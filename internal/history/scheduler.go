package history

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/worldstate"
)

// #endregion

// #region scheduler

const casRetries = 3

// Scheduler fires cross-region effect arrivals. Each scheduled record gets
// a one-shot timer; on fire the target region receives an arrival event and
// a gauge nudge, persisted through the gateway with CAS retry.
type Scheduler struct {
	store   *Store
	gateway worldstate.Gateway

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewScheduler creates a scheduler over the given store and gateway.
func NewScheduler(store *Store, gateway worldstate.Gateway) *Scheduler {
	return &Scheduler{
		store:   store,
		gateway: gateway,
		timers:  make(map[string]*time.Timer),
	}
}

// Schedule arms a one-shot timer for the record's arrival time. A record
// already due fires immediately.
func (s *Scheduler) Schedule(rec CrossRegionEffectRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, ok := s.timers[rec.EffectID]; ok {
		return
	}
	delay := time.Until(rec.ArrivalTimestamp)
	if delay < 0 {
		delay = 0
	}
	s.timers[rec.EffectID] = time.AfterFunc(delay, func() {
		s.deliver(rec)
	})
}

// RestorePending re-arms timers for every unapplied record in the store.
// Call once on startup so arrivals survive a process restart.
func (s *Scheduler) RestorePending(ctx context.Context) error {
	pending, err := s.store.PendingCrossRegion(ctx)
	if err != nil {
		return fmt.Errorf("restore pending: %w", err)
	}
	for _, rec := range pending {
		s.Schedule(rec)
	}
	if len(pending) > 0 {
		log.Printf("[HISTORY] restored %d pending cross-region arrivals", len(pending))
	}
	return nil
}

// Stop cancels all armed timers. Records stay pending in the store.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// #endregion

// #region delivery

func (s *Scheduler) deliver(rec CrossRegionEffectRecord) {
	s.mu.Lock()
	delete(s.timers, rec.EffectID)
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.applyArrival(ctx, rec); err != nil {
		log.Printf("[HISTORY] cross-region arrival %s failed: %v", rec.EffectID, err)
		return
	}
	if err := s.store.MarkApplied(ctx, rec.EffectID); err != nil {
		log.Printf("[HISTORY] mark applied %s failed: %v", rec.EffectID, err)
	}
	log.Printf("[HISTORY] effect %s arrived in %s from %s", rec.EffectID, rec.TargetRegion, rec.SourceRegion)
}

// applyArrival mutates the target region and persists, retrying on version
// conflict since live pipeline writes race with timer fires. Delivery is
// idempotent: a snapshot that already carries the arrival event is left
// untouched, so a redelivery after a failed MarkApplied cannot nudge the
// target region twice.
func (s *Scheduler) applyArrival(ctx context.Context, rec CrossRegionEffectRecord) error {
	arrivalID := rec.EffectID + ":arrival"
	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		snap, err := s.gateway.CurrentState(ctx)
		if err != nil {
			return fmt.Errorf("read state: %w", err)
		}
		for _, ev := range snap.Events {
			if ev.ID == arrivalID {
				return nil
			}
		}
		working := snap.Clone()

		working.Events = append(working.Events, worldstate.Event{
			ID:          arrivalID,
			Type:        "cross_region_arrival",
			Description: fmt.Sprintf("effect from %s reaches %s: %s", rec.SourceRegion, rec.TargetRegion, rec.Description),
			Timestamp:   time.Now().UTC(),
		})
		if region := working.Region(rec.TargetRegion); region != nil {
			nudge := rec.Magnitude / 2
			if nudge < 1 {
				nudge = 1
			}
			region.Safety = worldstate.ClampGauge(region.Safety - nudge)
			region.CurrentConditions = appendCondition(region.CurrentConditions, "unsettled by distant events")
		}

		err = s.gateway.UpdateState(ctx, working)
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, worldstate.ErrVersionConflict) {
			return fmt.Errorf("persist arrival: %w", err)
		}
	}
	return fmt.Errorf("persist arrival after %d attempts: %w", casRetries, lastErr)
}

func appendCondition(current, hint string) string {
	if current == "" {
		return hint
	}
	return current + "; " + hint
}

// #endregion
