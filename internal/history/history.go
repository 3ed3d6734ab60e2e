package history

// #region imports
import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/living-world/go-engine/internal/cascade"
	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
)

// #endregion

// #region schema

const historySchema = `
CREATE TABLE IF NOT EXISTS effect_history (
	id               TEXT PRIMARY KEY,
	action_id        TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	graph_json       TEXT NOT NULL,
	achievement      INTEGER NOT NULL DEFAULT 0,
	persistent_json  TEXT
);

CREATE INDEX IF NOT EXISTS idx_history_action ON effect_history(action_id);

CREATE TABLE IF NOT EXISTS effect_discoveries (
	history_id     TEXT NOT NULL,
	player_id      TEXT NOT NULL,
	method         TEXT NOT NULL,
	discovered_at  TEXT NOT NULL,
	UNIQUE(history_id, player_id)
);

CREATE TABLE IF NOT EXISTS cross_region_effects (
	effect_id      TEXT PRIMARY KEY,
	history_id     TEXT NOT NULL,
	source_region  TEXT NOT NULL,
	target_region  TEXT NOT NULL,
	arrival_at     TEXT NOT NULL,
	path_json      TEXT NOT NULL,
	magnitude      INTEGER NOT NULL,
	description    TEXT NOT NULL,
	applied        INTEGER NOT NULL DEFAULT 0
);
`

// #endregion

// #region store

// Store persists effect-history records, discovery bookkeeping, and
// pending cross-region arrivals.
type Store struct {
	db       *sql.DB
	postgres bool
}

// NewStore initializes the history tables over an existing handle.
func NewStore(db *sql.DB, postgres bool) (*Store, error) {
	if !postgres {
		// Timer-driven writes race with foreground pipeline writes on
		// the shared SQLite file; wait instead of failing with SQLITE_BUSY.
		if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
			return nil, fmt.Errorf("history pragma: %w", err)
		}
	}
	if _, err := db.Exec(historySchema); err != nil {
		return nil, fmt.Errorf("history schema: %w", err)
	}
	return &Store{db: db, postgres: postgres}, nil
}

func (s *Store) bind(pos int) string {
	if s.postgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

// #endregion

// #region persist

// PersistButterflyEffect stores the full cascade graph as an EffectHistory
// record, derives its persistent effects (permanent duration or magnitude
// ≥8), and builds one CrossRegionEffectRecord per effect whose target
// region differs from the source. Scheduling the returned records is the
// caller's responsibility.
func (s *Store) PersistButterflyEffect(ctx context.Context, actionID string, graph cascade.Expansion, opts PersistOptions) (EffectHistory, []CrossRegionEffectRecord, error) {
	rec := EffectHistory{
		ID:                uuid.New().String(),
		OriginalActionID:  actionID,
		Timestamp:         time.Now().UTC(),
		Graph:             graph,
		PersistentEffects: derivePersistent(graph),
	}

	graphJSON, err := json.Marshal(graph)
	if err != nil {
		return EffectHistory{}, nil, fmt.Errorf("marshal graph: %w", err)
	}
	persistentJSON, _ := json.Marshal(rec.PersistentEffects)

	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO effect_history (id, action_id, created_at, graph_json, achievement, persistent_json)
		 VALUES (%s, %s, %s, %s, 0, %s)`,
			s.bind(1), s.bind(2), s.bind(3), s.bind(4), s.bind(5)),
		rec.ID, actionID, rec.Timestamp.Format(time.RFC3339Nano), string(graphJSON), string(persistentJSON),
	)
	if err != nil {
		return EffectHistory{}, nil, fmt.Errorf("insert history: %w", err)
	}

	records := buildCrossRegion(rec, opts)
	for _, cr := range records {
		pathJSON, _ := json.Marshal(cr.PropagationPath)
		_, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO cross_region_effects
			 (effect_id, history_id, source_region, target_region, arrival_at, path_json, magnitude, description, applied)
			 VALUES (%s, %s, %s, %s, %s, %s, %s, %s, 0)`,
				s.bind(1), s.bind(2), s.bind(3), s.bind(4), s.bind(5), s.bind(6), s.bind(7), s.bind(8)),
			cr.EffectID, cr.HistoryID, cr.SourceRegion, cr.TargetRegion,
			cr.ArrivalTimestamp.Format(time.RFC3339Nano), string(pathJSON), cr.Magnitude, cr.Description,
		)
		if err != nil {
			return EffectHistory{}, nil, fmt.Errorf("insert cross-region effect %s: %w", cr.EffectID, err)
		}
	}

	log.Printf("[HISTORY] persisted butterfly effect %s: %d effects, %d persistent, %d cross-region",
		rec.ID, graph.TotalEffects, len(rec.PersistentEffects), len(records))
	return rec, records, nil
}

// derivePersistent returns the IDs of nodes whose duration is permanent or
// whose magnitude is 8 or more.
func derivePersistent(graph cascade.Expansion) []string {
	var out []string
	for _, node := range graph.CascadingEffects {
		if node.Effect.Impact.Duration == consequence.DurationPermanent || node.Effect.Impact.Magnitude >= 8 {
			out = append(out, node.Effect.ID)
		}
	}
	return out
}

const defaultTravelTime = 30 * time.Second

func buildCrossRegion(rec EffectHistory, opts PersistOptions) []CrossRegionEffectRecord {
	if opts.SourceRegion == "" {
		return nil
	}
	travel := opts.TravelTime
	if travel == nil {
		travel = func(string, string) time.Duration { return defaultTravelTime }
	}

	var out []CrossRegionEffectRecord
	for _, node := range rec.Graph.CascadingEffects {
		for _, loc := range node.Effect.Impact.AffectedLocations {
			if loc == opts.SourceRegion {
				continue
			}
			out = append(out, CrossRegionEffectRecord{
				EffectID:         node.Effect.ID,
				HistoryID:        rec.ID,
				SourceRegion:     opts.SourceRegion,
				TargetRegion:     loc,
				ArrivalTimestamp: time.Now().UTC().Add(travel(opts.SourceRegion, loc)),
				PropagationPath:  []string{opts.SourceRegion, loc},
				Magnitude:        node.Effect.Impact.Magnitude,
				Description:      node.Effect.Description,
			})
		}
	}
	return out
}

// #endregion

// #region discovery

// RecordEffectDiscovery records that a player discovered a history record.
// Idempotent per (player, history) pair; once five distinct players have
// discovered the same record its achievement unlocks.
func (s *Store) RecordEffectDiscovery(ctx context.Context, playerID, historyID string, method DiscoveryMethod) (EffectHistory, error) {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO effect_discoveries (history_id, player_id, method, discovered_at)
		 VALUES (%s, %s, %s, %s)
		 ON CONFLICT(history_id, player_id) DO NOTHING`,
			s.bind(1), s.bind(2), s.bind(3), s.bind(4)),
		historyID, playerID, string(method), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return EffectHistory{}, fmt.Errorf("record discovery: %w", err)
	}

	var count int
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(DISTINCT player_id) FROM effect_discoveries WHERE history_id = %s`, s.bind(1)),
		historyID,
	).Scan(&count)
	if err != nil {
		return EffectHistory{}, fmt.Errorf("count discoverers: %w", err)
	}

	if count >= achievementThreshold {
		_, err = s.db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE effect_history SET achievement = 1 WHERE id = %s`, s.bind(1)),
			historyID,
		)
		if err != nil {
			return EffectHistory{}, fmt.Errorf("unlock achievement: %w", err)
		}
	}

	return s.getHistory(ctx, historyID)
}

// #endregion

// #region reads

// GetEffectHistory returns history records matching the filter, newest first.
func (s *Store) GetEffectHistory(ctx context.Context, f Filter) ([]EffectHistory, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	var rows *sql.Rows
	var err error
	if f.ActionID != "" {
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT id FROM effect_history WHERE action_id = %s
			 ORDER BY created_at DESC LIMIT %s OFFSET %s`, s.bind(1), s.bind(2), s.bind(3)),
			f.ActionID, limit, f.Offset)
	} else {
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT id FROM effect_history
			 ORDER BY created_at DESC LIMIT %s OFFSET %s`, s.bind(1), s.bind(2)),
			limit, f.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan history id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]EffectHistory, 0, len(ids))
	for _, id := range ids {
		rec, err := s.getHistory(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) getHistory(ctx context.Context, id string) (EffectHistory, error) {
	var rec EffectHistory
	var createdStr, graphJSON string
	var achievement int
	var persistentJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, action_id, created_at, graph_json, achievement, persistent_json
		 FROM effect_history WHERE id = %s`, s.bind(1)),
		id,
	).Scan(&rec.ID, &rec.OriginalActionID, &createdStr, &graphJSON, &achievement, &persistentJSON)
	if err != nil {
		return EffectHistory{}, fmt.Errorf("get history %s: %w", id, err)
	}

	rec.Timestamp, _ = time.Parse(time.RFC3339Nano, createdStr)
	rec.AchievementUnlocked = achievement != 0
	if err := json.Unmarshal([]byte(graphJSON), &rec.Graph); err != nil {
		return EffectHistory{}, fmt.Errorf("unmarshal graph: %w", err)
	}
	if persistentJSON.Valid {
		_ = json.Unmarshal([]byte(persistentJSON.String), &rec.PersistentEffects)
	}

	drows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT player_id FROM effect_discoveries WHERE history_id = %s ORDER BY discovered_at`, s.bind(1)),
		id,
	)
	if err != nil {
		return EffectHistory{}, fmt.Errorf("query discoveries: %w", err)
	}
	defer drows.Close()
	for drows.Next() {
		var pid string
		if err := drows.Scan(&pid); err != nil {
			return EffectHistory{}, fmt.Errorf("scan discovery: %w", err)
		}
		rec.DiscoveredBy = append(rec.DiscoveredBy, pid)
	}
	return rec, drows.Err()
}

// GetEmergentOpportunities returns persistent effects the player has not
// yet discovered, newest history first.
func (s *Store) GetEmergentOpportunities(ctx context.Context, q OpportunityQuery) ([]Opportunity, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	histories, err := s.GetEffectHistory(ctx, Filter{Limit: limit + q.Offset})
	if err != nil {
		return nil, err
	}

	var out []Opportunity
	for _, h := range histories {
		if len(h.PersistentEffects) == 0 {
			continue
		}
		if q.PlayerID != "" && contains(h.DiscoveredBy, q.PlayerID) {
			continue
		}
		descriptions := make(map[string]string, len(h.Graph.CascadingEffects))
		for _, node := range h.Graph.CascadingEffects {
			descriptions[node.Effect.ID] = node.Effect.Description
		}
		for _, effectID := range h.PersistentEffects {
			out = append(out, Opportunity{
				HistoryID:        h.ID,
				OriginalActionID: h.OriginalActionID,
				EffectID:         effectID,
				Hint:             descriptions[effectID],
				CreatedAt:        h.Timestamp,
			})
		}
	}
	if q.Offset > 0 && q.Offset < len(out) {
		out = out[q.Offset:]
	} else if q.Offset >= len(out) {
		out = nil
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// #endregion

// #region cross-region-reads

// PendingCrossRegion returns unapplied cross-region records, soonest first.
func (s *Store) PendingCrossRegion(ctx context.Context) ([]CrossRegionEffectRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT effect_id, history_id, source_region, target_region, arrival_at, path_json, magnitude, description
		 FROM cross_region_effects WHERE applied = 0 ORDER BY arrival_at`)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	var out []CrossRegionEffectRecord
	for rows.Next() {
		var cr CrossRegionEffectRecord
		var arrivalStr, pathJSON string
		if err := rows.Scan(&cr.EffectID, &cr.HistoryID, &cr.SourceRegion, &cr.TargetRegion,
			&arrivalStr, &pathJSON, &cr.Magnitude, &cr.Description); err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		cr.ArrivalTimestamp, _ = time.Parse(time.RFC3339Nano, arrivalStr)
		_ = json.Unmarshal([]byte(pathJSON), &cr.PropagationPath)
		out = append(out, cr)
	}
	return out, rows.Err()
}

// MarkApplied flags a cross-region record as delivered.
func (s *Store) MarkApplied(ctx context.Context, effectID string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE cross_region_effects SET applied = 1 WHERE effect_id = %s`, s.bind(1)),
		effectID,
	)
	if err != nil {
		return fmt.Errorf("mark applied: %w", err)
	}
	return nil
}

// #endregion

// #region helpers

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// #endregion
