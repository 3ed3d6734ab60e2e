package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/audit"
	"github.com/danielpatrickdp/living-world/go-engine/internal/history"
	"github.com/danielpatrickdp/living-world/go-engine/internal/worldstate"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to world_state.sqlite")
	last := flag.Int("last", 20, "show N most recent versions")
	version := flag.Int64("version", 0, "show single version detail")
	auditFor := flag.String("audit", "", "show audit trail for a consequence id")
	histAction := flag.String("history", "", "show effect history for an action id")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/world_state.sqlite [--last N] [--version V] [--audit id] [--history action] [--json]")
		os.Exit(2)
	}

	store, err := worldstate.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	switch {
	case *auditFor != "":
		err = runAuditMode(ctx, store, *auditFor, *jsonOut)
	case *histAction != "":
		err = runHistoryMode(ctx, store, *histAction, *jsonOut)
	case *version != 0:
		err = runDetailMode(ctx, store, *version, *jsonOut)
	default:
		err = runListMode(ctx, store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(ctx context.Context, store *worldstate.Store, last int, jsonOut bool) error {
	versions, err := store.ListVersions(ctx, last)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(os.Stderr, "no versions found")
		return nil
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(versions)
	}

	fmt.Printf("%-8s  %-25s  %-8s  %-10s  %s\n", "VERSION", "CREATED", "REGIONS", "CHARACTERS", "EVENTS")
	// store returns DESC, reverse for chronological
	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		fmt.Printf("%-8d  %-25s  %-8d  %-10d  %d\n",
			v.Version, v.CreatedAt.Format(time.RFC3339),
			len(v.Snapshot.Regions), len(v.Snapshot.Characters), len(v.Snapshot.Events))
	}
	return nil
}

// #endregion

// #region detail-mode

func runDetailMode(ctx context.Context, store *worldstate.Store, version int64, jsonOut bool) error {
	snap, err := store.GetVersion(ctx, version)
	if err != nil {
		return err
	}
	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(snap)
	}

	fmt.Printf("version %d @ %s  environment=%s\n\n", snap.Version, snap.Timestamp.Format(time.RFC3339), snap.Environment)
	fmt.Println("regions:")
	for _, r := range snap.Regions {
		fmt.Printf("  %-12s prosperity=%-3d safety=%-3d %s\n", r.Name, r.Prosperity, r.Safety, r.CurrentConditions)
	}
	fmt.Println("characters:")
	for _, c := range snap.Characters {
		fmt.Printf("  %-12s status=%-10s mood=%-8s activity=%s\n", c.Name, c.Status, c.Mood, c.CurrentActivity)
		for _, rel := range c.Relationships {
			fmt.Printf("      → %-12s %+.1f\n", rel.Target, rel.Strength)
		}
	}
	if len(snap.Events) > 0 {
		fmt.Println("events:")
		for _, ev := range snap.Events {
			fmt.Printf("  [%s] %s\n", ev.Type, ev.Description)
		}
	}
	return nil
}

// #endregion

// #region audit-mode

func runAuditMode(ctx context.Context, store *worldstate.Store, consequenceID string, jsonOut bool) error {
	log, err := audit.NewLog(store.DB(), store.Postgres())
	if err != nil {
		return err
	}
	entries, err := log.ForConsequence(ctx, consequenceID)
	if err != nil {
		return err
	}
	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}
	for _, e := range entries {
		fmt.Printf("%s  %-8s  %-14s  %s", e.Timestamp.Format(time.RFC3339), e.Action, e.System, e.Change)
		if e.PreviousValue != "" || e.NewValue != "" {
			fmt.Printf("  (%s → %s)", e.PreviousValue, e.NewValue)
		}
		fmt.Println()
	}
	return nil
}

// #endregion

// #region history-mode

func runHistoryMode(ctx context.Context, store *worldstate.Store, actionID string, jsonOut bool) error {
	hist, err := history.NewStore(store.DB(), store.Postgres())
	if err != nil {
		return err
	}
	records, err := hist.GetEffectHistory(ctx, history.Filter{ActionID: actionID})
	if err != nil {
		return err
	}
	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(records)
	}
	for _, rec := range records {
		fmt.Printf("%s  action=%s effects=%d depth=%d persistent=%d discovered=%d achievement=%v\n",
			rec.Timestamp.Format(time.RFC3339), rec.OriginalActionID,
			rec.Graph.TotalEffects, rec.Graph.MaxCascadeDepth,
			len(rec.PersistentEffects), len(rec.DiscoveredBy), rec.AchievementUnlocked)
	}
	return nil
}

// #endregion
