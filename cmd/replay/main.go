package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
	"github.com/danielpatrickdp/living-world/go-engine/internal/updater"
	"github.com/danielpatrickdp/living-world/go-engine/internal/validator"
	"github.com/danielpatrickdp/living-world/go-engine/internal/worldstate"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to world_state.sqlite (chain-check mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (replay mode)")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --db path/to/world_state.sqlite")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runChainCheckMode(*dbPath)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

// fixture is a self-contained replay scenario: a starting snapshot, world
// rules, and consequence batches to apply in order.
type fixture struct {
	InitialState worldstate.Snapshot     `json:"initialState"`
	Rules        []consequence.WorldRule `json:"rules"`
	Batches      []fixtureBatch          `json:"batches"`
}

type fixtureBatch struct {
	ActionID     string                    `json:"actionId"`
	Consequences []consequence.Consequence `json:"consequences"`
}

// runFixtureMode replays the fixture twice and verifies both runs land on
// byte-identical final snapshots.
func runFixtureMode(path string) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read fixture: %v\n", err)
		return 1
	}
	var f fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		fmt.Fprintf(os.Stderr, "parse fixture: %v\n", err)
		return 1
	}

	first, err := replayOnce(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 1
	}
	second, err := replayOnce(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 1
	}

	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	if string(firstJSON) != string(secondJSON) {
		fmt.Println("MISMATCH: replay is not deterministic")
		return 1
	}
	fmt.Printf("MATCH: %d batches, final version %d, %d events\n",
		len(f.Batches), first.Version, len(first.Events))
	return 0
}

func replayOnce(f fixture) (worldstate.Snapshot, error) {
	ctx := context.Background()
	gateway := worldstate.NewMemoryGateway(f.Rules, f.InitialState.Clone())
	v := validator.New()
	u := updater.New(gateway)

	for _, batch := range f.Batches {
		res := v.ValidateConsequences(batch.Consequences, validator.Options{Rules: f.Rules})
		applied := u.ApplyConsequences(ctx, res.ValidConsequences, nil)
		if !applied.Success {
			return worldstate.Snapshot{}, fmt.Errorf("batch %s failed to persist", batch.ActionID)
		}
		fmt.Printf("[%s] valid=%d conflicts=%d applied=%d failed=%d\n",
			batch.ActionID, len(res.ValidConsequences), len(res.Conflicts),
			len(applied.AppliedConsequences), len(applied.FailedConsequences))
	}
	return gateway.CurrentState(ctx)
}

// #endregion

// #region chain-check-mode

// runChainCheckMode verifies the stored snapshot chain: versions must be
// contiguous and persist times non-decreasing.
func runChainCheckMode(path string) int {
	store, err := worldstate.NewStore(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 1
	}
	defer store.Close()

	ctx := context.Background()
	versions, err := store.ListVersions(ctx, 10000)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list versions: %v\n", err)
		return 1
	}
	if len(versions) == 0 {
		fmt.Fprintln(os.Stderr, "no versions found")
		return 1
	}

	// newest first; walk backwards chronologically
	problems := 0
	for i := len(versions) - 1; i > 0; i-- {
		older, newer := versions[i], versions[i-1]
		if newer.Version != older.Version+1 {
			fmt.Printf("GAP: version %d follows %d\n", newer.Version, older.Version)
			problems++
		}
		if newer.CreatedAt.Before(older.CreatedAt) {
			fmt.Printf("CLOCK: version %d persisted before version %d\n", newer.Version, older.Version)
			problems++
		}
	}
	if problems > 0 {
		fmt.Printf("%d problems in chain of %d versions\n", problems, len(versions))
		return 1
	}
	fmt.Printf("OK: %d versions, contiguous chain ending at %d\n", len(versions), versions[0].Version)
	return 0
}

// #endregion
