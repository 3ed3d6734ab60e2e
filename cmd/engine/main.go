package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/audit"
	"github.com/danielpatrickdp/living-world/go-engine/internal/generator"
	"github.com/danielpatrickdp/living-world/go-engine/internal/history"
	"github.com/danielpatrickdp/living-world/go-engine/internal/pipeline"
	"github.com/danielpatrickdp/living-world/go-engine/internal/worldstate"
)

// #region main
func main() {
	cfgPath := envOr("WORLD_ENGINE_CONFIG", "")
	region := envOr("WORLD_ENGINE_REGION", "village")

	cfg := pipeline.Default()
	if cfgPath != "" {
		loaded, err := pipeline.Load(cfgPath)
		if err != nil {
			log.Fatalf("failed to load config %s: %v", cfgPath, err)
		}
		cfg = loaded
	}

	store, err := worldstate.OpenFromEnv()
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.SeedInitialState(ctx, worldstate.DefaultSnapshot()); err != nil {
		log.Fatalf("failed to seed initial state: %v", err)
	}
	rules, err := store.WorldRules(ctx)
	if err != nil {
		log.Fatalf("failed to read rules: %v", err)
	}
	if len(rules) == 0 {
		log.Println("No world rules found, seeding defaults...")
		if err := store.SeedRules(ctx, worldstate.DefaultRules()); err != nil {
			log.Fatalf("failed to seed rules: %v", err)
		}
	}

	auditLog, err := audit.NewLog(store.DB(), store.Postgres())
	if err != nil {
		log.Fatalf("failed to init audit log: %v", err)
	}
	histStore, err := history.NewStore(store.DB(), store.Postgres())
	if err != nil {
		log.Fatalf("failed to init history store: %v", err)
	}
	scheduler := history.NewScheduler(histStore, store)
	defer scheduler.Stop()
	if err := scheduler.RestorePending(ctx); err != nil {
		log.Printf("restore pending arrivals: %v", err)
	}

	engine := pipeline.New(store, cfg).
		WithAuditLog(auditLog).
		WithHistory(histStore, scheduler)

	fmt.Println("Living World Engine ready.")
	fmt.Printf("  region: %s\n", region)
	fmt.Println("Paste model narration (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	actionNum := 0

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}

		actionNum++
		req := generator.Request{
			ActionID: fmt.Sprintf("action-%d", actionNum),
			PlayerID: "player",
			Region:   region,
		}

		runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		result, err := engine.Process(runCtx, text, req)
		cancel()
		if err != nil {
			log.Printf("pipeline error: %v", err)
			continue
		}

		fmt.Printf("\n[%s] strategy=%s consequences=%d conflicts=%d cascade=%d version=%d\n",
			req.ActionID,
			result.Generation.Metadata.Strategy,
			len(result.Validation.ValidConsequences),
			len(result.Validation.Conflicts),
			result.Cascade.TotalEffects,
			result.Apply.Metadata.PersistedVersion)
		for _, c := range result.Validation.ValidConsequences {
			fmt.Printf("  - [%s/%s] %s\n", c.Type, c.Impact.Level, c.Description)
		}
		for _, f := range result.Apply.FailedConsequences {
			fmt.Printf("  ! failed: %s\n", f.Description)
		}
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
