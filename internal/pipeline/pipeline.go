package pipeline

// #region imports
import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/audit"
	"github.com/danielpatrickdp/living-world/go-engine/internal/cascade"
	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
	"github.com/danielpatrickdp/living-world/go-engine/internal/generator"
	"github.com/danielpatrickdp/living-world/go-engine/internal/history"
	"github.com/danielpatrickdp/living-world/go-engine/internal/updater"
	"github.com/danielpatrickdp/living-world/go-engine/internal/validator"
	"github.com/danielpatrickdp/living-world/go-engine/internal/worldstate"
)

// #endregion

// #region engine

// Engine chains the four pipeline stages over one world gateway:
// generate, validate, cascade, apply. History persistence is optional
// and attached with WithHistory.
type Engine struct {
	cfg       Config
	gateway   worldstate.Gateway
	generator *generator.Generator
	validator *validator.Validator
	updater   *updater.Updater
	history   *history.Store
	scheduler *history.Scheduler
}

// New wires an engine over the gateway with the given tuning.
func New(gateway worldstate.Gateway, cfg Config) *Engine {
	return &Engine{
		cfg:       cfg,
		gateway:   gateway,
		generator: generator.New(),
		validator: validator.New(),
		updater:   updater.New(gateway),
	}
}

// WithAuditLog persists apply-stage audit trails.
func (e *Engine) WithAuditLog(l *audit.Log) *Engine {
	e.updater = e.updater.WithAuditLog(l)
	return e
}

// WithHistory attaches butterfly-effect persistence and the cross-region
// arrival scheduler.
func (e *Engine) WithHistory(store *history.Store, sched *history.Scheduler) *Engine {
	e.history = store
	e.scheduler = sched
	return e
}

// #endregion

// #region stage-delegates

func (e *Engine) generatorOptions() generator.Options {
	return generator.Options{
		MaxConsequences:           e.cfg.Generator.MaxConsequences,
		MinConfidence:             e.cfg.Generator.MinConfidence,
		RequireLogicalConsistency: e.cfg.Generator.RequireLogicalConsistency,
	}
}

func (e *Engine) cascadeOptions() cascade.Options {
	return cascade.Options{
		MaxCascadingLevels:   e.cfg.Cascade.MaxCascadingLevels,
		MaxEffectsPerLevel:   e.cfg.Cascade.MaxEffectsPerLevel,
		ProbabilityThreshold: e.cfg.Cascade.ProbabilityThreshold,
		Seed:                 e.cfg.Cascade.Seed,
	}
}

// Generate parses model free text into typed consequences.
func (e *Engine) Generate(ctx context.Context, responseText string, req generator.Request) (generator.Result, error) {
	rules, err := e.gateway.WorldRules(ctx)
	if err != nil {
		return generator.Result{}, fmt.Errorf("load world rules: %w", err)
	}
	return e.generator.Generate(responseText, req, rules, e.generatorOptions()), nil
}

// ValidateConsequences runs per-item checks plus batch conflict resolution.
func (e *Engine) ValidateConsequences(ctx context.Context, batch []consequence.Consequence) (validator.BatchResult, error) {
	rules, err := e.gateway.WorldRules(ctx)
	if err != nil {
		return validator.BatchResult{}, fmt.Errorf("load world rules: %w", err)
	}
	return e.validator.ValidateConsequences(batch, validator.Options{Rules: rules}), nil
}

// ExpandCascades builds the ripple graph for a validated batch.
func (e *Engine) ExpandCascades(batch []consequence.Consequence) cascade.Expansion {
	return cascade.Expand(batch, e.cascadeOptions())
}

// ApplyConsequences mutates and persists the world snapshot.
func (e *Engine) ApplyConsequences(ctx context.Context, batch []consequence.Consequence) updater.Result {
	return e.updater.ApplyConsequences(ctx, batch, nil)
}

// #endregion

// #region history-delegates

// ErrNoHistory is returned by history entry points when no history store
// was attached.
var ErrNoHistory = fmt.Errorf("history store not configured")

// PersistButterflyEffect stores the cascade graph and schedules any
// cross-region arrivals it produced.
func (e *Engine) PersistButterflyEffect(ctx context.Context, actionID string, graph cascade.Expansion, opts history.PersistOptions) (history.EffectHistory, error) {
	if e.history == nil {
		return history.EffectHistory{}, ErrNoHistory
	}
	rec, crossRegion, err := e.history.PersistButterflyEffect(ctx, actionID, graph, opts)
	if err != nil {
		return history.EffectHistory{}, err
	}
	if e.scheduler != nil {
		for _, cr := range crossRegion {
			e.scheduler.Schedule(cr)
		}
	}
	return rec, nil
}

// RecordEffectDiscovery marks a history record as discovered by a player.
func (e *Engine) RecordEffectDiscovery(ctx context.Context, playerID, historyID string, method history.DiscoveryMethod) (history.EffectHistory, error) {
	if e.history == nil {
		return history.EffectHistory{}, ErrNoHistory
	}
	return e.history.RecordEffectDiscovery(ctx, playerID, historyID, method)
}

// GetEffectHistory reads stored butterfly-effect records.
func (e *Engine) GetEffectHistory(ctx context.Context, f history.Filter) ([]history.EffectHistory, error) {
	if e.history == nil {
		return nil, ErrNoHistory
	}
	return e.history.GetEffectHistory(ctx, f)
}

// GetEmergentOpportunities surfaces undiscovered persistent effects.
func (e *Engine) GetEmergentOpportunities(ctx context.Context, q history.OpportunityQuery) ([]history.Opportunity, error) {
	if e.history == nil {
		return nil, ErrNoHistory
	}
	return e.history.GetEmergentOpportunities(ctx, q)
}

// #endregion

// #region process

// ProcessResult bundles one full pipeline run.
type ProcessResult struct {
	Generation generator.Result
	Validation validator.BatchResult
	Cascade    cascade.Expansion
	Apply      updater.Result
	History    *history.EffectHistory
	ElapsedMs  int64
}

// Process runs the whole pipeline on one piece of model free text:
// generate, re-validate with conflict resolution, expand cascades, apply
// to the world, and (when configured) persist the butterfly effect.
func (e *Engine) Process(ctx context.Context, responseText string, req generator.Request) (ProcessResult, error) {
	start := time.Now()
	var out ProcessResult

	gen, err := e.Generate(ctx, responseText, req)
	if err != nil {
		return out, err
	}
	out.Generation = gen

	val, err := e.ValidateConsequences(ctx, gen.Consequences)
	if err != nil {
		return out, err
	}
	out.Validation = val

	out.Cascade = e.ExpandCascades(val.ValidConsequences)
	out.Apply = e.ApplyConsequences(ctx, val.ValidConsequences)

	if e.history != nil && out.Cascade.TotalEffects > 0 {
		rec, err := e.PersistButterflyEffect(ctx, req.ActionID, out.Cascade, history.PersistOptions{
			SourceRegion: req.Region,
		})
		if err != nil {
			log.Printf("[PIPE] butterfly-effect persist failed: %v", err)
		} else {
			out.History = &rec
		}
	}

	out.ElapsedMs = time.Since(start).Milliseconds()
	log.Printf("[PIPE] action=%s strategy=%s valid=%d conflicts=%d applied=%d cascade=%d elapsed=%dms",
		req.ActionID, gen.Metadata.Strategy, len(val.ValidConsequences), len(val.Conflicts),
		len(out.Apply.AppliedConsequences), out.Cascade.TotalEffects, out.ElapsedMs)
	return out, nil
}

// #endregion
