package economy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/factionrealms/factionbot/factionbot/database/repositories"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const maxConcurrentConsumers = 5

// Engine applies the faction resource rules: daily consumption processing
// and resource valuation.
type Engine struct {
	characters repositories.CharacterRepository
	resources  repositories.ResourceRepository
	sem        *semaphore.Weighted
}

func NewEngine(characters repositories.CharacterRepository, resources repositories.ResourceRepository) *Engine {
	return &Engine{
		characters: characters,
		resources:  resources,
		sem:        semaphore.NewWeighted(maxConcurrentConsumers),
	}
}

// ConsumptionResult reports one character's daily consumption outcome.
type ConsumptionResult struct {
	CharacterID      int64
	PlayerID         snowflake.ID
	Faction          models.Faction
	Costs            map[string]int64
	Deducted         bool
	AlreadyProcessed bool
	Shortfall        map[string]int64
}

// BatchResult is one entry of a ProcessAllDailyConsumption run.
type BatchResult struct {
	CharacterID int64
	Result      *ConsumptionResult
	Err         error
}

// ResourceStats is the per-player resource summary.
type ResourceStats struct {
	PlayerID       snowflake.ID
	Faction        models.Faction
	Balances       map[string]int64
	DailyCosts     map[string]int64
	TotalValue     int64
	CanAffordToday bool
}

// Today normalizes a timestamp to its UTC calendar day; consumption and
// generation logs are keyed by this.
func Today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ProcessDailyConsumption deducts the character's faction daily costs once
// per calendar day. Re-running on the same day is a no-op; short balances
// leave everything untouched and report the shortfall. Deductions are
// all-or-nothing across the cost set.
func (e *Engine) ProcessDailyConsumption(ctx context.Context, characterID int64) (*ConsumptionResult, error) {
	ch, err := e.characters.GetByID(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if !ch.Alive {
		return nil, &repositories.InvalidStateError{Entity: "character", Reason: "character is not alive"}
	}

	costs := DailyCosts(ch.CurrentFaction)
	if _, err := e.resources.GetOrCreate(ctx, ch.PlayerID); err != nil {
		return nil, err
	}

	deduction, err := e.resources.DeductForDay(ctx, ch.PlayerID, ch.ID, ch.CurrentFaction, costs, Today(time.Now()))
	if err != nil {
		return nil, err
	}

	result := &ConsumptionResult{
		CharacterID:      ch.ID,
		PlayerID:         ch.PlayerID,
		Faction:          ch.CurrentFaction,
		Costs:            costs,
		Deducted:         deduction.Deducted,
		AlreadyProcessed: deduction.AlreadyProcessed,
		Shortfall:        deduction.Shortfall,
	}

	if result.Shortfall != nil {
		slog.Info("Daily consumption short on resources",
			slog.String("type", "economy"),
			slog.Int64("character_id", ch.ID),
			slog.Any("shortfall", result.Shortfall))
	}
	return result, nil
}

// ProcessAllDailyConsumption runs the daily deduction for every active and
// living character. Failures are collected per character and never abort the
// batch. Work is bounded by a semaphore; the per-day unique constraint keeps
// concurrent runs safe.
func (e *Engine) ProcessAllDailyConsumption(ctx context.Context) ([]BatchResult, error) {
	chars, err := e.characters.GetAllLiving(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(chars))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range chars {
		i, ch := i, ch
		g.Go(func() error {
			if err := e.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer e.sem.Release(1)

			res, err := e.ProcessDailyConsumption(gctx, ch.ID)
			mu.Lock()
			results[i] = BatchResult{CharacterID: ch.ID, Result: res, Err: err}
			mu.Unlock()
			if err != nil {
				slog.Error("Daily consumption failed",
					slog.String("type", "economy"),
					slog.Int64("character_id", ch.ID),
					slog.Any("error", err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	slog.Info("Daily consumption batch finished",
		slog.String("type", "economy"),
		slog.Int("characters", len(chars)))
	return results, nil
}

// GetResourceStats summarizes a player's balances against their active
// character's faction upkeep.
func (e *Engine) GetResourceStats(ctx context.Context, playerID snowflake.ID) (*ResourceStats, error) {
	ch, err := e.characters.GetActiveByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	res, err := e.resources.GetOrCreate(ctx, playerID)
	if err != nil {
		return nil, err
	}

	balances := res.Balances()
	costs := DailyCosts(ch.CurrentFaction)

	return &ResourceStats{
		PlayerID:       playerID,
		Faction:        ch.CurrentFaction,
		Balances:       balances,
		DailyCosts:     costs,
		TotalValue:     TotalValue(balances),
		CanAffordToday: CanAfford(balances, costs),
	}, nil
}
