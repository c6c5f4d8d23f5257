package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/uptrace/bun"
)

// DeductionResult reports the outcome of a daily-cost deduction attempt.
type DeductionResult struct {
	AlreadyProcessed bool
	Deducted         bool
	Costs            map[string]int64
	Shortfall        map[string]int64
}

type ResourceRepository interface {
	GetOrCreate(ctx context.Context, playerID snowflake.ID) (*models.FactionResources, error)
	Add(ctx context.Context, playerID snowflake.ID, deltas map[string]int64) error
	DeductForDay(ctx context.Context, playerID snowflake.ID, characterID int64, faction models.Faction, costs map[string]int64, day time.Time) (*DeductionResult, error)
	CountConsumptionLogs(ctx context.Context, characterID int64) (int, error)
}

type resourceRepository struct {
	db *bun.DB
}

func NewResourceRepository(db *bun.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

// GetOrCreate returns the player's resources row, lazily initializing a
// zeroed row on first access.
func (r *resourceRepository) GetOrCreate(ctx context.Context, playerID snowflake.ID) (*models.FactionResources, error) {
	now := time.Now()
	seed := &models.FactionResources{
		PlayerID:  playerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.NewInsert().
		Model(seed).
		On("CONFLICT (player_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize faction resources: %w", err)
	}

	res := new(models.FactionResources)
	if err := r.db.NewSelect().Model(res).Where("player_id = ?", playerID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get faction resources: %w", err)
	}
	return res, nil
}

// Add credits the given deltas to the player's balances. Only known resource
// columns are touched; unknown keys are silently ignored. The update is built
// from the fixed column allow-list, never from caller-supplied strings.
func (r *resourceRepository) Add(ctx context.Context, playerID snowflake.ID, deltas map[string]int64) error {
	if _, err := r.GetOrCreate(ctx, playerID); err != nil {
		return err
	}

	q := r.db.NewUpdate().
		Model((*models.FactionResources)(nil)).
		Where("player_id = ?", playerID)

	touched := false
	for _, col := range models.KnownResources {
		delta, ok := deltas[col]
		if !ok || delta == 0 {
			continue
		}
		q = q.Set(fmt.Sprintf("%s = %s + ?", col, col), delta)
		touched = true
	}
	if !touched {
		return nil
	}
	q = q.Set("updated_at = ?", time.Now())

	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add faction resources: %w", err)
	}
	return nil
}

// DeductForDay attempts the daily deduction for one character. The
// consumption-log unique constraint on (character_id, day) makes the whole
// operation idempotent: a conflicting insert means the day was already
// processed and nothing changes. When every required balance is sufficient
// all costs are deducted atomically and the log row carries
// auto_deducted=true; otherwise balances stay untouched and the shortfall is
// returned.
func (r *resourceRepository) DeductForDay(ctx context.Context, playerID snowflake.ID, characterID int64, faction models.Faction, costs map[string]int64, day time.Time) (*DeductionResult, error) {
	result := &DeductionResult{Costs: costs}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res := new(models.FactionResources)
		err := tx.NewSelect().
			Model(res).
			Where("player_id = ?", playerID).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &NotFoundError{Entity: "faction resources", ID: playerID}
			}
			return fmt.Errorf("failed to lock faction resources: %w", err)
		}

		balances := res.Balances()
		shortfall := map[string]int64{}
		for _, col := range models.KnownResources {
			cost, ok := costs[col]
			if !ok {
				continue
			}
			if have := balances[col]; have < cost {
				shortfall[col] = cost - have
			}
		}

		logRow := &models.ResourceConsumptionLog{
			CharacterID:  characterID,
			Day:          day,
			Faction:      faction,
			Costs:        costs,
			AutoDeducted: len(shortfall) == 0,
			CreatedAt:    time.Now(),
		}
		ins, err := tx.NewInsert().
			Model(logRow).
			On("CONFLICT (character_id, day) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert consumption log: %w", err)
		}
		if n, _ := ins.RowsAffected(); n == 0 {
			result.AlreadyProcessed = true
			return nil
		}

		if len(shortfall) > 0 {
			result.Shortfall = shortfall
			return nil
		}

		q := tx.NewUpdate().
			Model((*models.FactionResources)(nil)).
			Where("player_id = ?", playerID)
		for _, col := range models.KnownResources {
			cost, ok := costs[col]
			if !ok || cost == 0 {
				continue
			}
			q = q.Set(fmt.Sprintf("%s = %s - ?", col, col), cost)
			q = q.Where(fmt.Sprintf("%s >= ?", col), cost)
		}
		q = q.Set("updated_at = ?", time.Now())

		upd, err := q.Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to deduct daily costs: %w", err)
		}
		if n, _ := upd.RowsAffected(); n == 0 {
			// Row was locked above, so this only fires if a balance
			// changed underneath us. Abort the whole unit.
			return &InvalidStateError{Entity: "faction resources", Reason: "balance changed during deduction"}
		}
		result.Deducted = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *resourceRepository) CountConsumptionLogs(ctx context.Context, characterID int64) (int, error) {
	count, err := r.db.NewSelect().
		Model((*models.ResourceConsumptionLog)(nil)).
		Where("character_id = ?", characterID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count consumption logs: %w", err)
	}
	return count, nil
}
