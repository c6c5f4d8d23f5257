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

type CharacterRepository interface {
	CreateWithLedger(ctx context.Context, ch *models.Character, rec *models.FactionRecord, res *models.FactionResources) error
	GetByID(ctx context.Context, id int64) (*models.Character, error)
	GetActiveByPlayer(ctx context.Context, playerID snowflake.ID) (*models.Character, error)
	GetAllByPlayer(ctx context.Context, playerID snowflake.ID) ([]*models.Character, error)
	GetAllLiving(ctx context.Context) ([]*models.Character, error)
	SwitchActive(ctx context.Context, rec *models.FactionRecord, from, to *models.Character) error
	AgeAllLiving(ctx context.Context) (int64, error)
	GetFactionRecord(ctx context.Context, playerID snowflake.ID) (*models.FactionRecord, error)
	GetSwitchCount(ctx context.Context, playerID snowflake.ID) (int, error)
}

type characterRepository struct {
	db *bun.DB
}

func NewCharacterRepository(db *bun.DB) CharacterRepository {
	return &characterRepository{db: db}
}

// CreateWithLedger inserts the character, its faction record and a zeroed
// resources row as one atomic unit.
func (r *characterRepository) CreateWithLedger(ctx context.Context, ch *models.Character, rec *models.FactionRecord, res *models.FactionResources) error {
	now := time.Now()
	ch.CreatedAt = now
	ch.UpdatedAt = now
	rec.CreatedAt = now
	rec.UpdatedAt = now
	res.CreatedAt = now
	res.UpdatedAt = now

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(ch).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert character: %w", err)
		}

		rec.History = []models.FactionEvent{{
			Faction:     ch.BirthFaction,
			Timestamp:   now,
			Reason:      "character_creation",
			CharacterID: ch.ID,
		}}
		if _, err := tx.NewInsert().Model(rec).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert faction record: %w", err)
		}

		if _, err := tx.NewInsert().Model(res).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert faction resources: %w", err)
		}
		return nil
	})
}

func (r *characterRepository) GetByID(ctx context.Context, id int64) (*models.Character, error) {
	ch := new(models.Character)
	err := r.db.NewSelect().
		Model(ch).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "character", ID: id}
		}
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	return ch, nil
}

func (r *characterRepository) GetActiveByPlayer(ctx context.Context, playerID snowflake.ID) (*models.Character, error) {
	ch := new(models.Character)
	err := r.db.NewSelect().
		Model(ch).
		Where("player_id = ? AND active = true AND alive = true", playerID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "active character", ID: playerID}
		}
		return nil, fmt.Errorf("failed to get active character: %w", err)
	}
	return ch, nil
}

func (r *characterRepository) GetAllByPlayer(ctx context.Context, playerID snowflake.ID) ([]*models.Character, error) {
	var chars []*models.Character
	err := r.db.NewSelect().
		Model(&chars).
		Where("player_id = ?", playerID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get character lineage: %w", err)
	}
	return chars, nil
}

func (r *characterRepository) GetAllLiving(ctx context.Context) ([]*models.Character, error) {
	var chars []*models.Character
	err := r.db.NewSelect().
		Model(&chars).
		Where("active = true AND alive = true").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get living characters: %w", err)
	}
	return chars, nil
}

// SwitchActive flips the active flags, updates the faction record and writes
// a switch-log row as one atomic unit. rec must already carry the new
// current faction, purity and appended history entry.
func (r *characterRepository) SwitchActive(ctx context.Context, rec *models.FactionRecord, from, to *models.Character) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Character)(nil)).
			Set("active = false").
			Set("updated_at = ?", time.Now()).
			Where("id = ? AND active = true", from.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to deactivate character: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &InvalidStateError{Entity: "character", Reason: "no active character to switch away from"}
		}

		res, err = tx.NewUpdate().
			Model((*models.Character)(nil)).
			Set("active = true").
			Set("updated_at = ?", time.Now()).
			Where("id = ? AND active = false AND alive = true", to.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to activate character: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &InvalidStateError{Entity: "character", Reason: "target character is already active"}
		}

		_, err = tx.NewUpdate().
			Model(rec).
			Set("current_faction = ?", rec.CurrentFaction).
			Set("purity = ?", rec.Purity).
			Set("history = ?", rec.History).
			Set("updated_at = ?", time.Now()).
			Where("player_id = ?", rec.PlayerID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update faction record: %w", err)
		}

		switchLog := &models.CharacterSwitchLog{
			PlayerID:        rec.PlayerID,
			FromCharacterID: from.ID,
			ToCharacterID:   to.ID,
			SwitchedAt:      time.Now(),
		}
		if _, err := tx.NewInsert().Model(switchLog).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert switch log: %w", err)
		}
		return nil
	})
}

// AgeAllLiving increments every living character's age and recomputes the
// life stage in the same statement, mirroring models.LifeStageForAge.
func (r *characterRepository) AgeAllLiving(ctx context.Context) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*models.Character)(nil)).
		Set("age = age + 1").
		Set(`life_stage = CASE
			WHEN age + 1 < 2 THEN 'baby'
			WHEN age + 1 < 12 THEN 'child'
			WHEN age + 1 < 18 THEN 'teen'
			ELSE 'adult'
		END`).
		Set("updated_at = ?", time.Now()).
		Where("alive = true").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to age characters: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *characterRepository) GetFactionRecord(ctx context.Context, playerID snowflake.ID) (*models.FactionRecord, error) {
	rec := new(models.FactionRecord)
	err := r.db.NewSelect().
		Model(rec).
		Where("player_id = ?", playerID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "faction record", ID: playerID}
		}
		return nil, fmt.Errorf("failed to get faction record: %w", err)
	}
	return rec, nil
}

func (r *characterRepository) GetSwitchCount(ctx context.Context, playerID snowflake.ID) (int, error) {
	count, err := r.db.NewSelect().
		Model((*models.CharacterSwitchLog)(nil)).
		Where("player_id = ?", playerID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count switches: %w", err)
	}
	return count, nil
}
