package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type GuildPlotRepository interface {
	GetByID(ctx context.Context, id int64) (*models.GuildPlot, error)
	GetByNumber(ctx context.Context, plotNumber int) (*models.GuildPlot, error)
	GetByGuild(ctx context.Context, guildID snowflake.ID) ([]*models.GuildPlot, error)
	GetAvailable(ctx context.Context) ([]*models.GuildPlot, error)
	Purchase(ctx context.Context, plot *models.GuildPlot, guildID, actorID snowflake.ID, cost int64) error
	Upgrade(ctx context.Context, plot *models.GuildPlot, actorID snowflake.ID, cost, newValue int64) error
	Build(ctx context.Context, plot *models.GuildPlot, buildingType string, actorID snowflake.ID, cost int64) error
	Sell(ctx context.Context, plot *models.GuildPlot, actorID snowflake.ID, proceeds int64) error
	RecordCollection(ctx context.Context, guildID snowflake.ID, plotID int64, day time.Time, output map[string]int64) (bool, error)
	GetTreasury(ctx context.Context, guildID snowflake.ID) (*models.GuildTreasury, error)
	Deposit(ctx context.Context, guildID, actorID snowflake.ID, amount int64) error
	Transactions(ctx context.Context, guildID snowflake.ID, limit int) ([]*models.GuildTransaction, error)
}

type guildPlotRepository struct {
	db *bun.DB
}

func NewGuildPlotRepository(db *bun.DB) GuildPlotRepository {
	return &guildPlotRepository{db: db}
}

func (r *guildPlotRepository) GetByID(ctx context.Context, id int64) (*models.GuildPlot, error) {
	plot := new(models.GuildPlot)
	err := r.db.NewSelect().Model(plot).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "guild plot", ID: id}
		}
		return nil, fmt.Errorf("failed to get guild plot: %w", err)
	}
	return plot, nil
}

func (r *guildPlotRepository) GetByNumber(ctx context.Context, plotNumber int) (*models.GuildPlot, error) {
	plot := new(models.GuildPlot)
	err := r.db.NewSelect().Model(plot).Where("plot_number = ?", plotNumber).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "guild plot", ID: plotNumber}
		}
		return nil, fmt.Errorf("failed to get guild plot: %w", err)
	}
	return plot, nil
}

func (r *guildPlotRepository) GetByGuild(ctx context.Context, guildID snowflake.ID) ([]*models.GuildPlot, error) {
	var plots []*models.GuildPlot
	err := r.db.NewSelect().
		Model(&plots).
		Where("owner_guild_id = ?", guildID).
		Order("plot_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild plots: %w", err)
	}
	return plots, nil
}

func (r *guildPlotRepository) GetAvailable(ctx context.Context) ([]*models.GuildPlot, error) {
	var plots []*models.GuildPlot
	err := r.db.NewSelect().
		Model(&plots).
		Where("owner_guild_id IS NULL").
		Order("plot_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get available guild plots: %w", err)
	}
	return plots, nil
}

// debitTreasury subtracts amount from the guild treasury inside tx, failing
// with InsufficientFundsError when the balance is short.
func debitTreasury(ctx context.Context, tx bun.Tx, guildID snowflake.ID, amount int64) error {
	res, err := tx.NewUpdate().
		Model((*models.GuildTreasury)(nil)).
		Set("balance = balance - ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("guild_id = ? AND balance >= ?", guildID, amount).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to debit treasury: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var available int64
		err := tx.NewSelect().
			Model((*models.GuildTreasury)(nil)).
			Column("balance").
			Where("guild_id = ?", guildID).
			Scan(ctx, &available)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read treasury balance: %w", err)
		}
		return &InsufficientFundsError{Resource: "treasury", Required: amount, Available: available}
	}
	return nil
}

func creditTreasury(ctx context.Context, tx bun.Tx, guildID snowflake.ID, amount int64) error {
	now := time.Now()
	seed := &models.GuildTreasury{GuildID: guildID, CreatedAt: now, UpdatedAt: now}
	if _, err := tx.NewInsert().Model(seed).On("CONFLICT (guild_id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed treasury: %w", err)
	}
	_, err := tx.NewUpdate().
		Model((*models.GuildTreasury)(nil)).
		Set("balance = balance + ?", amount).
		Set("updated_at = ?", now).
		Where("guild_id = ?", guildID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to credit treasury: %w", err)
	}
	return nil
}

func insertTransaction(ctx context.Context, tx bun.Tx, t *models.GuildTransaction) error {
	t.Reference = uuid.NewString()
	t.CreatedAt = time.Now()
	if _, err := tx.NewInsert().Model(t).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert guild transaction: %w", err)
	}
	return nil
}

// Purchase claims an unowned district plot for the guild, debiting the
// treasury and logging the transaction atomically. plot must carry the new
// size and value fields.
func (r *guildPlotRepository) Purchase(ctx context.Context, plot *models.GuildPlot, guildID, actorID snowflake.ID, cost int64) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := debitTreasury(ctx, tx, guildID, cost); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*models.GuildPlot)(nil)).
			Set("owner_guild_id = ?", guildID).
			Set("size = ?", plot.Size).
			Set("tier = 1").
			Set("base_value = ?", plot.BaseValue).
			Set("current_value = ?", plot.CurrentValue).
			Set("updated_at = ?", time.Now()).
			Where("id = ? AND owner_guild_id IS NULL", plot.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to claim guild plot: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &InvalidStateError{Entity: "guild plot", Reason: "plot is not available"}
		}

		return insertTransaction(ctx, tx, &models.GuildTransaction{
			GuildID: guildID,
			PlotID:  &plot.ID,
			Action:  models.GuildActionPurchase,
			Amount:  cost,
			ActorID: actorID,
			Details: map[string]any{"size": string(plot.Size), "plot_number": plot.PlotNumber},
		})
	})
}

func (r *guildPlotRepository) Upgrade(ctx context.Context, plot *models.GuildPlot, actorID snowflake.ID, cost, newValue int64) error {
	guildID := *plot.OwnerGuildID
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := debitTreasury(ctx, tx, guildID, cost); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*models.GuildPlot)(nil)).
			Set("tier = tier + 1").
			Set("current_value = ?", newValue).
			Set("updated_at = ?", time.Now()).
			Where("id = ? AND tier = ?", plot.ID, plot.Tier).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upgrade guild plot: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &InvalidStateError{Entity: "guild plot", Reason: "plot tier changed during upgrade"}
		}

		return insertTransaction(ctx, tx, &models.GuildTransaction{
			GuildID: guildID,
			PlotID:  &plot.ID,
			Action:  models.GuildActionUpgrade,
			Amount:  cost,
			ActorID: actorID,
			Details: map[string]any{"new_tier": plot.Tier + 1, "new_value": newValue},
		})
	})
}

func (r *guildPlotRepository) Build(ctx context.Context, plot *models.GuildPlot, buildingType string, actorID snowflake.ID, cost int64) error {
	guildID := *plot.OwnerGuildID
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := debitTreasury(ctx, tx, guildID, cost); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*models.GuildPlot)(nil)).
			Set("building_type = ?", buildingType).
			Set("building_level = 1").
			Set("updated_at = ?", time.Now()).
			Where("id = ? AND building_type IS NULL", plot.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to build structure: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &InvalidStateError{Entity: "guild plot", Reason: "plot already has a building"}
		}

		return insertTransaction(ctx, tx, &models.GuildTransaction{
			GuildID: guildID,
			PlotID:  &plot.ID,
			Action:  models.GuildActionBuild,
			Amount:  cost,
			ActorID: actorID,
			Details: map[string]any{"building_type": buildingType},
		})
	})
}

// Sell releases the plot back to the market and credits 70% of its current
// value to the treasury.
func (r *guildPlotRepository) Sell(ctx context.Context, plot *models.GuildPlot, actorID snowflake.ID, proceeds int64) error {
	guildID := *plot.OwnerGuildID
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.GuildPlot)(nil)).
			Set("owner_guild_id = NULL").
			Set("building_type = NULL").
			Set("building_level = 0").
			Set("tier = 1").
			Set("updated_at = ?", time.Now()).
			Where("id = ? AND owner_guild_id = ?", plot.ID, guildID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to sell guild plot: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &InvalidStateError{Entity: "guild plot", Reason: "plot is not owned by this guild"}
		}

		if err := creditTreasury(ctx, tx, guildID, proceeds); err != nil {
			return err
		}

		return insertTransaction(ctx, tx, &models.GuildTransaction{
			GuildID: guildID,
			PlotID:  &plot.ID,
			Action:  models.GuildActionSell,
			Amount:  proceeds,
			ActorID: actorID,
			Details: map[string]any{"plot_number": plot.PlotNumber},
		})
	})
}

// RecordCollection logs one building-output collection for the plot. The
// (plot_id, day) unique constraint turns a repeat collection into a no-op;
// the bool return reports whether the collection was recorded.
func (r *guildPlotRepository) RecordCollection(ctx context.Context, guildID snowflake.ID, plotID int64, day time.Time, output map[string]int64) (bool, error) {
	logRow := &models.ResourceGenerationLog{
		GuildID:   guildID,
		PlotID:    plotID,
		Day:       day,
		Output:    output,
		CreatedAt: time.Now(),
	}
	res, err := r.db.NewInsert().
		Model(logRow).
		On("CONFLICT (plot_id, day) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to insert generation log: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *guildPlotRepository) GetTreasury(ctx context.Context, guildID snowflake.ID) (*models.GuildTreasury, error) {
	now := time.Now()
	seed := &models.GuildTreasury{GuildID: guildID, CreatedAt: now, UpdatedAt: now}
	if _, err := r.db.NewInsert().Model(seed).On("CONFLICT (guild_id) DO NOTHING").Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize treasury: %w", err)
	}

	treasury := new(models.GuildTreasury)
	if err := r.db.NewSelect().Model(treasury).Where("guild_id = ?", guildID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get treasury: %w", err)
	}
	return treasury, nil
}

func (r *guildPlotRepository) Deposit(ctx context.Context, guildID, actorID snowflake.ID, amount int64) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := creditTreasury(ctx, tx, guildID, amount); err != nil {
			return err
		}
		return insertTransaction(ctx, tx, &models.GuildTransaction{
			GuildID: guildID,
			Action:  models.GuildActionDeposit,
			Amount:  amount,
			ActorID: actorID,
		})
	})
}

func (r *guildPlotRepository) Transactions(ctx context.Context, guildID snowflake.ID, limit int) ([]*models.GuildTransaction, error) {
	var txs []*models.GuildTransaction
	err := r.db.NewSelect().
		Model(&txs).
		Where("guild_id = ?", guildID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild transactions: %w", err)
	}
	return txs, nil
}
