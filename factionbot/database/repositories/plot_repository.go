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

// PlotWithOccupancy pairs a plot with its live occupant count.
type PlotWithOccupancy struct {
	Plot          *models.ResidentialPlot
	OccupantCount int
}

// NeighborhoodSummary aggregates plot availability per neighborhood.
type NeighborhoodSummary struct {
	Neighborhood   *models.Neighborhood
	TotalPlots     int
	AvailablePlots int
}

// PlotUpgrade carries the precomputed values for a tier upgrade.
type PlotUpgrade struct {
	Cost            int64
	NewTier         int
	NewMaxOccupants int
	NewMaintenance  int64
	NewValue        int64
}

type PlotRepository interface {
	GetByID(ctx context.Context, id int64) (*models.ResidentialPlot, error)
	GetByLocation(ctx context.Context, neighborhoodID int64, plotNumber int) (*models.ResidentialPlot, error)
	GetAvailable(ctx context.Context, neighborhoodID int64) ([]*models.ResidentialPlot, error)
	Purchase(ctx context.Context, plot *models.ResidentialPlot, buyerCharacterID int64, buyerPlayerID snowflake.ID, price int64) error
	SetForSale(ctx context.Context, plotID int64, price int64) error
	TransferSale(ctx context.Context, plot *models.ResidentialPlot, buyerCharacterID int64, buyerPlayerID, sellerPlayerID snowflake.ID, price int64) error
	Upgrade(ctx context.Context, plot *models.ResidentialPlot, ownerPlayerID snowflake.ID, up PlotUpgrade) error
	ActiveOccupants(ctx context.Context, plotID int64) ([]*models.PlotOccupant, error)
	AddOccupant(ctx context.Context, occ *models.PlotOccupant, agreement *models.RentAgreement) error
	PlotsByOwner(ctx context.Context, characterID int64) ([]PlotWithOccupancy, error)
	Neighborhoods(ctx context.Context) ([]*models.Neighborhood, error)
	NeighborhoodSummaries(ctx context.Context) ([]NeighborhoodSummary, error)
}

type plotRepository struct {
	db *bun.DB
}

func NewPlotRepository(db *bun.DB) PlotRepository {
	return &plotRepository{db: db}
}

func (r *plotRepository) GetByID(ctx context.Context, id int64) (*models.ResidentialPlot, error) {
	plot := new(models.ResidentialPlot)
	err := r.db.NewSelect().Model(plot).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "plot", ID: id}
		}
		return nil, fmt.Errorf("failed to get plot: %w", err)
	}
	return plot, nil
}

func (r *plotRepository) GetByLocation(ctx context.Context, neighborhoodID int64, plotNumber int) (*models.ResidentialPlot, error) {
	plot := new(models.ResidentialPlot)
	err := r.db.NewSelect().
		Model(plot).
		Where("neighborhood_id = ? AND plot_number = ?", neighborhoodID, plotNumber).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "plot", ID: fmt.Sprintf("%d/%d", neighborhoodID, plotNumber)}
		}
		return nil, fmt.Errorf("failed to get plot: %w", err)
	}
	return plot, nil
}

func (r *plotRepository) GetAvailable(ctx context.Context, neighborhoodID int64) ([]*models.ResidentialPlot, error) {
	var plots []*models.ResidentialPlot
	q := r.db.NewSelect().
		Model(&plots).
		Where("owner_character_id IS NULL")
	if neighborhoodID > 0 {
		q = q.Where("neighborhood_id = ?", neighborhoodID)
	}
	if err := q.Order("neighborhood_id ASC", "plot_number ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get available plots: %w", err)
	}
	return plots, nil
}

// debitCurrency subtracts amount from the player's currency inside tx,
// failing with InsufficientFundsError when the guarded update matches no row.
func debitCurrency(ctx context.Context, tx bun.Tx, playerID snowflake.ID, amount int64) error {
	res, err := tx.NewUpdate().
		Model((*models.FactionResources)(nil)).
		Set("currency = currency - ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("player_id = ? AND currency >= ?", playerID, amount).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to debit currency: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var available int64
		err := tx.NewSelect().
			Model((*models.FactionResources)(nil)).
			Column("currency").
			Where("player_id = ?", playerID).
			Scan(ctx, &available)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read currency balance: %w", err)
		}
		return &InsufficientFundsError{Resource: models.ResourceCurrency, Required: amount, Available: available}
	}
	return nil
}

// creditCurrency adds amount to the player's currency inside tx, creating
// the resources row when absent.
func creditCurrency(ctx context.Context, tx bun.Tx, playerID snowflake.ID, amount int64) error {
	now := time.Now()
	seed := &models.FactionResources{PlayerID: playerID, CreatedAt: now, UpdatedAt: now}
	if _, err := tx.NewInsert().Model(seed).On("CONFLICT (player_id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed faction resources: %w", err)
	}
	_, err := tx.NewUpdate().
		Model((*models.FactionResources)(nil)).
		Set("currency = currency + ?", amount).
		Set("updated_at = ?", now).
		Where("player_id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to credit currency: %w", err)
	}
	return nil
}

// Purchase claims an unowned plot for the buyer: debit currency, write the
// ownership fields and insert the owner occupancy, all in one transaction.
// plot must carry the new size, values, occupancy and maintenance fields.
func (r *plotRepository) Purchase(ctx context.Context, plot *models.ResidentialPlot, buyerCharacterID int64, buyerPlayerID snowflake.ID, price int64) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := debitCurrency(ctx, tx, buyerPlayerID, price); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model(plot).
			Set("owner_character_id = ?", buyerCharacterID).
			Set("size = ?", plot.Size).
			Set("tier = 1").
			Set("base_value = ?", plot.BaseValue).
			Set("current_value = ?", plot.CurrentValue).
			Set("max_occupants = ?", plot.MaxOccupants).
			Set("maintenance_cost = ?", plot.MaintenanceCost).
			Set("for_sale = false").
			Set("sale_price = 0").
			Set("updated_at = ?", time.Now()).
			Where("id = ? AND owner_character_id IS NULL", plot.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to claim plot: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &InvalidStateError{Entity: "plot", Reason: "plot is not available"}
		}

		occ := &models.PlotOccupant{
			PlotID:        plot.ID,
			CharacterID:   buyerCharacterID,
			OccupancyType: models.OccupancyOwner,
			MovedInAt:     time.Now(),
		}
		if _, err := tx.NewInsert().Model(occ).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert owner occupancy: %w", err)
		}
		return nil
	})
}

func (r *plotRepository) SetForSale(ctx context.Context, plotID int64, price int64) error {
	_, err := r.db.NewUpdate().
		Model((*models.ResidentialPlot)(nil)).
		Set("for_sale = true").
		Set("sale_price = ?", price).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", plotID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to list plot for sale: %w", err)
	}
	return nil
}

// TransferSale moves a for-sale plot to the buyer: debit buyer, credit
// seller, rewrite ownership, close every active occupancy and insert a fresh
// owner occupancy.
func (r *plotRepository) TransferSale(ctx context.Context, plot *models.ResidentialPlot, buyerCharacterID int64, buyerPlayerID, sellerPlayerID snowflake.ID, price int64) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := debitCurrency(ctx, tx, buyerPlayerID, price); err != nil {
			return err
		}
		if err := creditCurrency(ctx, tx, sellerPlayerID, price); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*models.ResidentialPlot)(nil)).
			Set("owner_character_id = ?", buyerCharacterID).
			Set("for_sale = false").
			Set("sale_price = 0").
			Set("current_value = ?", price).
			Set("updated_at = ?", time.Now()).
			Where("id = ? AND for_sale = true", plot.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to transfer plot: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &InvalidStateError{Entity: "plot", Reason: "plot is not for sale"}
		}

		now := time.Now()
		_, err = tx.NewUpdate().
			Model((*models.PlotOccupant)(nil)).
			Set("moved_out_at = ?", now).
			Where("plot_id = ? AND moved_out_at IS NULL", plot.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to close occupancies: %w", err)
		}

		occ := &models.PlotOccupant{
			PlotID:        plot.ID,
			CharacterID:   buyerCharacterID,
			OccupancyType: models.OccupancyOwner,
			MovedInAt:     now,
		}
		if _, err := tx.NewInsert().Model(occ).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert owner occupancy: %w", err)
		}
		return nil
	})
}

// Upgrade applies a precomputed tier upgrade, debiting the owner. The tier
// guard keeps a concurrent double-upgrade from applying twice.
func (r *plotRepository) Upgrade(ctx context.Context, plot *models.ResidentialPlot, ownerPlayerID snowflake.ID, up PlotUpgrade) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := debitCurrency(ctx, tx, ownerPlayerID, up.Cost); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*models.ResidentialPlot)(nil)).
			Set("tier = ?", up.NewTier).
			Set("max_occupants = ?", up.NewMaxOccupants).
			Set("maintenance_cost = ?", up.NewMaintenance).
			Set("current_value = ?", up.NewValue).
			Set("updated_at = ?", time.Now()).
			Where("id = ? AND tier = ?", plot.ID, up.NewTier-1).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upgrade plot: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &InvalidStateError{Entity: "plot", Reason: "plot tier changed during upgrade"}
		}
		return nil
	})
}

func (r *plotRepository) ActiveOccupants(ctx context.Context, plotID int64) ([]*models.PlotOccupant, error) {
	var occupants []*models.PlotOccupant
	err := r.db.NewSelect().
		Model(&occupants).
		Where("plot_id = ? AND moved_out_at IS NULL", plotID).
		Order("moved_in_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get occupants: %w", err)
	}
	return occupants, nil
}

func (r *plotRepository) AddOccupant(ctx context.Context, occ *models.PlotOccupant, agreement *models.RentAgreement) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(occ).Exec(ctx); err != nil {
			if IsUniqueViolation(err) {
				return &InvalidStateError{Entity: "occupant", Reason: "character already lives on this plot"}
			}
			return fmt.Errorf("failed to insert occupant: %w", err)
		}
		if agreement != nil {
			if _, err := tx.NewInsert().Model(agreement).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert rent agreement: %w", err)
			}
		}
		return nil
	})
}

func (r *plotRepository) PlotsByOwner(ctx context.Context, characterID int64) ([]PlotWithOccupancy, error) {
	var plots []*models.ResidentialPlot
	err := r.db.NewSelect().
		Model(&plots).
		Where("owner_character_id = ?", characterID).
		Order("neighborhood_id ASC", "plot_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get owned plots: %w", err)
	}
	if len(plots) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(plots))
	for i, p := range plots {
		ids[i] = p.ID
	}

	var counts []struct {
		PlotID int64 `bun:"plot_id"`
		Count  int   `bun:"count"`
	}
	err = r.db.NewSelect().
		Model((*models.PlotOccupant)(nil)).
		Column("plot_id").
		ColumnExpr("count(*) AS count").
		Where("plot_id IN (?) AND moved_out_at IS NULL", bun.In(ids)).
		Group("plot_id").
		Scan(ctx, &counts)
	if err != nil {
		return nil, fmt.Errorf("failed to count occupants: %w", err)
	}

	countByPlot := make(map[int64]int, len(counts))
	for _, c := range counts {
		countByPlot[c.PlotID] = c.Count
	}

	out := make([]PlotWithOccupancy, len(plots))
	for i, p := range plots {
		out[i] = PlotWithOccupancy{Plot: p, OccupantCount: countByPlot[p.ID]}
	}
	return out, nil
}

func (r *plotRepository) Neighborhoods(ctx context.Context) ([]*models.Neighborhood, error) {
	var neighborhoods []*models.Neighborhood
	err := r.db.NewSelect().
		Model(&neighborhoods).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get neighborhoods: %w", err)
	}
	return neighborhoods, nil
}

func (r *plotRepository) NeighborhoodSummaries(ctx context.Context) ([]NeighborhoodSummary, error) {
	neighborhoods, err := r.Neighborhoods(ctx)
	if err != nil {
		return nil, err
	}

	var counts []struct {
		NeighborhoodID int64 `bun:"neighborhood_id"`
		Total          int   `bun:"total"`
		Available      int   `bun:"available"`
	}
	err = r.db.NewSelect().
		Model((*models.ResidentialPlot)(nil)).
		Column("neighborhood_id").
		ColumnExpr("count(*) AS total").
		ColumnExpr("count(*) FILTER (WHERE owner_character_id IS NULL) AS available").
		Group("neighborhood_id").
		Scan(ctx, &counts)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate plots: %w", err)
	}

	byID := make(map[int64]struct{ total, available int }, len(counts))
	for _, c := range counts {
		byID[c.NeighborhoodID] = struct{ total, available int }{c.Total, c.Available}
	}

	out := make([]NeighborhoodSummary, len(neighborhoods))
	for i, nb := range neighborhoods {
		agg := byID[nb.ID]
		out[i] = NeighborhoodSummary{
			Neighborhood:   nb,
			TotalPlots:     agg.total,
			AvailablePlots: agg.available,
		}
	}
	return out, nil
}
