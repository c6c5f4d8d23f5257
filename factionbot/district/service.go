package district

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/factionrealms/factionbot/factionbot/database/repositories"
	"github.com/factionrealms/factionbot/factionbot/economy"
)

// Service runs the guild commercial district: plot ownership, buildings,
// resource generation and the guild treasury.
type Service struct {
	plots repositories.GuildPlotRepository
}

func NewService(plots repositories.GuildPlotRepository) *Service {
	return &Service{plots: plots}
}

// CollectionResult reports one CollectResources run.
type CollectionResult struct {
	GuildID        snowflake.ID
	PlotsCollected int
	PlotsSkipped   int
	Totals         map[string]int64
}

// PlotStatistics aggregates a guild's district holdings.
type PlotStatistics struct {
	GuildID          snowflake.ID
	PlotCount        int
	TotalValue       int64
	BuildingCount    int
	TotalMaintenance int64
	BySize           map[models.GuildPlotSize]int
	ByTier           map[int]int
}

// PurchasePlot claims an unowned district plot for the guild, debiting the
// treasury by the size class cost.
func (s *Service) PurchasePlot(ctx context.Context, guildID snowflake.ID, plotNumber int, size models.GuildPlotSize, actorID snowflake.ID) (*models.GuildPlot, error) {
	cost, ok := PlotCost(size)
	if !ok {
		return nil, &repositories.InvalidArgumentError{Field: "plot size", Value: size}
	}

	plot, err := s.plots.GetByNumber(ctx, plotNumber)
	if err != nil {
		return nil, err
	}
	if plot.OwnerGuildID != nil {
		return nil, &repositories.InvalidStateError{Entity: "guild plot", Reason: "plot is already owned"}
	}

	plot.Size = size
	plot.BaseValue = cost
	plot.CurrentValue = cost

	if err := s.plots.Purchase(ctx, plot, guildID, actorID, cost); err != nil {
		return nil, err
	}

	slog.Info("Guild plot purchased",
		slog.String("type", "district"),
		slog.String("guild_id", guildID.String()),
		slog.Int("plot_number", plotNumber),
		slog.String("size", string(size)))

	plot.OwnerGuildID = &guildID
	plot.Tier = 1
	return plot, nil
}

// UpgradePlot raises a guild plot one tier: cost is half the current value,
// the new value is 1.5x, both rounded down.
func (s *Service) UpgradePlot(ctx context.Context, guildID snowflake.ID, plotID int64, actorID snowflake.ID) (*models.GuildPlot, error) {
	plot, err := s.ownedPlot(ctx, guildID, plotID)
	if err != nil {
		return nil, err
	}
	if plot.Tier >= models.MaxPlotTier {
		return nil, &repositories.InvalidStateError{Entity: "guild plot", Reason: "plot is already at max tier"}
	}

	cost := int64(math.Floor(float64(plot.CurrentValue) * 0.5))
	newValue := int64(math.Floor(float64(plot.CurrentValue) * 1.5))

	if err := s.plots.Upgrade(ctx, plot, actorID, cost, newValue); err != nil {
		return nil, err
	}

	plot.Tier++
	plot.CurrentValue = newValue
	return plot, nil
}

// BuildStructure raises a catalog building on an empty guild plot at level
// 1, debiting the construction cost.
func (s *Service) BuildStructure(ctx context.Context, plotID int64, buildingType string, guildID, actorID snowflake.ID) (*models.GuildPlot, error) {
	spec, ok := BuildingSpecFor(buildingType)
	if !ok {
		return nil, &repositories.InvalidArgumentError{Field: "building type", Value: buildingType}
	}

	plot, err := s.ownedPlot(ctx, guildID, plotID)
	if err != nil {
		return nil, err
	}
	if plot.BuildingType != nil {
		return nil, &repositories.InvalidStateError{Entity: "guild plot", Reason: "plot already has a building"}
	}

	if err := s.plots.Build(ctx, plot, buildingType, actorID, spec.BaseCost); err != nil {
		return nil, err
	}

	slog.Info("Structure built",
		slog.String("type", "district"),
		slog.String("guild_id", guildID.String()),
		slog.Int64("plot_id", plotID),
		slog.String("building", buildingType))

	plot.BuildingType = &buildingType
	plot.BuildingLevel = 1
	return plot, nil
}

// CollectResources gathers today's output from every guild building that
// has not been collected yet. Already-collected plots are skipped; zero
// eligible buildings is an error.
func (s *Service) CollectResources(ctx context.Context, guildID, actorID snowflake.ID) (*CollectionResult, error) {
	plots, err := s.plots.GetByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	day := economy.Today(time.Now())
	result := &CollectionResult{
		GuildID: guildID,
		Totals:  map[string]int64{},
	}

	for _, plot := range plots {
		if plot.BuildingType == nil {
			continue
		}
		spec, ok := BuildingSpecFor(*plot.BuildingType)
		if !ok {
			continue
		}

		output := BuildingOutput(spec, plot.BuildingLevel)
		recorded, err := s.plots.RecordCollection(ctx, guildID, plot.ID, day, output)
		if err != nil {
			return nil, err
		}
		if !recorded {
			result.PlotsSkipped++
			continue
		}
		result.PlotsCollected++
		for res, amount := range output {
			result.Totals[res] += amount
		}
	}

	if result.PlotsCollected == 0 {
		return nil, &repositories.InvalidStateError{
			Entity: "guild district",
			Reason: "no buildings eligible for collection today",
		}
	}

	slog.Info("Guild resources collected",
		slog.String("type", "district"),
		slog.String("guild_id", guildID.String()),
		slog.Int("plots", result.PlotsCollected),
		slog.Any("totals", result.Totals))
	return result, nil
}

// SellPlot releases a guild plot back to the market, crediting 70% of its
// current value to the treasury.
func (s *Service) SellPlot(ctx context.Context, guildID snowflake.ID, plotID int64, actorID snowflake.ID) (int64, error) {
	plot, err := s.ownedPlot(ctx, guildID, plotID)
	if err != nil {
		return 0, err
	}

	proceeds := int64(math.Floor(float64(plot.CurrentValue) * 0.7))
	if err := s.plots.Sell(ctx, plot, actorID, proceeds); err != nil {
		return 0, err
	}

	slog.Info("Guild plot sold",
		slog.String("type", "district"),
		slog.String("guild_id", guildID.String()),
		slog.Int64("plot_id", plotID),
		slog.Int64("proceeds", proceeds))
	return proceeds, nil
}

// GetPlotStatistics aggregates the guild's holdings: counts, value,
// maintenance and breakdowns by size and tier.
func (s *Service) GetPlotStatistics(ctx context.Context, guildID snowflake.ID) (*PlotStatistics, error) {
	plots, err := s.plots.GetByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	stats := &PlotStatistics{
		GuildID: guildID,
		BySize:  map[models.GuildPlotSize]int{},
		ByTier:  map[int]int{},
	}
	for _, plot := range plots {
		stats.PlotCount++
		stats.TotalValue += plot.CurrentValue
		stats.TotalMaintenance += PlotMaintenance(plot)
		stats.BySize[plot.Size]++
		stats.ByTier[plot.Tier]++
		if plot.BuildingType != nil {
			stats.BuildingCount++
		}
	}
	return stats, nil
}

// GetTreasury returns the guild treasury, creating it at zero on first
// access.
func (s *Service) GetTreasury(ctx context.Context, guildID snowflake.ID) (*models.GuildTreasury, error) {
	return s.plots.GetTreasury(ctx, guildID)
}

// DepositTreasury credits the guild treasury. Reward paths outside the
// district call this.
func (s *Service) DepositTreasury(ctx context.Context, guildID, actorID snowflake.ID, amount int64) error {
	if amount <= 0 {
		return &repositories.InvalidArgumentError{Field: "amount", Value: amount}
	}
	return s.plots.Deposit(ctx, guildID, actorID, amount)
}

// GetTransactions returns the guild's most recent district transactions.
func (s *Service) GetTransactions(ctx context.Context, guildID snowflake.ID, limit int) ([]*models.GuildTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.plots.Transactions(ctx, guildID, limit)
}

func (s *Service) ownedPlot(ctx context.Context, guildID snowflake.ID, plotID int64) (*models.GuildPlot, error) {
	plot, err := s.plots.GetByID(ctx, plotID)
	if err != nil {
		return nil, err
	}
	if plot.OwnerGuildID == nil || *plot.OwnerGuildID != guildID {
		return nil, &repositories.NotFoundError{Entity: "guild plot", ID: plotID}
	}
	return plot, nil
}
