package housing

import (
	"context"
	"log/slog"
	"time"

	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/factionrealms/factionbot/factionbot/database/repositories"
)

// Service runs the residential plot market: purchase, resale, upgrades and
// occupancy.
type Service struct {
	plots      repositories.PlotRepository
	characters repositories.CharacterRepository
}

func NewService(plots repositories.PlotRepository, characters repositories.CharacterRepository) *Service {
	return &Service{plots: plots, characters: characters}
}

// PlotDetails is a plot with its current residents.
type PlotDetails struct {
	Plot      *models.ResidentialPlot
	Occupants []*models.PlotOccupant
}

// PurchasePlot claims an unowned plot for the character, debiting the
// owner's currency and recording the owner occupancy atomically.
func (s *Service) PurchasePlot(ctx context.Context, characterID, neighborhoodID int64, plotNumber int, size models.PlotSize) (*models.ResidentialPlot, error) {
	spec, ok := SpecForSize(size)
	if !ok {
		return nil, &repositories.InvalidArgumentError{Field: "plot size", Value: size}
	}

	ch, err := s.characters.GetByID(ctx, characterID)
	if err != nil {
		return nil, err
	}

	plot, err := s.plots.GetByLocation(ctx, neighborhoodID, plotNumber)
	if err != nil {
		return nil, err
	}
	if plot.OwnerCharacterID != nil {
		return nil, &repositories.InvalidStateError{Entity: "plot", Reason: "plot is already owned"}
	}

	plot.Size = size
	plot.BaseValue = spec.BasePrice
	plot.CurrentValue = spec.BasePrice
	plot.MaxOccupants = spec.MaxOccupants
	plot.MaintenanceCost = spec.Maintenance

	if err := s.plots.Purchase(ctx, plot, ch.ID, ch.PlayerID, spec.BasePrice); err != nil {
		return nil, err
	}

	slog.Info("Plot purchased",
		slog.String("type", "housing"),
		slog.Int64("plot_id", plot.ID),
		slog.Int64("character_id", ch.ID),
		slog.String("size", string(size)))

	plot.OwnerCharacterID = &ch.ID
	plot.Tier = 1
	return plot, nil
}

// ListPlotForSale flags an owned plot for sale at the asking price.
func (s *Service) ListPlotForSale(ctx context.Context, characterID, plotID, price int64) error {
	plot, err := s.plots.GetByID(ctx, plotID)
	if err != nil {
		return err
	}
	if plot.OwnerCharacterID == nil || *plot.OwnerCharacterID != characterID {
		return &repositories.NotFoundError{Entity: "owned plot", ID: plotID}
	}

	return s.plots.SetForSale(ctx, plotID, price)
}

// BuyPlotForSale transfers a for-sale plot to the buyer at the asking
// price: debit buyer, credit seller, close every current occupancy and move
// the buyer in as owner.
func (s *Service) BuyPlotForSale(ctx context.Context, characterID, plotID int64) (*models.ResidentialPlot, error) {
	plot, err := s.plots.GetByID(ctx, plotID)
	if err != nil {
		return nil, err
	}
	if !plot.ForSale {
		return nil, &repositories.InvalidStateError{Entity: "plot", Reason: "plot is not for sale"}
	}
	if plot.OwnerCharacterID != nil && *plot.OwnerCharacterID == characterID {
		return nil, &repositories.InvalidStateError{Entity: "plot", Reason: "cannot buy your own plot"}
	}

	buyer, err := s.characters.GetByID(ctx, characterID)
	if err != nil {
		return nil, err
	}
	seller, err := s.characters.GetByID(ctx, *plot.OwnerCharacterID)
	if err != nil {
		return nil, err
	}

	price := plot.SalePrice
	if err := s.plots.TransferSale(ctx, plot, buyer.ID, buyer.PlayerID, seller.PlayerID, price); err != nil {
		return nil, err
	}

	slog.Info("Plot sold",
		slog.String("type", "housing"),
		slog.Int64("plot_id", plot.ID),
		slog.Int64("seller", seller.ID),
		slog.Int64("buyer", buyer.ID),
		slog.Int64("price", price))

	plot.OwnerCharacterID = &buyer.ID
	plot.ForSale = false
	plot.SalePrice = 0
	plot.CurrentValue = price
	return plot, nil
}

// UpgradePlot raises an owned plot one tier, scaling occupancy and
// maintenance and debiting the upgrade cost.
func (s *Service) UpgradePlot(ctx context.Context, characterID, plotID int64) (*models.ResidentialPlot, error) {
	plot, err := s.plots.GetByID(ctx, plotID)
	if err != nil {
		return nil, err
	}
	if plot.OwnerCharacterID == nil || *plot.OwnerCharacterID != characterID {
		return nil, &repositories.NotFoundError{Entity: "owned plot", ID: plotID}
	}
	if plot.Tier >= models.MaxPlotTier {
		return nil, &repositories.InvalidStateError{Entity: "plot", Reason: "plot is already at max tier"}
	}

	owner, err := s.characters.GetByID(ctx, characterID)
	if err != nil {
		return nil, err
	}

	up := repositories.PlotUpgrade{
		NewTier:         plot.Tier + 1,
		Cost:            UpgradeCost(plot.BaseValue, plot.Tier+1),
		NewMaxOccupants: UpgradedOccupants(plot.MaxOccupants),
		NewMaintenance:  UpgradedMaintenance(plot.MaintenanceCost),
	}
	up.NewValue = plot.CurrentValue + up.Cost

	if err := s.plots.Upgrade(ctx, plot, owner.PlayerID, up); err != nil {
		return nil, err
	}

	slog.Info("Plot upgraded",
		slog.String("type", "housing"),
		slog.Int64("plot_id", plot.ID),
		slog.Int("new_tier", up.NewTier),
		slog.Int64("cost", up.Cost))

	plot.Tier = up.NewTier
	plot.MaxOccupants = up.NewMaxOccupants
	plot.MaintenanceCost = up.NewMaintenance
	plot.CurrentValue = up.NewValue
	return plot, nil
}

// InviteOccupant moves another character onto an owned plot as a renter.
// A rent agreement is recorded when rent is set; nothing collects it yet.
func (s *Service) InviteOccupant(ctx context.Context, ownerCharacterID, plotID, inviteeCharacterID, rent int64) error {
	plot, err := s.plots.GetByID(ctx, plotID)
	if err != nil {
		return err
	}
	if plot.OwnerCharacterID == nil || *plot.OwnerCharacterID != ownerCharacterID {
		return &repositories.NotFoundError{Entity: "owned plot", ID: plotID}
	}

	if _, err := s.characters.GetByID(ctx, inviteeCharacterID); err != nil {
		return err
	}

	occupants, err := s.plots.ActiveOccupants(ctx, plotID)
	if err != nil {
		return err
	}
	if len(occupants) >= plot.MaxOccupants {
		return &repositories.InvalidStateError{Entity: "plot", Reason: "plot is at max occupancy"}
	}
	for _, occ := range occupants {
		if occ.CharacterID == inviteeCharacterID {
			return &repositories.InvalidStateError{Entity: "occupant", Reason: "character already lives on this plot"}
		}
	}

	occ := &models.PlotOccupant{
		PlotID:        plotID,
		CharacterID:   inviteeCharacterID,
		OccupancyType: models.OccupancyRenter,
		RentAmount:    rent,
		MovedInAt:     time.Now(),
	}
	var agreement *models.RentAgreement
	if rent > 0 {
		agreement = &models.RentAgreement{
			PlotID:              plotID,
			RenterCharacterID:   inviteeCharacterID,
			LandlordCharacterID: ownerCharacterID,
			Amount:              rent,
			CreatedAt:           time.Now(),
		}
	}
	return s.plots.AddOccupant(ctx, occ, agreement)
}

// GetAvailablePlots lists unowned plots, optionally scoped to one
// neighborhood (0 = all).
func (s *Service) GetAvailablePlots(ctx context.Context, neighborhoodID int64) ([]*models.ResidentialPlot, error) {
	return s.plots.GetAvailable(ctx, neighborhoodID)
}

// GetCharacterPlots lists the character's plots with live occupant counts.
func (s *Service) GetCharacterPlots(ctx context.Context, characterID int64) ([]repositories.PlotWithOccupancy, error) {
	return s.plots.PlotsByOwner(ctx, characterID)
}

// GetPlotDetails returns a plot with its current residents.
func (s *Service) GetPlotDetails(ctx context.Context, plotID int64) (*PlotDetails, error) {
	plot, err := s.plots.GetByID(ctx, plotID)
	if err != nil {
		return nil, err
	}
	occupants, err := s.plots.ActiveOccupants(ctx, plotID)
	if err != nil {
		return nil, err
	}
	return &PlotDetails{Plot: plot, Occupants: occupants}, nil
}

// GetNeighborhoodsWithPlots aggregates available/total plot counts per
// neighborhood.
func (s *Service) GetNeighborhoodsWithPlots(ctx context.Context) ([]repositories.NeighborhoodSummary, error) {
	return s.plots.NeighborhoodSummaries(ctx)
}
