package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PlotSize string

const (
	PlotSizeSmall  PlotSize = "small"
	PlotSizeMedium PlotSize = "medium"
	PlotSizeLarge  PlotSize = "large"
	PlotSizeEstate PlotSize = "estate"
)

type OccupancyType string

const (
	OccupancyOwner  OccupancyType = "owner"
	OccupancyRenter OccupancyType = "renter"
)

const MaxPlotTier = 5

type Neighborhood struct {
	bun.BaseModel `bun:"table:neighborhoods,alias:nb"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name,notnull,unique"`
	Description string `bun:"description"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ResidentialPlot is a housing plot inside a neighborhood. A plot either has
// an owner character or is available; for_sale only ever applies to owned
// plots.
type ResidentialPlot struct {
	bun.BaseModel `bun:"table:residential_plots,alias:rp"`

	ID               int64    `bun:"id,pk,autoincrement"`
	NeighborhoodID   int64    `bun:"neighborhood_id,notnull"`
	PlotNumber       int      `bun:"plot_number,notnull"`
	OwnerCharacterID *int64   `bun:"owner_character_id"`
	Size             PlotSize `bun:"size"`
	Tier             int      `bun:"tier,notnull,default:1"`
	BaseValue        int64    `bun:"base_value,notnull,default:0"`
	CurrentValue     int64    `bun:"current_value,notnull,default:0"`
	MaxOccupants     int      `bun:"max_occupants,notnull,default:0"`
	MaintenanceCost  int64    `bun:"maintenance_cost,notnull,default:0"`
	ForSale          bool     `bun:"for_sale,notnull,default:false"`
	SalePrice        int64    `bun:"sale_price,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// PlotOccupant joins a character to a plot. A null moved_out_at marks a
// current resident; at most one active row per (plot, character).
type PlotOccupant struct {
	bun.BaseModel `bun:"table:plot_occupants,alias:po"`

	ID            int64         `bun:"id,pk,autoincrement"`
	PlotID        int64         `bun:"plot_id,notnull"`
	CharacterID   int64         `bun:"character_id,notnull"`
	OccupancyType OccupancyType `bun:"occupancy_type,notnull"`
	RentAmount    int64         `bun:"rent_amount,notnull,default:0"`
	MovedInAt     time.Time     `bun:"moved_in_at,notnull,default:current_timestamp"`
	MovedOutAt    *time.Time    `bun:"moved_out_at"`
}

// RentAgreement links a renter to a landlord for a plot. Agreements are
// recorded on invite; no collection path consumes them yet.
type RentAgreement struct {
	bun.BaseModel `bun:"table:rent_agreements,alias:ra"`

	ID                  int64     `bun:"id,pk,autoincrement"`
	PlotID              int64     `bun:"plot_id,notnull"`
	RenterCharacterID   int64     `bun:"renter_character_id,notnull"`
	LandlordCharacterID int64     `bun:"landlord_character_id,notnull"`
	Amount              int64     `bun:"amount,notnull"`
	CreatedAt           time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
