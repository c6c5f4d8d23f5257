package housing

import (
	"math"

	"github.com/factionrealms/factionbot/factionbot/database/models"
)

// SizeSpec is the fixed pricing row for a plot size class.
type SizeSpec struct {
	BasePrice    int64
	MaxOccupants int
	Maintenance  int64
}

var sizeSpecs = map[models.PlotSize]SizeSpec{
	models.PlotSizeSmall:  {BasePrice: 1000, MaxOccupants: 2, Maintenance: 50},
	models.PlotSizeMedium: {BasePrice: 2500, MaxOccupants: 4, Maintenance: 125},
	models.PlotSizeLarge:  {BasePrice: 5000, MaxOccupants: 6, Maintenance: 250},
	models.PlotSizeEstate: {BasePrice: 10000, MaxOccupants: 10, Maintenance: 500},
}

var tierMultipliers = map[int]float64{
	1: 1.0,
	2: 1.5,
	3: 2.0,
	4: 2.5,
	5: 3.0,
}

// SpecForSize returns the pricing spec for a size class.
func SpecForSize(size models.PlotSize) (SizeSpec, bool) {
	spec, ok := sizeSpecs[size]
	return spec, ok
}

// UpgradeCost computes the currency cost of moving a plot to newTier.
func UpgradeCost(baseValue int64, newTier int) int64 {
	return int64(math.Floor(float64(baseValue) * 0.5 * tierMultipliers[newTier]))
}

// UpgradedOccupants scales a plot's occupant cap for one tier step.
func UpgradedOccupants(current int) int {
	return int(math.Floor(float64(current) * 1.2))
}

// UpgradedMaintenance scales a plot's maintenance cost for one tier step.
func UpgradedMaintenance(current int64) int64 {
	return int64(math.Floor(float64(current) * 1.3))
}
