package district

import (
	"math"

	"github.com/factionrealms/factionbot/factionbot/database/models"
)

// BuildingSpec is a catalog entry for a guild structure: construction cost
// and the resource output of one collection at level 1.
type BuildingSpec struct {
	Name       string
	BaseCost   int64
	BaseOutput map[string]int64
}

var buildingCatalog = map[string]BuildingSpec{
	"workshop": {
		Name:       "Workshop",
		BaseCost:   2000,
		BaseOutput: map[string]int64{models.ResourceBuildingMaterials: 20},
	},
	"market_stall": {
		Name:       "Market Stall",
		BaseCost:   1500,
		BaseOutput: map[string]int64{models.ResourceCurrency: 50},
	},
	"data_center": {
		Name:       "Data Center",
		BaseCost:   4000,
		BaseOutput: map[string]int64{models.ResourceDataFragments: 15, models.ResourceElectricity: 10},
	},
	"greenhouse": {
		Name:       "Greenhouse",
		BaseCost:   2500,
		BaseOutput: map[string]int64{models.ResourceBiomass: 25, models.ResourceOrganicMatter: 10},
	},
	"artifact_vault": {
		Name:       "Artifact Vault",
		BaseCost:   8000,
		BaseOutput: map[string]int64{models.ResourceRareArtifacts: 1},
	},
}

var plotCosts = map[models.GuildPlotSize]int64{
	models.GuildPlotSmall:            1000,
	models.GuildPlotMedium:           2500,
	models.GuildPlotLarge:            5000,
	models.GuildPlotCommercialEstate: 10000,
}

// BuildingSpecFor returns the catalog entry for a building type.
func BuildingSpecFor(buildingType string) (BuildingSpec, bool) {
	spec, ok := buildingCatalog[buildingType]
	return spec, ok
}

// PlotCost returns the purchase cost for a guild plot size class.
func PlotCost(size models.GuildPlotSize) (int64, bool) {
	cost, ok := plotCosts[size]
	return cost, ok
}

// BuildingOutput scales a building's per-collection output by its level:
// each level past the first adds 20%, rounded down per resource.
func BuildingOutput(spec BuildingSpec, level int) map[string]int64 {
	mult := 1.0 + 0.2*float64(level-1)
	out := make(map[string]int64, len(spec.BaseOutput))
	for res, base := range spec.BaseOutput {
		out[res] = int64(math.Floor(float64(base) * mult))
	}
	return out
}

// PlotMaintenance computes the upkeep for a guild plot: 10% of base value
// scaled by tier, plus a flat building surcharge.
func PlotMaintenance(plot *models.GuildPlot) int64 {
	maintenance := int64(math.Floor(float64(plot.BaseValue) * 0.1 * (1.0 + 0.2*float64(plot.Tier-1))))
	if plot.BuildingType != nil {
		maintenance += 100
	}
	return maintenance
}
