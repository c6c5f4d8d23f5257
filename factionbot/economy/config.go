package economy

import (
	"github.com/factionrealms/factionbot/factionbot/database/models"
)

// Daily upkeep per faction. These are fixed game rules, not tunables.
var dailyCosts = map[models.Faction]map[string]int64{
	models.FactionHuman: {
		models.ResourceFood:  10,
		models.ResourceWater: 5,
	},
	models.FactionAI: {
		models.ResourceEnergy:        8,
		models.ResourceDataFragments: 3,
		models.ResourceElectricity:   5,
	},
	models.FactionNature: {
		models.ResourceBiomass:       12,
		models.ResourceOrganicMatter: 6,
	},
}

// Faction-exclusive resource types.
var exclusiveResources = map[models.Faction][]string{
	models.FactionHuman:  {models.ResourceFood, models.ResourceWater},
	models.FactionAI:     {models.ResourceEnergy, models.ResourceDataFragments, models.ResourceElectricity},
	models.FactionNature: {models.ResourceBiomass, models.ResourceOrganicMatter},
}

// universalResources are held by every faction.
var universalResources = []string{
	models.ResourceCurrency,
	models.ResourceBuildingMaterials,
	models.ResourceRareArtifacts,
	models.ResourceValue,
}

// resourceUnitValues is a fixed valuation per unit, used for the weighted
// total in resource stats. A valuation, not a market price.
var resourceUnitValues = map[string]int64{
	models.ResourceFood:              2,
	models.ResourceWater:             1,
	models.ResourceEnergy:            3,
	models.ResourceDataFragments:     8,
	models.ResourceElectricity:       2,
	models.ResourceBiomass:           2,
	models.ResourceOrganicMatter:     3,
	models.ResourceCurrency:          1,
	models.ResourceBuildingMaterials: 5,
	models.ResourceRareArtifacts:     100,
	models.ResourceValue:             1,
}

// DailyCosts returns a copy of the faction's daily cost map.
func DailyCosts(faction models.Faction) map[string]int64 {
	costs := dailyCosts[faction]
	out := make(map[string]int64, len(costs))
	for k, v := range costs {
		out[k] = v
	}
	return out
}

// AllowedResources returns the resource types a faction can hold: its
// exclusive resources plus the universal set.
func AllowedResources(faction models.Faction) []string {
	excl := exclusiveResources[faction]
	out := make([]string, 0, len(excl)+len(universalResources))
	out = append(out, excl...)
	out = append(out, universalResources...)
	return out
}

// TotalValue computes the weighted sum of the given balances using the fixed
// unit valuations.
func TotalValue(balances map[string]int64) int64 {
	var total int64
	for res, amount := range balances {
		total += amount * resourceUnitValues[res]
	}
	return total
}

// CanAfford reports whether every cost in costs is covered by balances.
func CanAfford(balances, costs map[string]int64) bool {
	for res, cost := range costs {
		if balances[res] < cost {
			return false
		}
	}
	return true
}
