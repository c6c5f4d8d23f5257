package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// Resource column names. These double as the allow-list for every dynamic
// balance update; a key outside this set never reaches SQL.
const (
	ResourceFood              = "food"
	ResourceWater             = "water"
	ResourceEnergy            = "energy"
	ResourceDataFragments     = "data_fragments"
	ResourceElectricity       = "electricity"
	ResourceBiomass           = "biomass"
	ResourceOrganicMatter     = "organic_matter"
	ResourceCurrency          = "currency"
	ResourceBuildingMaterials = "building_materials"
	ResourceRareArtifacts     = "rare_artifacts"
	ResourceValue             = "value"
)

// KnownResources is the full set of balance columns on faction_resources.
var KnownResources = []string{
	ResourceFood,
	ResourceWater,
	ResourceEnergy,
	ResourceDataFragments,
	ResourceElectricity,
	ResourceBiomass,
	ResourceOrganicMatter,
	ResourceCurrency,
	ResourceBuildingMaterials,
	ResourceRareArtifacts,
	ResourceValue,
}

func IsKnownResource(name string) bool {
	for _, r := range KnownResources {
		if r == name {
			return true
		}
	}
	return false
}

// FactionResources holds every resource balance for a player. One row per
// player; balances never go negative.
type FactionResources struct {
	bun.BaseModel `bun:"table:faction_resources,alias:fres"`

	ID       int64        `bun:"id,pk,autoincrement"`
	PlayerID snowflake.ID `bun:"player_id,notnull,unique"`

	Food              int64 `bun:"food,notnull,default:0"`
	Water             int64 `bun:"water,notnull,default:0"`
	Energy            int64 `bun:"energy,notnull,default:0"`
	DataFragments     int64 `bun:"data_fragments,notnull,default:0"`
	Electricity       int64 `bun:"electricity,notnull,default:0"`
	Biomass           int64 `bun:"biomass,notnull,default:0"`
	OrganicMatter     int64 `bun:"organic_matter,notnull,default:0"`
	Currency          int64 `bun:"currency,notnull,default:0"`
	BuildingMaterials int64 `bun:"building_materials,notnull,default:0"`
	RareArtifacts     int64 `bun:"rare_artifacts,notnull,default:0"`
	Value             int64 `bun:"value,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Balances returns the balances as a map keyed by resource column name.
func (fr *FactionResources) Balances() map[string]int64 {
	return map[string]int64{
		ResourceFood:              fr.Food,
		ResourceWater:             fr.Water,
		ResourceEnergy:            fr.Energy,
		ResourceDataFragments:     fr.DataFragments,
		ResourceElectricity:       fr.Electricity,
		ResourceBiomass:           fr.Biomass,
		ResourceOrganicMatter:     fr.OrganicMatter,
		ResourceCurrency:          fr.Currency,
		ResourceBuildingMaterials: fr.BuildingMaterials,
		ResourceRareArtifacts:     fr.RareArtifacts,
		ResourceValue:             fr.Value,
	}
}

// ResourceConsumptionLog records one daily-consumption attempt per character
// per day. The (character_id, day) unique constraint is the idempotency
// guard: an insert conflict means the day was already processed.
type ResourceConsumptionLog struct {
	bun.BaseModel `bun:"table:resource_consumption_logs,alias:rcl"`

	ID           int64            `bun:"id,pk,autoincrement"`
	CharacterID  int64            `bun:"character_id,notnull"`
	Day          time.Time        `bun:"day,type:date,notnull"`
	Faction      Faction          `bun:"faction,notnull"`
	Costs        map[string]int64 `bun:"costs,type:jsonb"`
	AutoDeducted bool             `bun:"auto_deducted,notnull,default:false"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
