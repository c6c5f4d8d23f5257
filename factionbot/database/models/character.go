package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

type Faction string

const (
	FactionHuman  Faction = "human"
	FactionAI     Faction = "ai"
	FactionNature Faction = "nature"
)

// AllFactions lists every playable faction, in display order.
var AllFactions = []Faction{FactionHuman, FactionAI, FactionNature}

func (f Faction) Valid() bool {
	switch f {
	case FactionHuman, FactionAI, FactionNature:
		return true
	}
	return false
}

type LifeStage string

const (
	LifeStageBaby  LifeStage = "baby"
	LifeStageChild LifeStage = "child"
	LifeStageTeen  LifeStage = "teen"
	LifeStageAdult LifeStage = "adult"
)

// LifeStageForAge derives the life stage from an age in years. The stage is
// never stored independently of age; callers must recompute it whenever age
// changes.
func LifeStageForAge(age int) LifeStage {
	switch {
	case age < 2:
		return LifeStageBaby
	case age < 12:
		return LifeStageChild
	case age < 18:
		return LifeStageTeen
	default:
		return LifeStageAdult
	}
}

type Character struct {
	bun.BaseModel `bun:"table:characters,alias:ch"`

	ID             int64             `bun:"id,pk,autoincrement"`
	PlayerID       snowflake.ID      `bun:"player_id,notnull"`
	Name           string            `bun:"name,notnull"`
	BirthFaction   Faction           `bun:"birth_faction,notnull"`
	CurrentFaction Faction           `bun:"current_faction,notnull"`
	Active         bool              `bun:"active,notnull,default:false"`
	Alive          bool              `bun:"alive,notnull,default:true"`
	Age            int               `bun:"age,notnull,default:0"`
	LifeStage      LifeStage         `bun:"life_stage,notnull"`
	Traits         map[string]string `bun:"traits,type:jsonb"`
	Parent1ID      *int64            `bun:"parent1_id"`
	Parent2ID      *int64            `bun:"parent2_id"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
