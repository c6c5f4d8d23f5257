package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// FactionEvent is a single faction-adoption entry in a player's history log.
type FactionEvent struct {
	Faction             Faction   `json:"faction"`
	Timestamp           time.Time `json:"timestamp"`
	Reason              string    `json:"reason"`
	CharacterID         int64     `json:"character_id"`
	PreviousCharacterID *int64    `json:"previous_character_id,omitempty"`
}

// FactionRecord tracks a player's current faction, purity and the ordered
// history of faction adoptions. One row per player.
type FactionRecord struct {
	bun.BaseModel `bun:"table:faction_records,alias:fr"`

	ID             int64          `bun:"id,pk,autoincrement"`
	PlayerID       snowflake.ID   `bun:"player_id,notnull,unique"`
	CurrentFaction Faction        `bun:"current_faction,notnull"`
	Purity         float64        `bun:"purity,notnull,default:1.0"`
	History        []FactionEvent `bun:"history,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type CharacterSwitchLog struct {
	bun.BaseModel `bun:"table:character_switch_logs,alias:csl"`

	ID              int64        `bun:"id,pk,autoincrement"`
	PlayerID        snowflake.ID `bun:"player_id,notnull"`
	FromCharacterID int64        `bun:"from_character_id,notnull"`
	ToCharacterID   int64        `bun:"to_character_id,notnull"`
	SwitchedAt      time.Time    `bun:"switched_at,notnull,default:current_timestamp"`
}
