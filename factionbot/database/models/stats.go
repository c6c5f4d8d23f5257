package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// GameStats aggregates plays of a single game type.
type GameStats struct {
	Plays      int64     `json:"plays"`
	TotalScore int64     `json:"total_score"`
	BestScore  int64     `json:"best_score"`
	LastPlayed time.Time `json:"last_played"`
}

// PlayerStats is the cross-activity counter record for a player. Counters
// are append-only merges; variety score and activity level are derived on
// recalculation.
type PlayerStats struct {
	bun.BaseModel `bun:"table:player_stats,alias:ps"`

	ID       int64        `bun:"id,pk,autoincrement"`
	PlayerID snowflake.ID `bun:"player_id,notnull,unique"`

	Games         map[string]GameStats `bun:"games,type:jsonb"`
	TotalGames    int64                `bun:"total_games,notnull,default:0"`
	SocialCount   int64                `bun:"social_count,notnull,default:0"`
	FactionCount  int64                `bun:"faction_count,notnull,default:0"`
	ResourceCount int64                `bun:"resource_count,notnull,default:0"`
	CareCount     int64                `bun:"care_count,notnull,default:0"`

	// ActivityLog maps an ISO date (YYYY-MM-DD) to that day's activity
	// count; only the trailing window is retained.
	ActivityLog map[string]int64 `bun:"activity_log,type:jsonb"`

	VarietyScore  float64   `bun:"variety_score,notnull,default:0"`
	ActivityLevel string    `bun:"activity_level,notnull,default:'casual'"`
	CalculatedAt  time.Time `bun:"calculated_at"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
