package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

type AchievementRequirement string

const (
	RequirementPurityDuration   AchievementRequirement = "purity_duration"
	RequirementSwitchCount      AchievementRequirement = "switch_count"
	RequirementLineageDepth     AchievementRequirement = "lineage_depth"
	RequirementBalancedDuration AchievementRequirement = "balanced_purity_duration"
)

// AchievementDefinition is a seeded catalog row describing one faction
// achievement and the rule that earns it.
type AchievementDefinition struct {
	bun.BaseModel `bun:"table:achievement_definitions,alias:ad"`

	ID          string                 `bun:"id,pk"`
	Name        string                 `bun:"name,notnull"`
	Description string                 `bun:"description,notnull"`
	Requirement AchievementRequirement `bun:"requirement,notnull"`
	Threshold   int                    `bun:"threshold,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type PlayerAchievement struct {
	bun.BaseModel `bun:"table:player_achievements,alias:pa"`

	ID            int64        `bun:"id,pk,autoincrement"`
	PlayerID      snowflake.ID `bun:"player_id,notnull"`
	AchievementID string       `bun:"achievement_id,notnull"`
	EarnedAt      time.Time    `bun:"earned_at,notnull,default:current_timestamp"`
}
