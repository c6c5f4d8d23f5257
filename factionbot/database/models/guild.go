package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

type GuildPlotSize string

const (
	GuildPlotSmall            GuildPlotSize = "small"
	GuildPlotMedium           GuildPlotSize = "medium"
	GuildPlotLarge            GuildPlotSize = "large"
	GuildPlotCommercialEstate GuildPlotSize = "commercial_estate"
)

type GuildTransactionAction string

const (
	GuildActionPurchase GuildTransactionAction = "purchase"
	GuildActionUpgrade  GuildTransactionAction = "upgrade"
	GuildActionBuild    GuildTransactionAction = "build"
	GuildActionSell     GuildTransactionAction = "sell"
	GuildActionCollect  GuildTransactionAction = "collect"
	GuildActionDeposit  GuildTransactionAction = "deposit"
)

// GuildPlot is a commercial district plot owned by a guild. BuildingLevel is
// 0 while no building exists; a set building type implies level >= 1.
type GuildPlot struct {
	bun.BaseModel `bun:"table:guild_plots,alias:gp"`

	ID            int64         `bun:"id,pk,autoincrement"`
	PlotNumber    int           `bun:"plot_number,notnull,unique"`
	OwnerGuildID  *snowflake.ID `bun:"owner_guild_id"`
	Size          GuildPlotSize `bun:"size"`
	Tier          int           `bun:"tier,notnull,default:1"`
	BaseValue     int64         `bun:"base_value,notnull,default:0"`
	CurrentValue  int64         `bun:"current_value,notnull,default:0"`
	BuildingType  *string       `bun:"building_type"`
	BuildingLevel int           `bun:"building_level,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// GuildTreasury is the guild's currency balance. Plot purchases and builds
// debit it, sales credit it.
type GuildTreasury struct {
	bun.BaseModel `bun:"table:guild_treasuries,alias:gt"`

	ID       int64        `bun:"id,pk,autoincrement"`
	GuildID  snowflake.ID `bun:"guild_id,notnull,unique"`
	Balance  int64        `bun:"balance,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type GuildTransaction struct {
	bun.BaseModel `bun:"table:guild_transactions,alias:gtx"`

	ID        int64                  `bun:"id,pk,autoincrement"`
	Reference string                 `bun:"reference,notnull,unique"`
	GuildID   snowflake.ID           `bun:"guild_id,notnull"`
	PlotID    *int64                 `bun:"plot_id"`
	Action    GuildTransactionAction `bun:"action,notnull"`
	Amount    int64                  `bun:"amount,notnull"`
	ActorID   snowflake.ID           `bun:"actor_id,notnull"`
	Details   map[string]any         `bun:"details,type:jsonb"`
	CreatedAt time.Time              `bun:"created_at,notnull,default:current_timestamp"`
}

// ResourceGenerationLog records one building-output collection per plot per
// day. The (plot_id, day) unique constraint is the idempotency guard.
type ResourceGenerationLog struct {
	bun.BaseModel `bun:"table:resource_generation_logs,alias:rgl"`

	ID      int64            `bun:"id,pk,autoincrement"`
	GuildID snowflake.ID     `bun:"guild_id,notnull"`
	PlotID  int64            `bun:"plot_id,notnull"`
	Day     time.Time        `bun:"day,type:date,notnull"`
	Output  map[string]int64 `bun:"output,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
