package factionbot

import (
	"github.com/factionrealms/factionbot/factionbot/database"
	"github.com/factionrealms/factionbot/factionbot/database/repositories"
	"github.com/factionrealms/factionbot/factionbot/district"
	"github.com/factionrealms/factionbot/factionbot/economy"
	"github.com/factionrealms/factionbot/factionbot/housing"
	"github.com/factionrealms/factionbot/factionbot/ledger"
	"github.com/factionrealms/factionbot/factionbot/stats"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

// Bot aggregates the database handle, repositories and domain services the
// command layer operates on.
type Bot struct {
	Cfg     Config
	Version string
	Commit  string
	DB      *database.DB

	CharacterRepository   repositories.CharacterRepository
	ResourceRepository    repositories.ResourceRepository
	PlotRepository        repositories.PlotRepository
	GuildPlotRepository   repositories.GuildPlotRepository
	StatsRepository       repositories.StatsRepository
	AchievementRepository repositories.AchievementRepository

	EconomyEngine   *economy.Engine
	LedgerService   *ledger.Service
	HousingService  *housing.Service
	DistrictService *district.Service
	StatsService    *stats.Service
}

// SetupServices wires repositories and services over an open database
// handle. The handle must already be connected.
func (b *Bot) SetupServices() {
	bunDB := b.DB.BunDB()

	b.CharacterRepository = repositories.NewCharacterRepository(bunDB)
	b.ResourceRepository = repositories.NewResourceRepository(bunDB)
	b.PlotRepository = repositories.NewPlotRepository(bunDB)
	b.GuildPlotRepository = repositories.NewGuildPlotRepository(bunDB)
	b.StatsRepository = repositories.NewStatsRepository(bunDB)
	b.AchievementRepository = repositories.NewAchievementRepository(bunDB)

	b.EconomyEngine = economy.NewEngine(b.CharacterRepository, b.ResourceRepository)
	b.LedgerService = ledger.NewService(
		b.CharacterRepository,
		b.ResourceRepository,
		b.AchievementRepository,
		b.EconomyEngine,
	)
	b.HousingService = housing.NewService(b.PlotRepository, b.CharacterRepository)
	b.DistrictService = district.NewService(b.GuildPlotRepository)
	b.StatsService = stats.NewService(b.StatsRepository)
}

// Close releases the database handle.
func (b *Bot) Close() {
	if b.DB != nil {
		b.DB.Close()
	}
}
