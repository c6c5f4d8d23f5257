package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/uptrace/bun"
)

type StatsRepository interface {
	GetOrCreate(ctx context.Context, playerID snowflake.ID) (*models.PlayerStats, error)
	Save(ctx context.Context, stats *models.PlayerStats) error
	TopByVariety(ctx context.Context, limit int) ([]*models.PlayerStats, error)
	TopByHardcoreRecency(ctx context.Context, limit int) ([]*models.PlayerStats, error)
	TopByTotalGames(ctx context.Context, limit int) ([]*models.PlayerStats, error)
}

type statsRepository struct {
	db *bun.DB
}

func NewStatsRepository(db *bun.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) GetOrCreate(ctx context.Context, playerID snowflake.ID) (*models.PlayerStats, error) {
	now := time.Now()
	seed := &models.PlayerStats{
		PlayerID:      playerID,
		Games:         map[string]models.GameStats{},
		ActivityLog:   map[string]int64{},
		ActivityLevel: "casual",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := r.db.NewInsert().
		Model(seed).
		On("CONFLICT (player_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize player stats: %w", err)
	}

	stats := new(models.PlayerStats)
	if err := r.db.NewSelect().Model(stats).Where("player_id = ?", playerID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}
	if stats.Games == nil {
		stats.Games = map[string]models.GameStats{}
	}
	if stats.ActivityLog == nil {
		stats.ActivityLog = map[string]int64{}
	}
	return stats, nil
}

func (r *statsRepository) Save(ctx context.Context, stats *models.PlayerStats) error {
	stats.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().
		Model(stats).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save player stats: %w", err)
	}
	return nil
}

func (r *statsRepository) TopByVariety(ctx context.Context, limit int) ([]*models.PlayerStats, error) {
	var rows []*models.PlayerStats
	err := r.db.NewSelect().
		Model(&rows).
		Order("variety_score DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get variety leaderboard: %w", err)
	}
	return rows, nil
}

func (r *statsRepository) TopByHardcoreRecency(ctx context.Context, limit int) ([]*models.PlayerStats, error) {
	var rows []*models.PlayerStats
	err := r.db.NewSelect().
		Model(&rows).
		Where("activity_level = 'hardcore'").
		Order("calculated_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity leaderboard: %w", err)
	}
	return rows, nil
}

func (r *statsRepository) TopByTotalGames(ctx context.Context, limit int) ([]*models.PlayerStats, error) {
	var rows []*models.PlayerStats
	err := r.db.NewSelect().
		Model(&rows).
		Order("total_games DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get games leaderboard: %w", err)
	}
	return rows, nil
}
