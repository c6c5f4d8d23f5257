package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/uptrace/bun"
)

type AchievementRepository interface {
	GetDefinitions(ctx context.Context) ([]*models.AchievementDefinition, error)
	GetByPlayer(ctx context.Context, playerID snowflake.ID) ([]*models.PlayerAchievement, error)
	Award(ctx context.Context, playerID snowflake.ID, achievementID string) (bool, error)
}

type achievementRepository struct {
	db *bun.DB
}

func NewAchievementRepository(db *bun.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) GetDefinitions(ctx context.Context) ([]*models.AchievementDefinition, error) {
	var defs []*models.AchievementDefinition
	err := r.db.NewSelect().
		Model(&defs).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievement definitions: %w", err)
	}
	return defs, nil
}

func (r *achievementRepository) GetByPlayer(ctx context.Context, playerID snowflake.ID) ([]*models.PlayerAchievement, error) {
	var earned []*models.PlayerAchievement
	err := r.db.NewSelect().
		Model(&earned).
		Where("player_id = ?", playerID).
		Order("earned_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get player achievements: %w", err)
	}
	return earned, nil
}

// Award grants the achievement once; the (player_id, achievement_id) unique
// constraint makes a repeat award a no-op. Returns whether a new row landed.
func (r *achievementRepository) Award(ctx context.Context, playerID snowflake.ID, achievementID string) (bool, error) {
	row := &models.PlayerAchievement{
		PlayerID:      playerID,
		AchievementID: achievementID,
		EarnedAt:      time.Now(),
	}
	res, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (player_id, achievement_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to award achievement: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
