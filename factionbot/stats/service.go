package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/factionrealms/factionbot/factionbot/database/repositories"
)

// ActivityKind keys the cross-activity counters.
type ActivityKind string

const (
	ActivityGame     ActivityKind = "game"
	ActivitySocial   ActivityKind = "social"
	ActivityFaction  ActivityKind = "faction"
	ActivityResource ActivityKind = "resource"
	ActivityCare     ActivityKind = "care"
)

// defaultGameTypes is the registered game-type catalog. The progression cap
// bonus tier requires playing every one of these.
var defaultGameTypes = []string{"trivia", "duel", "forage", "puzzle", "race"}

// Service aggregates cross-activity counters into a variety bonus and
// activity classification.
type Service struct {
	repo      repositories.StatsRepository
	gameTypes []string
	cache     *leaderboardCache
}

func NewService(repo repositories.StatsRepository) *Service {
	return &Service{
		repo:      repo,
		gameTypes: defaultGameTypes,
		cache:     newLeaderboardCache(),
	}
}

// RegisteredGameTypes returns the known game-type catalog.
func (s *Service) RegisteredGameTypes() []string {
	out := make([]string, len(s.gameTypes))
	copy(out, s.gameTypes)
	return out
}

// RecordGame merges one game play into the player's counters and refreshes
// the derived scores.
func (s *Service) RecordGame(ctx context.Context, playerID snowflake.ID, gameType string, score int64) (*models.PlayerStats, error) {
	ps, err := s.repo.GetOrCreate(ctx, playerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	game := ps.Games[gameType]
	game.Plays++
	game.TotalScore += score
	if score > game.BestScore {
		game.BestScore = score
	}
	game.LastPlayed = now
	ps.Games[gameType] = game
	ps.TotalGames++

	s.bumpActivity(ps, now)
	s.recalculate(ps, now)

	if err := s.repo.Save(ctx, ps); err != nil {
		return nil, err
	}
	return ps, nil
}

// RecordActivity merges one non-game activity into the player's counters.
func (s *Service) RecordActivity(ctx context.Context, playerID snowflake.ID, kind ActivityKind) (*models.PlayerStats, error) {
	ps, err := s.repo.GetOrCreate(ctx, playerID)
	if err != nil {
		return nil, err
	}

	switch kind {
	case ActivitySocial:
		ps.SocialCount++
	case ActivityFaction:
		ps.FactionCount++
	case ActivityResource:
		ps.ResourceCount++
	case ActivityCare:
		ps.CareCount++
	default:
		return nil, &repositories.InvalidArgumentError{Field: "activity kind", Value: kind}
	}

	now := time.Now()
	s.bumpActivity(ps, now)
	s.recalculate(ps, now)

	if err := s.repo.Save(ctx, ps); err != nil {
		return nil, err
	}
	return ps, nil
}

// GetVarietyBonus returns the player's current variety multiplier and band.
func (s *Service) GetVarietyBonus(ctx context.Context, playerID snowflake.ID) (float64, string, error) {
	ps, err := s.repo.GetOrCreate(ctx, playerID)
	if err != nil {
		return 0, "", err
	}
	unique, total := gameSpread(ps)
	mult, band := VarietyBonus(unique, total)
	return mult, band, nil
}

// CapRewards applies the progression-balance cap to a reward map based on
// the distinct game types the player has played.
func (s *Service) CapRewards(ctx context.Context, playerID snowflake.ID, rewards map[string]int64) (map[string]int64, float64, error) {
	ps, err := s.repo.GetOrCreate(ctx, playerID)
	if err != nil {
		return nil, 0, err
	}
	distinct := 0
	for _, g := range ps.Games {
		if g.Plays > 0 {
			distinct++
		}
	}
	cap := ProgressionCap(distinct, len(s.gameTypes))
	return ApplyCap(rewards, cap), cap, nil
}

// GetStats returns the player's stats record, creating it on first access.
func (s *Service) GetStats(ctx context.Context, playerID snowflake.ID) (*models.PlayerStats, error) {
	return s.repo.GetOrCreate(ctx, playerID)
}

// bumpActivity increments today's entry in the per-day activity log and
// drops entries outside the trailing window.
func (s *Service) bumpActivity(ps *models.PlayerStats, now time.Time) {
	if ps.ActivityLog == nil {
		ps.ActivityLog = map[string]int64{}
	}
	today := now.UTC().Format("2006-01-02")
	ps.ActivityLog[today]++

	cutoff := now.UTC().AddDate(0, 0, -activityWindowDays)
	for day := range ps.ActivityLog {
		t, err := time.Parse("2006-01-02", day)
		if err != nil || t.Before(cutoff) {
			delete(ps.ActivityLog, day)
		}
	}
}

// recalculate refreshes the derived variety score and activity level.
func (s *Service) recalculate(ps *models.PlayerStats, now time.Time) {
	unique, total := gameSpread(ps)
	ps.VarietyScore = VarietyScore(unique, total)

	var windowTotal int64
	for _, count := range ps.ActivityLog {
		windowTotal += count
	}
	ps.ActivityLevel = ActivityLevelFor(windowTotal)
	ps.CalculatedAt = now

	slog.Debug("Player stats recalculated",
		slog.String("type", "stats"),
		slog.String("player_id", ps.PlayerID.String()),
		slog.Float64("variety_score", ps.VarietyScore),
		slog.String("activity_level", ps.ActivityLevel))
}

func gameSpread(ps *models.PlayerStats) (unique, total int64) {
	for _, g := range ps.Games {
		if g.Plays > 0 {
			unique++
			total += g.Plays
		}
	}
	return unique, total
}
