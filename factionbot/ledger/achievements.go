package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/factionrealms/factionbot/factionbot/database/models"
)

// AchievementStatus pairs a catalog entry with a player's progress on it.
type AchievementStatus struct {
	Definition *models.AchievementDefinition
	Earned     bool
	EarnedAt   time.Time
}

// GetFactionAchievements returns the full achievement catalog annotated with
// what the player has earned.
func (s *Service) GetFactionAchievements(ctx context.Context, playerID snowflake.ID) ([]AchievementStatus, error) {
	defs, err := s.achievements.GetDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	earned, err := s.achievements.GetByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	earnedAt := make(map[string]time.Time, len(earned))
	for _, e := range earned {
		earnedAt[e.AchievementID] = e.EarnedAt
	}

	out := make([]AchievementStatus, len(defs))
	for i, def := range defs {
		at, ok := earnedAt[def.ID]
		out[i] = AchievementStatus{Definition: def, Earned: ok, EarnedAt: at}
	}
	return out, nil
}

// CheckFactionAchievements evaluates the achievement rules against the
// player's ledger and awards anything newly met. Returns the definitions
// awarded by this call.
func (s *Service) CheckFactionAchievements(ctx context.Context, playerID snowflake.ID) ([]*models.AchievementDefinition, error) {
	statuses, err := s.GetFactionAchievements(ctx, playerID)
	if err != nil {
		return nil, err
	}

	rec, err := s.characters.GetFactionRecord(ctx, playerID)
	if err != nil {
		return nil, err
	}
	lineage, err := s.characters.GetAllByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	switches, err := s.characters.GetSwitchCount(ctx, playerID)
	if err != nil {
		return nil, err
	}

	var awarded []*models.AchievementDefinition
	for _, st := range statuses {
		if st.Earned {
			continue
		}
		if !achievementMet(st.Definition, rec, lineage, switches) {
			continue
		}
		fresh, err := s.achievements.Award(ctx, playerID, st.Definition.ID)
		if err != nil {
			return nil, err
		}
		if fresh {
			awarded = append(awarded, st.Definition)
			slog.Info("Achievement awarded",
				slog.String("type", "ledger"),
				slog.String("player_id", playerID.String()),
				slog.String("achievement", st.Definition.ID))
		}
	}
	return awarded, nil
}

// achievementMet evaluates a single rule. Duration rules measure the days a
// purity band has been held since the last faction event.
func achievementMet(def *models.AchievementDefinition, rec *models.FactionRecord, lineage []*models.Character, switches int) bool {
	switch def.Requirement {
	case models.RequirementSwitchCount:
		return switches >= def.Threshold
	case models.RequirementLineageDepth:
		return len(lineage) >= def.Threshold
	case models.RequirementPurityDuration:
		return rec.Purity >= 1.0 && daysSinceLastEvent(rec) >= def.Threshold
	case models.RequirementBalancedDuration:
		return rec.Purity >= 0.4 && rec.Purity <= 0.6 && daysSinceLastEvent(rec) >= def.Threshold
	}
	return false
}

func daysSinceLastEvent(rec *models.FactionRecord) int {
	if len(rec.History) == 0 {
		return 0
	}
	last := rec.History[len(rec.History)-1].Timestamp
	return int(time.Since(last).Hours() / 24)
}
