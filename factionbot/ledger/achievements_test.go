package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/factionrealms/factionbot/factionbot/database/models"
)

func TestAchievementMet(t *testing.T) {
	recent := []*models.Character{{ID: 1}, {ID: 2}, {ID: 3}}
	oldRecord := &models.FactionRecord{
		Purity: 1.0,
		History: []models.FactionEvent{{
			Faction:   models.FactionHuman,
			Timestamp: time.Now().AddDate(0, 0, -40),
		}},
	}
	freshRecord := &models.FactionRecord{
		Purity: 1.0,
		History: []models.FactionEvent{{
			Faction:   models.FactionHuman,
			Timestamp: time.Now().AddDate(0, 0, -2),
		}},
	}
	balancedRecord := &models.FactionRecord{
		Purity: 0.5,
		History: []models.FactionEvent{{
			Faction:   models.FactionAI,
			Timestamp: time.Now().AddDate(0, 0, -40),
		}},
	}

	tests := []struct {
		name     string
		def      *models.AchievementDefinition
		rec      *models.FactionRecord
		lineage  []*models.Character
		switches int
		want     bool
	}{
		{
			name:     "switch count met",
			def:      &models.AchievementDefinition{Requirement: models.RequirementSwitchCount, Threshold: 3},
			rec:      freshRecord,
			switches: 3,
			want:     true,
		},
		{
			name:     "switch count short",
			def:      &models.AchievementDefinition{Requirement: models.RequirementSwitchCount, Threshold: 3},
			rec:      freshRecord,
			switches: 2,
			want:     false,
		},
		{
			name:    "lineage depth met",
			def:     &models.AchievementDefinition{Requirement: models.RequirementLineageDepth, Threshold: 3},
			rec:     freshRecord,
			lineage: recent,
			want:    true,
		},
		{
			name: "purity duration met",
			def:  &models.AchievementDefinition{Requirement: models.RequirementPurityDuration, Threshold: 30},
			rec:  oldRecord,
			want: true,
		},
		{
			name: "purity duration too recent",
			def:  &models.AchievementDefinition{Requirement: models.RequirementPurityDuration, Threshold: 30},
			rec:  freshRecord,
			want: false,
		},
		{
			name: "balanced purity met",
			def:  &models.AchievementDefinition{Requirement: models.RequirementBalancedDuration, Threshold: 30},
			rec:  balancedRecord,
			want: true,
		},
		{
			name: "balanced purity out of band",
			def:  &models.AchievementDefinition{Requirement: models.RequirementBalancedDuration, Threshold: 30},
			rec:  oldRecord,
			want: false,
		},
		{
			name: "unknown requirement",
			def:  &models.AchievementDefinition{Requirement: "unknown"},
			rec:  oldRecord,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := achievementMet(tt.def, tt.rec, tt.lineage, tt.switches); got != tt.want {
				t.Errorf("achievementMet() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckFactionAchievements(t *testing.T) {
	characters := newFakeCharacterRepo()
	resources := newFakeResourceRepo()
	achievements := newFakeAchievementRepo(
		&models.AchievementDefinition{
			ID:          "founder",
			Requirement: models.RequirementLineageDepth,
			Threshold:   1,
		},
		&models.AchievementDefinition{
			ID:          "wanderer",
			Requirement: models.RequirementSwitchCount,
			Threshold:   5,
		},
	)
	svc := NewService(characters, resources, achievements, nil)

	playerID := snowflake.ID(42)
	ctx := context.Background()

	if _, err := svc.CreateCharacter(ctx, playerID, "Aria", models.FactionHuman); err != nil {
		t.Fatalf("CreateCharacter() error = %v", err)
	}

	awarded, err := svc.CheckFactionAchievements(ctx, playerID)
	if err != nil {
		t.Fatalf("CheckFactionAchievements() error = %v", err)
	}
	if len(awarded) != 1 || awarded[0].ID != "founder" {
		t.Fatalf("awarded = %v, want [founder]", awarded)
	}

	// Re-checking must not re-award.
	again, err := svc.CheckFactionAchievements(ctx, playerID)
	if err != nil {
		t.Fatalf("second CheckFactionAchievements() error = %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second check awarded %v, want none", again)
	}

	statuses, err := svc.GetFactionAchievements(ctx, playerID)
	if err != nil {
		t.Fatalf("GetFactionAchievements() error = %v", err)
	}
	var earned int
	for _, st := range statuses {
		if st.Earned {
			earned++
		}
	}
	if earned != 1 {
		t.Errorf("earned = %d, want 1", earned)
	}
}
