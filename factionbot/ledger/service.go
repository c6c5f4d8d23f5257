package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/factionrealms/factionbot/factionbot/database/repositories"
	"github.com/factionrealms/factionbot/factionbot/economy"
)

// Service owns character identity, faction membership and the per-player
// resource ledger.
type Service struct {
	characters   repositories.CharacterRepository
	resources    repositories.ResourceRepository
	achievements repositories.AchievementRepository
	engine       *economy.Engine
}

func NewService(
	characters repositories.CharacterRepository,
	resources repositories.ResourceRepository,
	achievements repositories.AchievementRepository,
	engine *economy.Engine,
) *Service {
	return &Service{
		characters:   characters,
		resources:    resources,
		achievements: achievements,
		engine:       engine,
	}
}

// CharacterProfile is the plain-data result of character creation.
type CharacterProfile struct {
	CharacterID int64
	Name        string
	Faction     models.Faction
	Purity      float64
}

// computePurity recomputes a player's faction purity. Lineage-weighted
// purity is not implemented yet; every path currently yields 1.0. Keep all
// purity writes flowing through here so the formula has a single home.
func (s *Service) computePurity(_ []*models.Character) float64 {
	return 1.0
}

// CreateCharacter creates a player's first character. Fails while the player
// still has an active living character. The character row, faction record
// and zeroed resources land as one unit.
func (s *Service) CreateCharacter(ctx context.Context, playerID snowflake.ID, name string, faction models.Faction) (*CharacterProfile, error) {
	if !faction.Valid() {
		return nil, &repositories.InvalidArgumentError{Field: "faction", Value: faction}
	}

	existing, err := s.characters.GetActiveByPlayer(ctx, playerID)
	if err != nil && !repositories.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, &repositories.InvalidStateError{
			Entity: "character",
			Reason: fmt.Sprintf("player already has an active character (%s)", existing.Name),
		}
	}

	now := time.Now()
	ch := &models.Character{
		PlayerID:       playerID,
		Name:           name,
		BirthFaction:   faction,
		CurrentFaction: faction,
		Active:         true,
		Alive:          true,
		Age:            0,
		LifeStage:      models.LifeStageForAge(0),
		Traits:         map[string]string{},
	}
	rec := &models.FactionRecord{
		PlayerID:       playerID,
		CurrentFaction: faction,
		Purity:         1.0,
	}
	res := &models.FactionResources{
		PlayerID:  playerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.characters.CreateWithLedger(ctx, ch, rec, res); err != nil {
		return nil, err
	}

	slog.Info("Character created",
		slog.String("type", "ledger"),
		slog.String("player_id", playerID.String()),
		slog.Int64("character_id", ch.ID),
		slog.String("faction", string(faction)))

	return &CharacterProfile{
		CharacterID: ch.ID,
		Name:        ch.Name,
		Faction:     faction,
		Purity:      rec.Purity,
	}, nil
}

// GetCurrentCharacter returns the player's active living character, or nil
// when they have none.
func (s *Service) GetCurrentCharacter(ctx context.Context, playerID snowflake.ID) (*models.Character, error) {
	ch, err := s.characters.GetActiveByPlayer(ctx, playerID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return ch, nil
}

// SwitchToCharacter deactivates the current character and activates the
// target, recomputing purity and appending a history entry as one unit.
func (s *Service) SwitchToCharacter(ctx context.Context, playerID snowflake.ID, characterID int64) (*models.Character, error) {
	target, err := s.characters.GetByID(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if target.PlayerID != playerID {
		return nil, &repositories.NotFoundError{Entity: "character", ID: characterID}
	}
	if !target.Alive {
		return nil, &repositories.NotFoundError{Entity: "character", ID: characterID}
	}
	if target.Active {
		return nil, &repositories.InvalidStateError{Entity: "character", Reason: "character is already active"}
	}

	current, err := s.characters.GetActiveByPlayer(ctx, playerID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, &repositories.InvalidStateError{Entity: "character", Reason: "no active character to switch away from"}
		}
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

	prevID := current.ID
	rec.CurrentFaction = target.CurrentFaction
	rec.Purity = s.computePurity(lineage)
	rec.History = append(rec.History, models.FactionEvent{
		Faction:             target.CurrentFaction,
		Timestamp:           time.Now(),
		Reason:              "character_switch",
		CharacterID:         target.ID,
		PreviousCharacterID: &prevID,
	})

	if err := s.characters.SwitchActive(ctx, rec, current, target); err != nil {
		return nil, err
	}

	slog.Info("Character switched",
		slog.String("type", "ledger"),
		slog.String("player_id", playerID.String()),
		slog.Int64("from", current.ID),
		slog.Int64("to", target.ID))

	target.Active = true
	return target, nil
}

// GetFactionHistory returns the ordered faction-adoption log for a player.
func (s *Service) GetFactionHistory(ctx context.Context, playerID snowflake.ID) ([]models.FactionEvent, error) {
	rec, err := s.characters.GetFactionRecord(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return rec.History, nil
}

// GetCharacterLineage returns every character the player has ever owned,
// oldest first.
func (s *Service) GetCharacterLineage(ctx context.Context, playerID snowflake.ID) ([]*models.Character, error) {
	return s.characters.GetAllByPlayer(ctx, playerID)
}

// GetFactionResources returns the player's balances, creating a zeroed row
// on first access.
func (s *Service) GetFactionResources(ctx context.Context, playerID snowflake.ID) (*models.FactionResources, error) {
	return s.resources.GetOrCreate(ctx, playerID)
}

// AddFactionResources credits the given deltas. Unknown resource keys are
// silently ignored.
func (s *Service) AddFactionResources(ctx context.Context, playerID snowflake.ID, deltas map[string]int64) error {
	known := make(map[string]int64, len(deltas))
	for k, v := range deltas {
		if models.IsKnownResource(k) {
			known[k] = v
		}
	}
	if len(known) == 0 {
		return nil
	}
	return s.resources.Add(ctx, playerID, known)
}

// DeductDailyCosts runs today's consumption for the player's active
// character. Already-processed days and short balances are successful
// no-ops, not failures.
func (s *Service) DeductDailyCosts(ctx context.Context, playerID snowflake.ID) (*economy.ConsumptionResult, error) {
	ch, err := s.characters.GetActiveByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return s.engine.ProcessDailyConsumption(ctx, ch.ID)
}

// AgeCharacters increments every living character's age and recomputes life
// stages. Intended to be run once per day by the scheduler.
func (s *Service) AgeCharacters(ctx context.Context) (int64, error) {
	aged, err := s.characters.AgeAllLiving(ctx)
	if err != nil {
		return 0, err
	}
	slog.Info("Characters aged",
		slog.String("type", "ledger"),
		slog.Int64("count", aged))
	return aged, nil
}
