package migration

import (
	"fmt"
	"math"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/factionrealms/factionbot/factionbot/database/models"
)

func parsePlayerID(raw string) (snowflake.ID, error) {
	id, err := snowflake.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("bad player id %q: %w", raw, err)
	}
	return id, nil
}

func convertCharacter(mc MongoCharacter) (*models.Character, error) {
	playerID, err := parsePlayerID(mc.UserID)
	if err != nil {
		return nil, err
	}

	faction := models.Faction(mc.Faction)
	if !faction.Valid() {
		return nil, fmt.Errorf("character %q: unknown faction %q", mc.Name, mc.Faction)
	}

	age := int(math.Floor(mc.Age))
	if age < 0 {
		age = 0
	}

	created := mc.Created
	if created.IsZero() {
		created = time.Now()
	}

	return &models.Character{
		PlayerID:       playerID,
		Name:           mc.Name,
		BirthFaction:   faction,
		CurrentFaction: faction,
		Active:         mc.Active && mc.Alive,
		Alive:          mc.Alive,
		Age:            age,
		LifeStage:      models.LifeStageForAge(age),
		Traits:         mc.Traits,
		Parent1ID:      mc.Parent1,
		Parent2ID:      mc.Parent2,
		CreatedAt:      created,
		UpdatedAt:      time.Now(),
	}, nil
}

func convertFactionRecord(mr MongoFactionRecord) (*models.FactionRecord, error) {
	playerID, err := parsePlayerID(mr.UserID)
	if err != nil {
		return nil, err
	}

	history := make([]models.FactionEvent, 0, len(mr.History))
	current := models.Faction("")
	for _, ev := range mr.History {
		faction := models.Faction(ev.Faction)
		if !faction.Valid() {
			continue
		}
		history = append(history, models.FactionEvent{
			Faction:             faction,
			Timestamp:           ev.Timestamp,
			Reason:              ev.Reason,
			CharacterID:         ev.CharacterID,
			PreviousCharacterID: ev.Previous,
		})
		current = faction
	}
	if current == "" {
		return nil, fmt.Errorf("player %s: faction record has no valid history", mr.UserID)
	}

	purity := mr.Purity
	if purity <= 0 || purity > 1 {
		purity = 1.0
	}

	return &models.FactionRecord{
		PlayerID:       playerID,
		CurrentFaction: current,
		Purity:         purity,
		History:        history,
		UpdatedAt:      time.Now(),
	}, nil
}

func convertResources(mr MongoResources) (*models.FactionResources, error) {
	playerID, err := parsePlayerID(mr.UserID)
	if err != nil {
		return nil, err
	}

	res := &models.FactionResources{
		PlayerID:  playerID,
		UpdatedAt: time.Now(),
	}
	for name, amount := range mr.Balances {
		if !models.IsKnownResource(name) {
			continue
		}
		value := int64(math.Floor(amount))
		if value < 0 {
			value = 0
		}
		switch name {
		case models.ResourceFood:
			res.Food = value
		case models.ResourceWater:
			res.Water = value
		case models.ResourceEnergy:
			res.Energy = value
		case models.ResourceDataFragments:
			res.DataFragments = value
		case models.ResourceElectricity:
			res.Electricity = value
		case models.ResourceBiomass:
			res.Biomass = value
		case models.ResourceOrganicMatter:
			res.OrganicMatter = value
		case models.ResourceCurrency:
			res.Currency = value
		case models.ResourceBuildingMaterials:
			res.BuildingMaterials = value
		case models.ResourceRareArtifacts:
			res.RareArtifacts = value
		case models.ResourceValue:
			res.Value = value
		}
	}
	return res, nil
}
