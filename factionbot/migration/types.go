package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoCharacter is a character document from the legacy deployment.
type MongoCharacter struct {
	ID       primitive.ObjectID `bson:"_id"`
	LegacyID int64              `bson:"legacy_id"`
	UserID   string             `bson:"user_id"`
	Name     string             `bson:"name"`
	Faction  string             `bson:"faction"`
	Active   bool               `bson:"active"`
	Alive    bool               `bson:"alive"`
	Age      float64            `bson:"age"`
	Traits   map[string]string  `bson:"traits,omitempty"`
	Parent1  *int64             `bson:"parent1,omitempty"`
	Parent2  *int64             `bson:"parent2,omitempty"`
	Created  time.Time          `bson:"created"`
}

// MongoFactionEvent is one history entry inside a faction document.
type MongoFactionEvent struct {
	Faction     string    `bson:"faction"`
	Timestamp   time.Time `bson:"ts"`
	Reason      string    `bson:"reason"`
	CharacterID int64     `bson:"character_id"`
	Previous    *int64    `bson:"previous,omitempty"`
}

// MongoFactionRecord is a per-player faction ledger document.
type MongoFactionRecord struct {
	ID      primitive.ObjectID  `bson:"_id"`
	UserID  string              `bson:"user_id"`
	Purity  float64             `bson:"purity"`
	History []MongoFactionEvent `bson:"history"`
}

// MongoResources is a per-player resource balance document. The legacy bot
// stored balances as floats.
type MongoResources struct {
	ID       primitive.ObjectID `bson:"_id"`
	UserID   string             `bson:"user_id"`
	Balances map[string]float64 `bson:"balances"`
}

// TableStats tracks per-table migration counters.
type TableStats struct {
	Read     int
	Inserted int
	Skipped  int
	Failed   int
}

// MigrationStats tracks the whole run.
type MigrationStats struct {
	Tables    map[string]*TableStats
	StartTime time.Time
	EndTime   time.Time
}
