package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/factionrealms/factionbot/factionbot/database/models"
)

// Migrator imports character, faction and resource data from the legacy
// MongoDB deployment into Postgres. Inserts are idempotent; re-running
// skips rows that already exist.
type Migrator struct {
	pgDB      *bun.DB
	mongoDB   *mongo.Database
	batchSize int
	stats     MigrationStats
	collNames map[string]string
}

func NewMigrator(pgDB *bun.DB) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		batchSize: 500,
		stats: MigrationStats{
			Tables:    make(map[string]*TableStats),
			StartTime: time.Now(),
		},
		collNames: map[string]string{
			"characters": "characters",
			"factions":   "factions",
			"resources":  "resources",
		},
	}
}

// Connect dials the legacy Mongo deployment.
func (m *Migrator) Connect(ctx context.Context, uri, dbName string) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	m.mongoDB = client.Database(dbName)
	return nil
}

// SetBatchSize overrides the default insert batch size.
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// SetCollectionName overrides a legacy collection name.
func (m *Migrator) SetCollectionName(kind, name string) {
	if name != "" {
		m.collNames[kind] = name
	}
}

func (m *Migrator) tableStats(name string) *TableStats {
	ts, ok := m.stats.Tables[name]
	if !ok {
		ts = &TableStats{}
		m.stats.Tables[name] = ts
	}
	return ts
}

// MigrateAll runs every import step in dependency order.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	if m.mongoDB == nil {
		return fmt.Errorf("mongo not configured; call Connect first")
	}

	m.stats.StartTime = time.Now()

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"characters", m.MigrateCharacters},
		{"faction_records", m.MigrateFactionRecords},
		{"faction_resources", m.MigrateResources},
	}

	for _, s := range steps {
		slog.Info("Starting migration step",
			slog.String("type", "job"),
			slog.String("step", s.name))
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", s.name, err)
		}
	}

	m.stats.EndTime = time.Now()
	m.logFinalStats()
	return nil
}

// MigrateCharacters imports all legacy character documents.
func (m *Migrator) MigrateCharacters(ctx context.Context) error {
	ts := m.tableStats("characters")

	cur, err := m.mongoDB.Collection(m.collNames["characters"]).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query characters: %w", err)
	}
	defer cur.Close(ctx)

	var batch []*models.Character
	for cur.Next(ctx) {
		var mc MongoCharacter
		if err := cur.Decode(&mc); err != nil {
			ts.Failed++
			continue
		}
		ts.Read++

		ch, err := convertCharacter(mc)
		if err != nil {
			slog.Warn("Skipping character",
				slog.String("type", "job"),
				slog.Any("error", err))
			ts.Skipped++
			continue
		}
		batch = append(batch, ch)

		if len(batch) >= m.batchSize {
			if err := m.insertCharacters(ctx, batch, ts); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := m.insertCharacters(ctx, batch, ts); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) insertCharacters(ctx context.Context, batch []*models.Character, ts *TableStats) error {
	res, err := m.pgDB.NewInsert().
		Model(&batch).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert characters: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		ts.Inserted += int(n)
	}
	return nil
}

// MigrateFactionRecords imports the per-player faction ledgers.
func (m *Migrator) MigrateFactionRecords(ctx context.Context) error {
	ts := m.tableStats("faction_records")

	cur, err := m.mongoDB.Collection(m.collNames["factions"]).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query factions: %w", err)
	}
	defer cur.Close(ctx)

	var batch []*models.FactionRecord
	for cur.Next(ctx) {
		var mr MongoFactionRecord
		if err := cur.Decode(&mr); err != nil {
			ts.Failed++
			continue
		}
		ts.Read++

		rec, err := convertFactionRecord(mr)
		if err != nil {
			slog.Warn("Skipping faction record",
				slog.String("type", "job"),
				slog.Any("error", err))
			ts.Skipped++
			continue
		}
		batch = append(batch, rec)

		if len(batch) >= m.batchSize {
			if err := m.insertFactionRecords(ctx, batch, ts); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := m.insertFactionRecords(ctx, batch, ts); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) insertFactionRecords(ctx context.Context, batch []*models.FactionRecord, ts *TableStats) error {
	res, err := m.pgDB.NewInsert().
		Model(&batch).
		On("CONFLICT (player_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert faction records: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		ts.Inserted += int(n)
	}
	return nil
}

// MigrateResources imports the per-player resource balances.
func (m *Migrator) MigrateResources(ctx context.Context) error {
	ts := m.tableStats("faction_resources")

	cur, err := m.mongoDB.Collection(m.collNames["resources"]).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query resources: %w", err)
	}
	defer cur.Close(ctx)

	var batch []*models.FactionResources
	for cur.Next(ctx) {
		var mr MongoResources
		if err := cur.Decode(&mr); err != nil {
			ts.Failed++
			continue
		}
		ts.Read++

		res, err := convertResources(mr)
		if err != nil {
			slog.Warn("Skipping resource balance",
				slog.String("type", "job"),
				slog.Any("error", err))
			ts.Skipped++
			continue
		}
		batch = append(batch, res)

		if len(batch) >= m.batchSize {
			if err := m.insertResources(ctx, batch, ts); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := m.insertResources(ctx, batch, ts); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) insertResources(ctx context.Context, batch []*models.FactionResources, ts *TableStats) error {
	res, err := m.pgDB.NewInsert().
		Model(&batch).
		On("CONFLICT (player_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert resources: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		ts.Inserted += int(n)
	}
	return nil
}

func (m *Migrator) logFinalStats() {
	for table, ts := range m.stats.Tables {
		slog.Info("Migration table summary",
			slog.String("type", "job"),
			slog.String("table", table),
			slog.Int("read", ts.Read),
			slog.Int("inserted", ts.Inserted),
			slog.Int("skipped", ts.Skipped),
			slog.Int("failed", ts.Failed))
	}
	slog.Info("Migration finished",
		slog.String("type", "job"),
		slog.Duration("took", m.stats.EndTime.Sub(m.stats.StartTime)))
}
