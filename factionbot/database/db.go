package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	"log/slog"

	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/uptrace/bun"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
	schemaVersion        = 1 // bump when schema/migrations change
)

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	var conn net.Conn
	var err error

	tryDial := func() (net.Conn, error) {
		addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
		force4 := os.Getenv("DB_DIAL_FORCE_IPV4") == "1"
		force6 := os.Getenv("DB_DIAL_FORCE_IPV6") == "1"

		if force4 {
			return net.DialTimeout("tcp4", addr, defaultConnTimeout)
		}
		if force6 {
			return net.DialTimeout("tcp6", addr, defaultConnTimeout)
		}

		// Prefer IPv4, then fall back to IPv6
		if c, e := net.DialTimeout("tcp4", addr, defaultConnTimeout); e == nil {
			return c, nil
		}
		return net.DialTimeout("tcp6", addr, defaultConnTimeout)
	}

	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = tryDial()
		if err == nil {
			break
		}
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}
	defer conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	return createDB(ctx, poolConfig)
}

func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func createDB(ctx context.Context, poolConfig *pgxpool.Config) (*DB, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	bunDB := newBunDB(pool)
	return &DB{pool: pool, bunDB: bunDB}, nil
}

func (db *DB) GetPool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func newBunDB(pool *pgxpool.Pool) *bun.DB {
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pool.Config().ConnConfig.User,
		pool.Config().ConnConfig.Password,
		pool.Config().ConnConfig.Host,
		pool.Config().ConnConfig.Port,
		pool.Config().ConnConfig.Database,
		sslMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "exec"),
			slog.String("query", sql),
			slog.Any("args", args),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return result, err
	}

	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "exec"),
		slog.String("query", sql),
		slog.Duration("took", duration),
		slog.Int64("affected_rows", result.RowsAffected()),
	)
	return result, nil
}

func (db *DB) QueryWithLog(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	start := time.Now()
	rows, err := db.pool.Query(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "query"),
			slog.String("query", sql),
			slog.Any("args", args),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return rows, err
	}

	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "query"),
		slog.String("query", sql),
		slog.Duration("took", duration),
	)
	return rows, nil
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// Ping verifies both database connections are working
func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pgxpool ping failed: %w", err)
	}
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}
	return nil
}

// InitializeSchema creates all required database tables, constraints and
// seed rows. Safe to run on every start.
func (db *DB) InitializeSchema(ctx context.Context) error {
	fastInit := os.Getenv("DB_FAST_INIT") == "1"
	if fastInit {
		if err := db.ensureAppMeta(ctx); err == nil {
			if v, _ := db.getAppMeta(ctx, "schema_version"); v == fmt.Sprintf("%d", schemaVersion) {
				slog.Info("Fast DB init: schema up-to-date, skipping initialization",
					slog.String("mode", "DB_FAST_INIT"),
					slog.Int("schema_version", schemaVersion))
				return nil
			}
		}
	}

	tables := []interface{}{
		(*models.Character)(nil),
		(*models.FactionRecord)(nil),
		(*models.CharacterSwitchLog)(nil),
		(*models.FactionResources)(nil),
		(*models.ResourceConsumptionLog)(nil),
		(*models.Neighborhood)(nil),
		(*models.ResidentialPlot)(nil),
		(*models.PlotOccupant)(nil),
		(*models.RentAgreement)(nil),
		(*models.GuildPlot)(nil),
		(*models.GuildTreasury)(nil),
		(*models.GuildTransaction)(nil),
		(*models.ResourceGenerationLog)(nil),
		(*models.PlayerStats)(nil),
		(*models.AchievementDefinition)(nil),
		(*models.PlayerAchievement)(nil),
	}

	for _, model := range tables {
		query := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists()

		if _, err := query.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Uniqueness constraints the state machines rely on. The day-scoped
	// ones are the idempotency guards: insert-conflict is the
	// already-processed path, not an error.
	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_characters_one_active ON characters(player_id) WHERE active = true AND alive = true;",
		"CREATE INDEX IF NOT EXISTS idx_characters_player_id ON characters(player_id);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_consumption_character_day ON resource_consumption_logs(character_id, day);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_generation_plot_day ON resource_generation_logs(plot_id, day);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_plots_neighborhood_number ON residential_plots(neighborhood_id, plot_number);",
		"CREATE INDEX IF NOT EXISTS idx_plots_owner ON residential_plots(owner_character_id) WHERE owner_character_id IS NOT NULL;",
		"CREATE INDEX IF NOT EXISTS idx_plots_for_sale ON residential_plots(for_sale) WHERE for_sale = true;",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_occupants_active ON plot_occupants(plot_id, character_id) WHERE moved_out_at IS NULL;",
		"CREATE INDEX IF NOT EXISTS idx_occupants_plot ON plot_occupants(plot_id);",
		"CREATE INDEX IF NOT EXISTS idx_guild_plots_owner ON guild_plots(owner_guild_id) WHERE owner_guild_id IS NOT NULL;",
		"CREATE INDEX IF NOT EXISTS idx_guild_transactions_guild ON guild_transactions(guild_id, created_at);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_player_achievements_pair ON player_achievements(player_id, achievement_id);",
		"CREATE INDEX IF NOT EXISTS idx_player_stats_variety ON player_stats(variety_score DESC);",
		"CREATE INDEX IF NOT EXISTS idx_player_stats_total_games ON player_stats(total_games DESC);",
		"CREATE INDEX IF NOT EXISTS idx_switch_logs_player ON character_switch_logs(player_id);",
	}

	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := db.InitializeNeighborhoodData(ctx); err != nil {
		return fmt.Errorf("failed to initialize neighborhood data: %w", err)
	}
	if err := db.InitializeGuildDistrictData(ctx); err != nil {
		return fmt.Errorf("failed to initialize guild district data: %w", err)
	}
	if err := db.InitializeAchievementData(ctx); err != nil {
		return fmt.Errorf("failed to initialize achievement data: %w", err)
	}

	if err := db.ensureAppMeta(ctx); err == nil {
		_ = db.setAppMeta(ctx, "schema_version", fmt.Sprintf("%d", schemaVersion))
	}

	return nil
}

func (db *DB) ensureAppMeta(ctx context.Context) error {
	_, err := db.ExecWithLog(ctx, `CREATE TABLE IF NOT EXISTS app_meta (key TEXT PRIMARY KEY, value TEXT)`)
	return err
}

func (db *DB) getAppMeta(ctx context.Context, key string) (string, error) {
	row := db.pool.QueryRow(ctx, `SELECT value FROM app_meta WHERE key = $1`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}

func (db *DB) setAppMeta(ctx context.Context, key, value string) error {
	sql := `INSERT INTO app_meta(key, value) VALUES($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	_, err := db.pool.Exec(ctx, sql, key, value)
	return err
}

const plotsPerNeighborhood = 12

// InitializeNeighborhoodData seeds the neighborhoods and their unowned plot
// rows.
func (db *DB) InitializeNeighborhoodData(ctx context.Context) error {
	neighborhoods := []struct {
		Name        string
		Description string
	}{
		{"Ember Row", "Old human quarter near the market gates."},
		{"Circuit Heights", "Terraced server-farm district favored by AI residents."},
		{"Verdant Hollow", "Overgrown plots reclaimed by the Nature faction."},
		{"The Crossing", "Mixed district where all three factions trade."},
	}

	for _, nb := range neighborhoods {
		insertSQL := `
			INSERT INTO neighborhoods (name, description, created_at)
			VALUES ($1, $2, CURRENT_TIMESTAMP)
			ON CONFLICT (name) DO NOTHING;
		`
		if _, err := db.ExecWithLog(ctx, insertSQL, nb.Name, nb.Description); err != nil {
			return fmt.Errorf("failed to insert neighborhood %s: %w", nb.Name, err)
		}
	}

	// One row per plot slot; size and values stay unset until purchase.
	plotSQL := `
		INSERT INTO residential_plots (neighborhood_id, plot_number, tier, base_value, current_value, max_occupants, maintenance_cost, for_sale, sale_price, created_at, updated_at)
		SELECT nb.id, n, 1, 0, 0, 0, 0, false, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		FROM neighborhoods nb, generate_series(1, $1) AS n
		ON CONFLICT (neighborhood_id, plot_number) DO NOTHING;
	`
	if _, err := db.ExecWithLog(ctx, plotSQL, plotsPerNeighborhood); err != nil {
		return fmt.Errorf("failed to seed residential plots: %w", err)
	}

	slog.Info("Neighborhood data initialized", slog.Int("neighborhoods", len(neighborhoods)))
	return nil
}

const guildDistrictPlots = 40

// InitializeGuildDistrictData seeds the commercial district plot slots.
func (db *DB) InitializeGuildDistrictData(ctx context.Context) error {
	plotSQL := `
		INSERT INTO guild_plots (plot_number, tier, base_value, current_value, building_level, created_at, updated_at)
		SELECT n, 1, 0, 0, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		FROM generate_series(1, $1) AS n
		ON CONFLICT (plot_number) DO NOTHING;
	`
	if _, err := db.ExecWithLog(ctx, plotSQL, guildDistrictPlots); err != nil {
		return fmt.Errorf("failed to seed guild plots: %w", err)
	}
	return nil
}

// InitializeAchievementData inserts or updates the faction achievement
// catalog.
func (db *DB) InitializeAchievementData(ctx context.Context) error {
	achievements := []struct {
		ID          string
		Name        string
		Description string
		Requirement string
		Threshold   int
	}{
		{"purist_30", "Purist", "Hold full faction purity for 30 days", "purity_duration", 30},
		{"purist_90", "Devoted Purist", "Hold full faction purity for 90 days", "purity_duration", 90},
		{"wanderer_3", "Wanderer", "Switch characters 3 times", "switch_count", 3},
		{"wanderer_10", "Faction Hopper", "Switch characters 10 times", "switch_count", 10},
		{"dynasty_3", "Dynasty", "Keep a lineage of 3 characters", "lineage_depth", 3},
		{"dynasty_5", "Great Dynasty", "Keep a lineage of 5 characters", "lineage_depth", 5},
		{"balanced_60", "Walker of All Paths", "Hold balanced purity for 60 days", "balanced_purity_duration", 60},
	}

	insertSQL := `
		INSERT INTO achievement_definitions (id, name, description, requirement, threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			requirement = EXCLUDED.requirement,
			threshold = EXCLUDED.threshold,
			updated_at = CURRENT_TIMESTAMP;
	`

	for _, a := range achievements {
		if _, err := db.ExecWithLog(ctx, insertSQL,
			a.ID, a.Name, a.Description, a.Requirement, a.Threshold,
		); err != nil {
			return fmt.Errorf("failed to upsert achievement %s: %w", a.ID, err)
		}
	}

	slog.Info("Achievement definitions initialized", slog.Int("count", len(achievements)))
	return nil
}
