package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/factionrealms/factionbot/factionbot"
	"github.com/factionrealms/factionbot/factionbot/database"
	"github.com/factionrealms/factionbot/factionbot/jobs"
	"github.com/factionrealms/factionbot/factionbot/logger"
)

// runServe boots the full service: database, schema, seed data, domain
// services and the daily job loop. It blocks until SIGINT/SIGTERM.
func runServe(ctx context.Context) error {
	slog.Info("Starting FactionBot",
		slog.String("version", botVersion),
		slog.String("commit", botCommit))

	cfg, err := factionbot.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(logger.NewHandlerWithLevel(cfg.Log.Level)))
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	db, err := database.New(initCtx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		return err
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if err := db.InitializeSchema(initCtx); err != nil {
		slog.Error("Failed to initialize database schema", slog.Any("error", err))
		return err
	}
	if err := db.InitializeNeighborhoodData(initCtx); err != nil {
		slog.Error("Failed to seed neighborhoods", slog.Any("error", err))
		return err
	}
	if err := db.InitializeGuildDistrictData(initCtx); err != nil {
		slog.Error("Failed to seed guild district", slog.Any("error", err))
		return err
	}
	if err := db.InitializeAchievementData(initCtx); err != nil {
		slog.Error("Failed to seed achievements", slog.Any("error", err))
		return err
	}
	slog.Info("Database schema and seed data ready")

	b := factionbot.New(*cfg, botVersion, botCommit)
	b.DB = db
	b.SetupServices()

	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()

	runner := jobs.NewRunner(b.EconomyEngine, b.LedgerService, cfg.Jobs.DailyHourUTC)
	runner.Start(jobCtx)

	logger.LogSystem("FactionBot is now running. Press CTRL-C to exit.")

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s

	logger.LogSystem("Shutting down...")
	return nil
}
