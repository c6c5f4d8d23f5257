package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/factionrealms/factionbot/factionbot"
	"github.com/factionrealms/factionbot/factionbot/database"
	"github.com/factionrealms/factionbot/factionbot/migration"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "import legacy MongoDB data into Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := factionbot.LoadConfig(cfgPath)
		if err != nil {
			return err
		}

		db, err := database.New(ctx, database.DBConfig{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			Database: cfg.DB.Database,
			PoolSize: cfg.DB.PoolSize,
		})
		if err != nil {
			slog.Error("Failed to connect to database", slog.Any("error", err))
			return err
		}
		defer db.Close()

		if err := db.InitializeSchema(ctx); err != nil {
			slog.Error("Failed to initialize schema", slog.Any("error", err))
			return err
		}

		migrator := migration.NewMigrator(db.BunDB())
		if err := migrator.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database); err != nil {
			slog.Error("Failed to connect to legacy mongo", slog.Any("error", err))
			return err
		}

		if err := migrator.MigrateAll(ctx); err != nil {
			slog.Error("Migration failed", slog.Any("error", err))
			return err
		}

		slog.Info("Migration completed successfully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCMD)
}
