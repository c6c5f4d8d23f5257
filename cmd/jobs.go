package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/factionrealms/factionbot/factionbot"
	"github.com/factionrealms/factionbot/factionbot/database"
	"github.com/factionrealms/factionbot/factionbot/jobs"
)

var jobsCMD = &cobra.Command{
	Use:   "jobs",
	Short: "run one daily consumption and aging pass, then exit",
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

		b := factionbot.New(*cfg, botVersion, botCommit)
		b.DB = db
		b.SetupServices()

		runner := jobs.NewRunner(b.EconomyEngine, b.LedgerService, cfg.Jobs.DailyHourUTC)
		return runner.RunOnce(ctx)
	},
}

func init() {
	rootCmd.AddCommand(jobsCMD)
}
