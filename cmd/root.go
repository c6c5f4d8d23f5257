package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/factionrealms/factionbot/factionbot/logger"
)

var (
	cfgPath string

	botVersion = "dev"
	botCommit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "factionbot",
	Short: "Role-playing faction economy for chat communities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.toml", "path to config")
}

func Execute(version, commit string) {
	botVersion = version
	botCommit = commit

	slog.SetDefault(slog.New(logger.NewHandler()))

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
