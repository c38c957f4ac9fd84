package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"heartscore/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "heartscore",
	Short: "Daily heart health score, streaks and badges",
	Long: `heartscore computes a daily 0-100 HeartScore from blood pressure, glucose,
ritual check-ins, wellness, environment and cognitive signals, tracks
check-in streaks, awards badges and keeps an auditable ledger of agent
actions.

CONFIGURATION:

  Settings come from the environment (a .env file in the working directory
  is loaded first). The most common ones:

  HEARTSCORE_STORE          postgres | sqlite | memory (default sqlite)
  DATABASE_URL              PostgreSQL connection string
  HEARTSCORE_SQLITE_PATH    SQLite file (default data/heartscore.db)
  HEARTSCORE_TIMEZONE       IANA zone that defines calendar days (default UTC)
  HEARTSCORE_HEALTH_SOURCE  none | stub | live (default none)

EXAMPLES:

  heartscore serve                          # Run the HTTP API
  heartscore score --user 1                 # Score user 1 for today
  heartscore score --all --date 2026-06-14  # Score every user for a day
  heartscore token --scheduler              # Mint a scheduler token`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "keygen" {
			return nil
		}
		// Production won't have a .env file.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger = newLogger(cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	// stdout is reserved for command output and the MCP transport.
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func init() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("heartscore %s\n", version))
}
