package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"heartscore/internal/adapter/postgres"
	"heartscore/internal/adapter/sqlite"
	"heartscore/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply pending schema migrations to the configured SQL store.

The server also migrates on start; this command lets deploys run the step
on its own. The memory store has no schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			n   int
			err error
		)
		switch cfg.Store {
		case config.StorePostgres:
			n, err = migrateWith("postgres", cfg.DatabaseURL, postgres.Migrate, cmd)
		case config.StoreSQLite:
			if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("create data dir: %w", err)
				}
			}
			n, err = migrateWith("sqlite", cfg.SQLitePath, sqlite.Migrate, cmd)
		default:
			color.Yellow("The %s store has no migrations.", cfg.Store)
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Println("Schema is up to date.")
			return nil
		}
		color.Green("✓ Applied %d migration(s)", n)
		return nil
	},
}

func migrateWith(driver, dsn string, migrate func(context.Context, *sql.DB) (int, error), cmd *cobra.Command) (int, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", driver, err)
	}
	defer func() { _ = db.Close() }()
	return migrate(cmd.Context(), db)
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
