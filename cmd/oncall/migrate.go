package main

import (
	"context"
	"fmt"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/config"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/postgres"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/sqlite"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured storage driver",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			switch cfg.Storage.Driver {
			case config.StoragePostgres:
				err = postgres.Migrate(cfg.Database.URL)
			case config.StorageSQLite:
				err = migrateSQLite(cmd.Context(), cfg)
			default:
				fmt.Printf("storage driver %q has no migrations\n", cfg.Storage.Driver)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Println("migrations applied")
			return nil
		},
	}
}

func migrateSQLite(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLite.Path, BusyTimeout: cfg.SQLite.BusyTimeout})
	if err != nil {
		return err
	}
	defer db.Close()

	return sqlite.Migrate(db)
}
