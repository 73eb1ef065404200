package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lgr, err := setup("migrate")
		if err != nil {
			return err
		}

		db, err := postgres.Connect(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer db.Close()

		version, err := postgres.Migrate(cmd.Context(), db)
		if err != nil {
			return err
		}

		lgr.Info("migrations_applied", "Database schema is up to date", "", map[string]interface{}{
			"schema_version": version,
		})
		return nil
	},
}
