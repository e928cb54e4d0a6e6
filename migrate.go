package main

import (
	"fmt"
	"log/slog"

	"github.com/krshsl/sensai/backend/repository"
	svc "github.com/krshsl/sensai/backend/services"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		database, err := openDatabase(cmd.Context(), svc.LoadConfig())
		if err != nil {
			return err
		}
		defer database.Close()

		if err := repository.NewGORMRepository(database.DB).AutoMigrate(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		slog.Info("Database migrations completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
