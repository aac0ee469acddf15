package main

import (
	"errors"

	"github.com/spf13/cobra"

	coredatabase "github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadWithLogger(cmd)
		if err != nil {
			return err
		}
		if cfg.Storage.Backend != app.StoragePostgres {
			return errors.New("migrate: storage.backend is not postgres")
		}
		return coredatabase.Migrate(cmd.Context(), cfg.Database)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
