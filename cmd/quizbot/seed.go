package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	coredatabase "github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/internal/app"
	"github.com/m3rciful/quizbot/internal/storage/postgres"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load quizzes from a YAML file, skipping existing titles",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadWithLogger(cmd)
		if err != nil {
			return err
		}
		if cfg.Storage.Backend != app.StoragePostgres {
			return errors.New("seed: storage.backend is not postgres")
		}
		path := cfg.Seed.File
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return errors.New("seed: no file given and seed.file is empty")
		}

		f, err := app.ReadSeedFile(path)
		if err != nil {
			return err
		}
		db, err := coredatabase.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		created, err := app.SeedQuizzes(cmd.Context(), postgres.New(db), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d of %d quizzes\n", created, len(f.Quizzes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
