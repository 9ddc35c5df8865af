package main

import (
	"github.com/spf13/cobra"

	"github.com/anonto42/picgram/backend/internal/logging"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/seed"
	"github.com/anonto42/picgram/backend/pkg/config"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	db, err := config.InitDB(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	if err := models.AutoMigrate(db.Postgres); err != nil {
		return err
	}
	logging.Info().Msg("schema migrated")
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	db, err := config.InitDB(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	if err := models.AutoMigrate(db.Postgres); err != nil {
		return err
	}
	_, err = seed.Run(cmd.Context(), db.Postgres)
	return err
}
