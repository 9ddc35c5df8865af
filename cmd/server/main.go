package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/anonto42/picgram/backend/internal/logging"
	"github.com/anonto42/picgram/backend/pkg/config"
)

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "picgram",
		Short: "Social graph and feed API",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logging.Init(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Caller: cfg.Logging.Caller,
				Output: os.Stdout,
			})
			return nil
		},
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default)",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the relational schema and exit",
		RunE:  runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo accounts, posts, follows and likes",
		RunE:  runSeed,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Fatal().Err(err).Msg("command failed")
	}
}
