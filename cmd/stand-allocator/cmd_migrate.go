package main

import (
	"errors"
	"fmt"

	"github.com/sllynn/airport-stand-allocation/internal/config"
	pgrepo "github.com/sllynn/airport-stand-allocation/internal/infrastructures/db/postgres/repo"
	"github.com/sllynn/airport-stand-allocation/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the snapshot and allocation run tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(config.ResolvePath(configPath))
		if err != nil {
			return err
		}
		log := setupLogger(cfg.Log.Level)
		defer func() {
			_ = log.Sync()
		}()

		if !cfg.DB.Enabled() {
			return errors.New("postgres is not configured: set db.host or DATABASE_URL")
		}

		repo, err := pgrepo.New(cmd.Context(), cfg.DB.DSN())
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer repo.Close()

		applied, err := repo.Migrate(cmd.Context(), migrations.FS)
		if err != nil {
			return err
		}
		log.Info("migrations applied", zap.Strings("files", applied))
		return nil
	},
}
