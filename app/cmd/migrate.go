package main

import (
	"errors"

	"github.com/spf13/cobra"

	"testbrain/app/config"
	"testbrain/internal/infrastructure/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply postgres migrations for the relational test case store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is not set")
		}
		return postgres.Migrate(cfg.Storage.PostgresDSN, logger)
	},
}
