package main

import (
	"github.com/spf13/cobra"

	"github.com/zsmartex/tradecore/config"
	"github.com/zsmartex/tradecore/store/gormstore"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := config.NewDatabase(cfg.Database)
			if err != nil {
				return err
			}

			s := gormstore.New(db)
			defer s.Close()

			if err := s.Migrate(); err != nil {
				return err
			}

			config.Logger.Info("Database migrated")

			return nil
		},
	}
}
