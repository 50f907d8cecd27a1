package main

import (
	"github.com/spf13/cobra"

	"susu-app-go/internal/config"
	"susu-app-go/internal/db"
	"susu-app-go/pkg/logger"
)

func migrateCmd(log logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(log)
			if err != nil {
				return err
			}
			if err := db.Migrate(cfg.DB, log); err != nil {
				return err
			}
			log.Info("db: migrations applied")
			return nil
		},
	}
}
