package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qs3c/datawarfare_server/config"
	"github.com/qs3c/datawarfare_server/internal/database"
	"github.com/qs3c/datawarfare_server/internal/pkg/cron"
	"github.com/qs3c/datawarfare_server/internal/repository"
	"github.com/qs3c/datawarfare_server/internal/service"
)

func newRecountCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "recount",
		Short: "reconcile analyses_count with the analyses table once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			db, err := database.NewMySQL(&cfg.Database)
			if err != nil {
				return fmt.Errorf("connecting database: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			quota := service.NewQuotaService(repository.NewProfileRepository(db), cfg)
			n, err := cron.NewService(quota, 0).RunNow(cmd.Context())
			if err != nil {
				return err
			}

			log.Info().Int64("profiles", n).Msg("recount finished")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d profile(s) corrected\n", n)
			return err
		},
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	cmd.Flags().StringVar(&configPath, "config", defaultPath, "config file location")
	return cmd
}
