package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/internal/config"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	"github.com/fastygo/taskboard/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(pgInfra.Up), string(pgInfra.Down)},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := pgInfra.Up
		if len(args) == 1 {
			dir = pgInfra.Direction(args[0])
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		log := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
		defer func() { _ = log.Sync() }()

		return pgInfra.Migrate(cfg, dir, log)
	},
}
