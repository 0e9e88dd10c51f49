package cmd

import (
	"github.com/dataweston/Dinewith/pkg/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back applied migrations",
	RunE:  runMigrateDown,
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE:  runMigrateVersion,
}

var downSteps int

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back, 0 for all")
	migrateCmd.AddCommand(migrateDownCmd, migrateVersionCmd)
}

func withMigrator(fn func(*database.Migrator, *zap.Logger) error) error {
	config, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	migrator, err := database.NewMigrator(config.Database, logger)
	if err != nil {
		logger.Error("Failed to open migrator", zap.Error(err))
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	return fn(migrator, logger)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	return withMigrator(func(m *database.Migrator, logger *zap.Logger) error {
		if err := m.Up(); err != nil {
			logger.Error("Migration failed", zap.Error(err))
			return err
		}
		version, _, err := m.Version()
		if err != nil {
			return err
		}
		logger.Info("Migrations applied", zap.Uint("version", version))
		return nil
	})
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	return withMigrator(func(m *database.Migrator, logger *zap.Logger) error {
		if err := m.Down(downSteps); err != nil {
			logger.Error("Rollback failed", zap.Error(err))
			return err
		}
		version, _, err := m.Version()
		if err != nil {
			return err
		}
		logger.Info("Migrations rolled back", zap.Int("steps", downSteps), zap.Uint("version", version))
		return nil
	})
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	return withMigrator(func(m *database.Migrator, logger *zap.Logger) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		logger.Info("Schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	})
}
