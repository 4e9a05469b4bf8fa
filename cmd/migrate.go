package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

const migrationsTable = "rbac_schema_migrations"

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the RBAC schema migrations",
		RunE:  runMigration,
	}
	migrateRollback bool
	migrateStatus   bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the most recent migration")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print applied and pending migrations without changing anything")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	if migrateRollback && migrateStatus {
		return fmt.Errorf("--rollback and --status are mutually exclusive")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	goose.SetTableName(migrationsTable)

	direction := "up"
	switch {
	case migrateStatus:
		direction = "status"
	case migrateRollback:
		direction = "down"
	}

	if err := goose.RunContext(ctx, direction, db, migrateDir); err != nil {
		return fmt.Errorf("goose %s: %w", direction, err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	slog.Info("migration finished", "direction", direction, "version", version, "dir", migrateDir)
	return nil
}
