package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-forecast/internal/cli"
	"github.com/Veraticus/spice-forecast/internal/config"
	"github.com/Veraticus/spice-forecast/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Other commands migrate automatically; use this to prepare a database ahead
of time or to check its schema version.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")
	dbPath := config.DatabasePath(viper.GetString(config.KeyDatabasePath))

	slog.Info("Starting database migration", "database", dbPath, "status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()

	if !status {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	summary := fmt.Sprintf("Database: %s\nSchema version: %d of %d", store.Path(), version, storage.ExpectedSchemaVersion)
	if _, err := fmt.Fprintln(out, cli.RenderBox("🗄️  Database Migration Status", summary)); err != nil {
		return err
	}

	if version == storage.ExpectedSchemaVersion {
		_, err = fmt.Fprintln(out, cli.FormatSuccess("Database schema is up to date"))
	} else {
		_, err = fmt.Fprintln(out, cli.FormatWarning("Database needs migration: run spice migrate"))
	}
	return err
}
