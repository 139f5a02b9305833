package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/huddle/internal/shared"
)

// Setup creates the config file when it is missing, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); os.IsNotExist(err) {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			} else {
				r.logger.Info("config file created", "path", r.configPath)
			}
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.Close()

	if !r.config.Google.Configured() {
		r.logger.Warn("google credentials are placeholders; edit the config before running serve", "path", r.configPath)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}

// DBMigrate applies pending migrations.
func (r *Runner) DBMigrate(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.Close()

	return r.writePlain("✓ Database is up to date\n")
}

// DBRollback reverts the most recent migration.
func (r *Runner) DBRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return r.writePlain("✓ Rolled back the latest migration\n")
}

// DBStatus lists applied migrations.
func (r *Runner) DBStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	applied, err := shared.AppliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	r.writePlainHeader("Applied migrations")
	if len(applied) == 0 {
		return r.writePlain("none\n")
	}
	for _, m := range applied {
		r.writePlain("%04d  %s\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
