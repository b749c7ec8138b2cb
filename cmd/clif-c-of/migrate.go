package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/clif-c-of-mcp-server/internal/database"
)

func migrateCmd(flags *globalFlags) *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run PostgreSQL history migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (default: history.postgres_url)")

	// withRunner resolves the database URL and runs fn with a migration runner.
	withRunner := func(fn func(runner *database.MigrationRunner) error) error {
		a, err := loadApp(flags)
		if err != nil {
			return err
		}
		defer a.Close()

		url := databaseURL
		if url == "" {
			url = a.config.History.PostgresURL
		}
		if url == "" {
			return fmt.Errorf("no database URL: set --database-url or history.postgres_url")
		}

		runner, err := database.NewMigrationRunner(url, a.logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := runner.Close(); err != nil {
				a.logger.WithError(err).Warn("Failed to close migration runner")
			}
		}()
		return fn(runner)
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(runner *database.MigrationRunner) error {
				return runner.Up(cmd.Context())
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(runner *database.MigrationRunner) error {
				return runner.Down(cmd.Context())
			})
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(runner *database.MigrationRunner) error {
				v, dirty, err := runner.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, versionCmd)
	return cmd
}
