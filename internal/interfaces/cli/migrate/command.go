package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gymdesk/accessbridge/internal/infrastructure/database"
	"github.com/gymdesk/accessbridge/internal/infrastructure/migration"
	"github.com/gymdesk/accessbridge/internal/interfaces/cli/bootstrap"
)

var (
	env          string
	configPath   string
	steps        int
	withPlatform bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Create and upgrade the tables owned by the access bridge: vendor settings, zones, rules, credentials, events, sessions and the sync log.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Long:  `Apply pending SQL migrations (MySQL) or auto-migrate the models (sqlite).`,
		RunE:  runUp,
	}

	cmd.Flags().BoolVar(&withPlatform, "with-platform", false, "Also create the platform member tables (sqlite only)")

	return cmd
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

func runUp(cmd *cobra.Command, args []string) error {
	e, err := bootstrap.Init(env, configPath, false)
	if err != nil {
		return err
	}
	defer e.Close()

	strategy := migration.NewStrategy(e.Config.Database.Driver, withPlatform, e.Log)
	e.Log.Infow("running up migrations", "environment", env, "strategy", strategy.GetName())

	if err := strategy.Migrate(e.DB); err != nil {
		e.Log.Errorw("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	e.Log.Infow("migrations completed successfully")
	return nil
}

func gooseFor(e *bootstrap.Env, op string) (*migration.GooseStrategy, error) {
	if e.Config.Database.Driver == database.DriverSQLite {
		return nil, fmt.Errorf("%s is only supported with goose strategy (mysql)", op)
	}
	return migration.NewGooseStrategy(e.Log), nil
}

func runDown(cmd *cobra.Command, args []string) error {
	e, err := bootstrap.Init(env, configPath, false)
	if err != nil {
		return err
	}
	defer e.Close()

	goose, err := gooseFor(e, "down migration")
	if err != nil {
		return err
	}

	e.Log.Infow("running down migrations", "environment", env, "steps", steps)
	if err := goose.MigrateDown(e.DB, steps); err != nil {
		e.Log.Errorw("down migration failed", "error", err)
		return fmt.Errorf("down migration failed: %w", err)
	}

	e.Log.Infow("down migration completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := bootstrap.Init(env, configPath, false)
	if err != nil {
		return err
	}
	defer e.Close()

	goose, err := gooseFor(e, "status check")
	if err != nil {
		return err
	}

	version, err := goose.GetVersion(e.DB)
	if err != nil {
		e.Log.Errorw("failed to get migration version", "error", err)
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nMigration Status:\n")
	fmt.Fprintf(out, "  Environment:     %s\n", env)
	fmt.Fprintf(out, "  Current Version: %d\n", version)

	if err := goose.Status(e.DB); err != nil {
		e.Log.Errorw("failed to get detailed status", "error", err)
		return fmt.Errorf("failed to get detailed status: %w", err)
	}
	return nil
}
