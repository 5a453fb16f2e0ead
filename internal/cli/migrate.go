package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DaanHessen/rabbithole/internal/store"
	"github.com/DaanHessen/rabbithole/internal/util"
)

const migrateTimeout = 30 * time.Second

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate <up|down|version>",
		Short: "Apply or roll back the progress store schema",
		Long: `Apply or roll back the schema of the sql progress stores.

Only the postgres and sqlite drivers carry a schema. sqlite is also migrated
automatically whenever it is opened.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
			defer cancel()
			return runMigrate(ctx, rootOpts.Config, args[0], cmd)
		},
	}
	return cmd
}

func runMigrate(ctx context.Context, cfg util.Config, action string, cmd *cobra.Command) error {
	driver := strings.ToLower(cfg.StoreDriver)
	var target string
	switch driver {
	case util.DriverPostgres:
		target = cfg.DSN
	case util.DriverSQLite:
		target = cfg.StorePath
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("store driver %q has no schema to migrate", cfg.StoreDriver))
	}
	migrator, err := store.NewMigrator(driver, target)
	if err != nil {
		return WrapExitError(ExitCommandError, "migrations init failed", err)
	}
	out := cmd.OutOrStdout()
	switch action {
	case "up":
		if err := migrator.Up(ctx); err != nil && !errors.Is(err, store.ErrNoChange) {
			return WrapExitError(ExitFailure, "migrations failed", err)
		}
		_, err = fmt.Fprintln(out, "Migrations applied")
		return err
	case "down":
		if err := migrator.Down(ctx); err != nil && !errors.Is(err, store.ErrNoChange) {
			return WrapExitError(ExitFailure, "rollback failed", err)
		}
		_, err = fmt.Fprintln(out, "Migrations rolled back")
		return err
	case "version":
		v, dirty, err := migrator.Version(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "read schema version", err)
		}
		suffix := ""
		if dirty {
			suffix = " (dirty)"
		}
		_, err = fmt.Fprintf(out, "Schema version %d%s\n", v, suffix)
		return err
	}
	return NewExitError(ExitCommandError, "unknown migrate action; use up|down|version")
}
