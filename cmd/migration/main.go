package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/plus-predictor/internal/infrastructure/repository/sqlstore"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
)

type options struct {
	driver string
	dbURL  string
	dir    string
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(logging.NewJSON(logging.LevelInfo)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(logger *logging.Logger) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "migration",
		Short:         "Apply and inspect +Predictor schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.driver, "driver", envOr("DB_DRIVER", sqlstore.DriverSQLite), "database driver (sqlite or postgres)")
	root.PersistentFlags().StringVar(&opts.dbURL, "db-url", envOr("DB_URL", ""), "database connection string")
	root.PersistentFlags().StringVar(&opts.dir, "dir", envOr("MIGRATIONS_DIR", ""), "read migrations from <dir>/<driver> instead of the embedded copy")

	root.AddCommand(
		upCmd(opts, logger),
		downCmd(opts, logger),
		versionCmd(opts),
		forceCmd(opts, logger),
		gotoCmd(opts, logger),
	)
	return root
}

func upCmd(opts *options, logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd.Context(), opts, logger, func(m *migrate.Migrate) error {
				if err := ignoreNoChange(m.Up(), logger); err != nil {
					return fmt.Errorf("apply migrations: %w", err)
				}
				logger.Info("migrations applied", "driver", opts.driver)
				return nil
			})
		},
	}
}

func downCmd(opts *options, logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back the last N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := parseSteps(args)
			if err != nil {
				return err
			}
			return withMigrator(cmd.Context(), opts, logger, func(m *migrate.Migrate) error {
				if err := ignoreNoChange(m.Steps(-steps), logger); err != nil {
					return fmt.Errorf("roll back %d migration(s): %w", steps, err)
				}
				logger.Info("migrations rolled back", "steps", steps)
				return nil
			})
		},
	}
}

func versionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd.Context(), opts, logging.NewNop(), func(m *migrate.Migrate) error {
				out := cmd.OutOrStdout()
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(out, "version: none")
					fmt.Fprintln(out, "dirty: false")
					return nil
				}
				if err != nil {
					return fmt.Errorf("read version: %w", err)
				}
				fmt.Fprintf(out, "version: %d\n", version)
				fmt.Fprintf(out, "dirty: %t\n", dirty)
				return nil
			})
		},
	}
}

func forceCmd(opts *options, logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd.Context(), opts, logger, func(m *migrate.Migrate) error {
				if err := m.Force(version); err != nil {
					return fmt.Errorf("force version %d: %w", version, err)
				}
				logger.Info("schema version forced", "version", version)
				return nil
			})
		},
	}
}

func gotoCmd(opts *options, logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:     "goto <version>",
		Aliases: []string{"migrate"},
		Short:   "Migrate up or down to the given version",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd.Context(), opts, logger, func(m *migrate.Migrate) error {
				if err := ignoreNoChange(m.Migrate(target), logger); err != nil {
					return fmt.Errorf("migrate to %d: %w", target, err)
				}
				logger.Info("migrated to version", "version", target)
				return nil
			})
		},
	}
}

func withMigrator(ctx context.Context, opts *options, logger *logging.Logger, fn func(*migrate.Migrate) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(opts.dbURL) == "" {
		return errors.New("DB_URL (or --db-url) is required")
	}

	db, err := sqlstore.Open(ctx, opts.driver, opts.dbURL)
	if err != nil {
		return err
	}
	m, err := sqlstore.NewMigrator(db, opts.dir)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("close migration source", "error", srcErr)
		}
		if dbErr != nil {
			logger.Warn("close migration db", "error", dbErr)
		}
	}()

	return fn(m)
}

func ignoreNoChange(err error, logger *logging.Logger) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	return err
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}

	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < -1 {
		return 0, fmt.Errorf("version must be >= -1")
	}
	if value > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("version is too large for this platform")
	}

	return int(value), nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
