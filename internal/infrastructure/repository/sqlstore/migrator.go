package sqlstore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/plus-predictor/db/migrations"
)

// NewMigrator returns a migrator bound to db for step-wise operations.
// Migrations are read from dir/<driver> when dir is set, otherwise from the
// embedded copy. Closing the migrator closes db.
func NewMigrator(db *sqlx.DB, dir string) (*migrate.Migrate, error) {
	driver := db.DriverName()

	src, sourceName, err := openMigrationSource(driver, dir)
	if err != nil {
		return nil, err
	}

	var target database.Driver
	switch driver {
	case DriverSQLite:
		target, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	case DriverPostgres:
		target, err = migratepostgres.WithInstance(db.DB, &migratepostgres.Config{})
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("create %s migration driver: %w", driver, err)
	}

	m, err := migrate.NewWithInstance(sourceName, src, driver, target)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

func openMigrationSource(driver, dir string) (source.Driver, string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		src, err := migrations.Source(driver)
		return src, "iofs", err
	}

	abs, err := filepath.Abs(filepath.Join(dir, driver))
	if err != nil {
		return nil, "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	src, err := source.Open("file://" + filepath.ToSlash(abs))
	if err != nil {
		return nil, "", fmt.Errorf("open migrations dir %s: %w", abs, err)
	}
	return src, "file", nil
}
