// Package sqlstore implements the domain repositories on database/sql via sqlx.
// Queries are written with "?" placeholders and rebound per driver, so the same
// code runs on SQLite (modernc) and Postgres (lib/pq).
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	_ "modernc.org/sqlite"

	"github.com/riskibarqy/plus-predictor/db/migrations"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const maxTracedQueryLength = 512

var queryWhitespaceRegex = regexp.MustCompile(`\s+`)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects with tracing enabled and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	dsn = normalizeDBURL(driver, dsn)
	system := "sqlite"
	if driver == DriverPostgres {
		system = "postgresql"
	}

	db, err := otelsqlx.Open(driver, dsn,
		otelsql.WithDBSystem(system),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer; serialising connections avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	return db, nil
}

// Migrate applies every embedded migration for the connection's driver.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	driver := db.DriverName()

	src, err := migrations.Source(driver)
	if err != nil {
		return err
	}

	var target database.Driver
	switch driver {
	case DriverSQLite:
		target, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	case DriverPostgres:
		// A dedicated connection keeps the pool usable after migrating.
		conn, connErr := db.Conn(ctx)
		if connErr != nil {
			return fmt.Errorf("acquire migration connection: %w", connErr)
		}
		defer conn.Close()
		target, err = migratepostgres.WithConnection(ctx, conn, &migratepostgres.Config{})
	default:
		return fmt.Errorf("unsupported db driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", driver, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// normalizeDBURL fills in connection options the repositories rely on.
func normalizeDBURL(driver, raw string) string {
	raw = strings.TrimSpace(raw)
	if driver == DriverSQLite {
		return normalizeSQLiteDSN(raw)
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func normalizeSQLiteDSN(raw string) string {
	base, rawQuery, _ := strings.Cut(raw, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return raw
	}

	changed := false
	if query.Get("_time_format") == "" {
		query.Set("_time_format", "sqlite")
		changed = true
	}
	hasForeignKeys := false
	for _, pragma := range query["_pragma"] {
		if strings.HasPrefix(strings.ToLower(pragma), "foreign_keys") {
			hasForeignKeys = true
		}
	}
	if !hasForeignKeys {
		query.Add("_pragma", "foreign_keys(1)")
		changed = true
	}
	if !changed {
		return raw
	}
	return base + "?" + query.Encode()
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "file:") {
		name, _, _ := strings.Cut(strings.TrimPrefix(trimmed, "file:"), "?")
		return path.Base(name)
	}

	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
		if name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(token, "dbname="))
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}

	return ""
}

func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}
