// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/plus-predictor/internal/infrastructure/repository/sqlstore"
)

var seq atomic.Int64

// Open returns a fresh, migrated database private to t and closed on cleanup.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	ctx := context.Background()
	db, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlstore.Migrate(ctx, db))
	return db
}
