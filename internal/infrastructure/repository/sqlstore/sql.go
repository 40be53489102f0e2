package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation matches SQLite and Postgres unique-constraint failures.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "unique constraint failed") ||
		strings.Contains(text, "duplicate key value") ||
		strings.Contains(text, "(23505)")
}

func withTx(ctx context.Context, db *sqlx.DB, name string, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx %s: %w", name, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx %s: %w", name, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

// execAffected runs a built statement and reports whether any row changed.
func execAffected(ctx context.Context, db execer, query string, args []any) (bool, error) {
	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func nullIntToPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	out := int(v.Int64)
	return &out
}

func ptrToNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTimeToPtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	out := v.Time.UTC()
	return &out
}

func ptrToNullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}

func encodeStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	raw, err := sonic.MarshalString(values)
	if err != nil {
		return "", fmt.Errorf("encode string list: %w", err)
	}
	return raw, nil
}

func decodeStrings(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return nil
	}
	var out []string
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		return nil
	}
	return out
}
