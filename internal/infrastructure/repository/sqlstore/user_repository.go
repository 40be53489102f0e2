package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/plus-predictor/internal/domain/user"
	qb "github.com/riskibarqy/plus-predictor/internal/platform/querybuilder"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Upsert(ctx context.Context, u user.User) error {
	query, args, err := qb.InsertInto("users").
		Columns("id", "email", "display_name", "created_at", "updated_at").
		Values(u.ID, u.Email, u.DisplayName, u.CreatedAt.UTC(), u.UpdatedAt.UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET email = excluded.email, updated_at = excluded.updated_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert user query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("upsert user id=%s: %w", u.ID, err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	query, args, err := qb.Select("*").From("users").
		Where(qb.Eq("id", userID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build select user query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user id=%s: %w", userID, err)
	}
	return row.toDomain(), true, nil
}

func (r *UserRepository) UpdateDisplayName(ctx context.Context, userID, displayName string, updatedAt time.Time) (bool, error) {
	query, args, err := qb.Update("users").
		Set("display_name", displayName).
		Set("updated_at", updatedAt.UTC()).
		Where(qb.Eq("id", userID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update display name query: %w", err)
	}

	ok, err := execAffected(ctx, r.db, query, args)
	if err != nil {
		return false, fmt.Errorf("update display name id=%s: %w", userID, err)
	}
	return ok, nil
}
