package user

import (
	"context"
	"time"
)

type Repository interface {
	// Upsert inserts the user or refreshes its e-mail; an existing display name is kept.
	Upsert(ctx context.Context, u User) error
	GetByID(ctx context.Context, userID string) (User, bool, error)
	UpdateDisplayName(ctx context.Context, userID, displayName string, updatedAt time.Time) (bool, error)
}
