package team

import (
	"context"
	"errors"
)

// ErrInUse is returned when deleting a team still referenced by fixtures.
var ErrInUse = errors.New("team is referenced by fixtures")

type Repository interface {
	List(ctx context.Context) ([]Team, error)
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	ListByIDs(ctx context.Context, teamIDs []string) ([]Team, error)
	Create(ctx context.Context, t Team) error
	Update(ctx context.Context, t Team) (bool, error)
	Delete(ctx context.Context, teamID string) (bool, error)
}
