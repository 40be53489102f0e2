package league

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateInviteCode is returned by Create when the invite code collides.
var ErrDuplicateInviteCode = errors.New("invite code already taken")

type Repository interface {
	// Create inserts the league and its owner membership in one transaction.
	Create(ctx context.Context, l League, owner Member) error
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
	GetByInviteCode(ctx context.Context, inviteCode string) (League, bool, error)
	ListByUser(ctx context.Context, userID string) ([]League, error)
	ListAll(ctx context.Context) ([]League, error)
	Rename(ctx context.Context, leagueID, name string, updatedAt time.Time) (bool, error)
	SoftDelete(ctx context.Context, leagueID string, deletedAt time.Time) (bool, error)
	GetMember(ctx context.Context, leagueID, userID string) (Member, bool, error)
	// AddMember reports false when the user already belongs to the league.
	AddMember(ctx context.Context, m Member) (bool, error)
	RemoveMember(ctx context.Context, leagueID, userID string) (bool, error)
}
