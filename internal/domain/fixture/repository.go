package fixture

import (
	"context"
	"time"
)

type Repository interface {
	List(ctx context.Context, filter Filter) ([]Fixture, error)
	GetByID(ctx context.Context, fixtureID string) (Fixture, bool, error)
	ListByIDs(ctx context.Context, fixtureIDs []string) ([]Fixture, error)
	// ListOpenWithoutPrediction returns scheduled fixtures kicking off after
	// from that userID has not predicted yet, soonest first.
	ListOpenWithoutPrediction(ctx context.Context, userID string, from time.Time, limit int) ([]Fixture, error)
	Create(ctx context.Context, f Fixture) error
	Update(ctx context.Context, f Fixture) (bool, error)
	// Delete removes the fixture together with its predictions.
	Delete(ctx context.Context, fixtureID string) (bool, error)
}
