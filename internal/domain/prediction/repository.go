package prediction

import (
	"context"
	"time"
)

type Repository interface {
	// Upsert creates or replaces the (user, fixture) prediction and clears any score.
	Upsert(ctx context.Context, p Prediction) (Prediction, error)
	GetByID(ctx context.Context, predictionID string) (Prediction, bool, error)
	GetByUserAndFixture(ctx context.Context, userID, fixtureID string) (Prediction, bool, error)
	ListByUser(ctx context.Context, userID string) ([]Prediction, error)
	ListByFixture(ctx context.Context, fixtureID string) ([]Prediction, error)
	List(ctx context.Context, filter Filter) ([]Prediction, error)
	Update(ctx context.Context, p Prediction) (bool, error)
	Delete(ctx context.Context, predictionID string) (bool, error)
	// ApplyScores stores points for a fixture's predictions in one transaction.
	ApplyScores(ctx context.Context, scores []Score, scoredAt time.Time) error
	// ClearScores resets points for a fixture whose result was withdrawn.
	ClearScores(ctx context.Context, fixtureID string) error
}
