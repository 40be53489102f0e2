package prediction

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
)

var (
	// ErrLocked is returned when the fixture no longer accepts predictions.
	ErrLocked = errors.New("predictions are locked for this fixture")
	// ErrHidden is returned when other users' predictions are requested before lock.
	ErrHidden = errors.New("predictions are hidden until the fixture locks")
)

const MaxScorerLength = 80

// Prediction is one user's guess for one fixture. Points and ScoredAt stay nil
// until the fixture has a final result.
type Prediction struct {
	ID        string
	UserID    string
	FixtureID string
	HomeScore int
	AwayScore int
	Scorer    string
	Points    *int
	ExactHit  bool
	ScoredAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	// DisplayName is filled by listings that join the user.
	DisplayName string
}

func (p Prediction) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(p.FixtureID) == "" {
		return fmt.Errorf("fixture id is required")
	}
	if err := fixture.ValidateScore(&p.HomeScore); err != nil {
		return fmt.Errorf("home score: %w", err)
	}
	if err := fixture.ValidateScore(&p.AwayScore); err != nil {
		return fmt.Errorf("away score: %w", err)
	}
	if utf8.RuneCountInString(p.Scorer) > MaxScorerLength {
		return fmt.Errorf("scorer must be at most %d characters", MaxScorerLength)
	}
	return nil
}

// Filter narrows admin listings; empty fields mean "any".
type Filter struct {
	FixtureID string
	UserID    string
}

// Score is the outcome of scoring one prediction.
type Score struct {
	PredictionID string
	Points       int
	ExactHit     bool
}
