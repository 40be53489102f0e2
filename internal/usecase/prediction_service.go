package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/domain/prediction"
	idgen "github.com/riskibarqy/plus-predictor/internal/platform/id"
)

type SubmitPredictionInput struct {
	UserID    string
	FixtureID string
	HomeScore int
	AwayScore int
	Scorer    string
}

type OverridePredictionInput struct {
	HomeScore int
	AwayScore int
	Scorer    string
}

// PredictionWithFixture pairs a prediction with the fixture it targets.
type PredictionWithFixture struct {
	Prediction prediction.Prediction
	Fixture    fixture.Fixture
}

type PredictionService struct {
	fixtureRepo    fixture.Repository
	predictionRepo prediction.Repository
	scoring        *ScoringService
	lockLead       time.Duration
	idGen          idgen.Generator
	now            func() time.Time
}

func NewPredictionService(
	fixtureRepo fixture.Repository,
	predictionRepo prediction.Repository,
	scoring *ScoringService,
	lockLead time.Duration,
	idGen idgen.Generator,
) *PredictionService {
	return &PredictionService{
		fixtureRepo:    fixtureRepo,
		predictionRepo: predictionRepo,
		scoring:        scoring,
		lockLead:       lockLead,
		idGen:          idGen,
		now:            time.Now,
	}
}

// Submit creates or replaces the caller's prediction while the fixture is open.
func (s *PredictionService) Submit(ctx context.Context, input SubmitPredictionInput) (prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Submit")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.FixtureID = strings.TrimSpace(input.FixtureID)
	input.Scorer = strings.TrimSpace(input.Scorer)
	if input.UserID == "" {
		return prediction.Prediction{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	item, err := s.getFixture(ctx, input.FixtureID)
	if err != nil {
		return prediction.Prediction{}, err
	}

	now := s.now().UTC()
	if !item.IsOpenForPredictions(now, s.lockLead) {
		return prediction.Prediction{}, fmt.Errorf("%w: fixture=%s", prediction.ErrLocked, item.ID)
	}

	predictionID, err := s.idGen.NewID()
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("generate prediction id: %w", err)
	}

	p := prediction.Prediction{
		ID:        predictionID,
		UserID:    input.UserID,
		FixtureID: item.ID,
		HomeScore: input.HomeScore,
		AwayScore: input.AwayScore,
		Scorer:    input.Scorer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return prediction.Prediction{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	saved, err := s.predictionRepo.Upsert(ctx, p)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("upsert prediction: %w", err)
	}
	return saved, nil
}

// ListMine returns the caller's predictions with fixtures, most recent kickoff first.
func (s *PredictionService) ListMine(ctx context.Context, userID string) ([]PredictionWithFixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ListMine")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	predictions, err := s.predictionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list predictions by user: %w", err)
	}
	return s.attachFixtures(ctx, predictions)
}

// ListForFixture exposes everyone's predictions once the fixture is locked.
func (s *PredictionService) ListForFixture(ctx context.Context, fixtureID string) ([]prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ListForFixture")
	defer span.End()

	item, err := s.getFixture(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	if item.IsOpenForPredictions(s.now().UTC(), s.lockLead) {
		return nil, fmt.Errorf("%w: fixture=%s", prediction.ErrHidden, item.ID)
	}

	items, err := s.predictionRepo.ListByFixture(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list predictions by fixture: %w", err)
	}
	return items, nil
}

func (s *PredictionService) AdminList(ctx context.Context, filter prediction.Filter) ([]prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.AdminList")
	defer span.End()

	filter.FixtureID = strings.TrimSpace(filter.FixtureID)
	filter.UserID = strings.TrimSpace(filter.UserID)
	items, err := s.predictionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return items, nil
}

// AdminOverride replaces a prediction regardless of lock and rescores it
// when the fixture already has a final result.
func (s *PredictionService) AdminOverride(ctx context.Context, predictionID string, input OverridePredictionInput) (prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.AdminOverride")
	defer span.End()

	p, err := s.getPrediction(ctx, predictionID)
	if err != nil {
		return prediction.Prediction{}, err
	}

	p.HomeScore = input.HomeScore
	p.AwayScore = input.AwayScore
	p.Scorer = strings.TrimSpace(input.Scorer)
	p.UpdatedAt = s.now().UTC()
	if err := p.Validate(); err != nil {
		return prediction.Prediction{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.predictionRepo.Update(ctx, p)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("update prediction: %w", err)
	}
	if !updated {
		return prediction.Prediction{}, fmt.Errorf("%w: prediction=%s", ErrNotFound, p.ID)
	}

	item, err := s.getFixture(ctx, p.FixtureID)
	if err != nil {
		return prediction.Prediction{}, err
	}
	return s.scoring.ScorePrediction(ctx, item, p)
}

func (s *PredictionService) AdminDelete(ctx context.Context, predictionID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.AdminDelete")
	defer span.End()

	predictionID = strings.TrimSpace(predictionID)
	if predictionID == "" {
		return fmt.Errorf("%w: prediction id is required", ErrInvalidInput)
	}

	deleted, err := s.predictionRepo.Delete(ctx, predictionID)
	if err != nil {
		return fmt.Errorf("delete prediction: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: prediction=%s", ErrNotFound, predictionID)
	}
	return nil
}

func (s *PredictionService) attachFixtures(ctx context.Context, predictions []prediction.Prediction) ([]PredictionWithFixture, error) {
	if len(predictions) == 0 {
		return []PredictionWithFixture{}, nil
	}

	ids := make([]string, 0, len(predictions))
	for _, p := range predictions {
		ids = append(ids, p.FixtureID)
	}
	fixtures, err := s.fixtureRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list fixtures for predictions: %w", err)
	}
	byID := make(map[string]fixture.Fixture, len(fixtures))
	for _, f := range fixtures {
		byID[f.ID] = f
	}

	out := make([]PredictionWithFixture, 0, len(predictions))
	for _, p := range predictions {
		f, ok := byID[p.FixtureID]
		if !ok {
			continue
		}
		out = append(out, PredictionWithFixture{Prediction: p, Fixture: f})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Fixture.KickoffAt.After(out[j].Fixture.KickoffAt)
	})
	return out, nil
}

func (s *PredictionService) getFixture(ctx context.Context, fixtureID string) (fixture.Fixture, error) {
	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get fixture: %w", err)
	}
	if !exists {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, fixtureID)
	}
	return item, nil
}

func (s *PredictionService) getPrediction(ctx context.Context, predictionID string) (prediction.Prediction, error) {
	predictionID = strings.TrimSpace(predictionID)
	if predictionID == "" {
		return prediction.Prediction{}, fmt.Errorf("%w: prediction id is required", ErrInvalidInput)
	}

	p, exists, err := s.predictionRepo.GetByID(ctx, predictionID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get prediction: %w", err)
	}
	if !exists {
		return prediction.Prediction{}, fmt.Errorf("%w: prediction=%s", ErrNotFound, predictionID)
	}
	return p, nil
}

