package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/domain/prediction"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
)

// ScoringService turns fixture results into prediction points.
type ScoringService struct {
	predictionRepo prediction.Repository
	rules          prediction.Rules
	logger         *logging.Logger
	now            func() time.Time
}

func NewScoringService(predictionRepo prediction.Repository, rules prediction.Rules, logger *logging.Logger) *ScoringService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScoringService{
		predictionRepo: predictionRepo,
		rules:          rules,
		logger:         logger,
		now:            time.Now,
	}
}

// ScoreFixture scores every prediction of a finished fixture, or clears
// points when the fixture no longer has a final result. It returns the
// number of predictions scored.
func (s *ScoringService) ScoreFixture(ctx context.Context, f fixture.Fixture) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.ScoreFixture")
	defer span.End()

	result, ok := prediction.ResultOf(f)
	if !ok {
		if err := s.predictionRepo.ClearScores(ctx, f.ID); err != nil {
			return 0, fmt.Errorf("clear scores fixture=%s: %w", f.ID, err)
		}
		return 0, nil
	}

	predictions, err := s.predictionRepo.ListByFixture(ctx, f.ID)
	if err != nil {
		return 0, fmt.Errorf("list predictions fixture=%s: %w", f.ID, err)
	}
	if len(predictions) == 0 {
		return 0, nil
	}

	scores := s.rules.ScoreAll(predictions, result)
	if err := s.predictionRepo.ApplyScores(ctx, scores, s.now().UTC()); err != nil {
		return 0, fmt.Errorf("apply scores fixture=%s: %w", f.ID, err)
	}

	s.logger.InfoContext(ctx, "fixture scored", "fixture_id", f.ID, "predictions", len(scores))
	return len(scores), nil
}

// ScorePrediction rescores one prediction, e.g. after an admin override.
func (s *ScoringService) ScorePrediction(ctx context.Context, f fixture.Fixture, p prediction.Prediction) (prediction.Prediction, error) {
	result, ok := prediction.ResultOf(f)
	if !ok {
		return p, nil
	}

	score := s.rules.Score(p, result)
	scoredAt := s.now().UTC()
	if err := s.predictionRepo.ApplyScores(ctx, []prediction.Score{score}, scoredAt); err != nil {
		return prediction.Prediction{}, fmt.Errorf("apply score prediction=%s: %w", p.ID, err)
	}

	points := score.Points
	p.Points = &points
	p.ExactHit = score.ExactHit
	p.ScoredAt = &scoredAt
	return p, nil
}
