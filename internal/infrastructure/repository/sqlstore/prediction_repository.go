package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/plus-predictor/internal/domain/prediction"
	qb "github.com/riskibarqy/plus-predictor/internal/platform/querybuilder"
)

var predictionColumns = []string{
	"p.id", "p.user_id", "p.fixture_id", "p.home_score", "p.away_score", "p.scorer",
	"p.points", "p.exact_hit", "p.scored_at", "p.created_at", "p.updated_at",
	"u.display_name", "u.email",
}

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func selectPredictions() *qb.SelectBuilder {
	return qb.Select(predictionColumns...).
		From("predictions p").
		LeftJoin("users u ON u.id = p.user_id")
}

func (r *PredictionRepository) Upsert(ctx context.Context, p prediction.Prediction) (prediction.Prediction, error) {
	query, args, err := qb.InsertInto("predictions").
		Columns("id", "user_id", "fixture_id", "home_score", "away_score", "scorer",
			"points", "exact_hit", "scored_at", "created_at", "updated_at").
		Values(p.ID, p.UserID, p.FixtureID, p.HomeScore, p.AwayScore, p.Scorer,
			nil, false, nil, p.CreatedAt.UTC(), p.UpdatedAt.UTC()).
		Suffix(`ON CONFLICT (user_id, fixture_id) DO UPDATE SET
	home_score = excluded.home_score,
	away_score = excluded.away_score,
	scorer = excluded.scorer,
	points = NULL,
	exact_hit = FALSE,
	scored_at = NULL,
	updated_at = excluded.updated_at`).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("build upsert prediction query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return prediction.Prediction{}, fmt.Errorf("upsert prediction user=%s fixture=%s: %w", p.UserID, p.FixtureID, err)
	}

	saved, exists, err := r.GetByUserAndFixture(ctx, p.UserID, p.FixtureID)
	if err != nil {
		return prediction.Prediction{}, err
	}
	if !exists {
		return prediction.Prediction{}, fmt.Errorf("prediction user=%s fixture=%s vanished after upsert", p.UserID, p.FixtureID)
	}
	return saved, nil
}

func (r *PredictionRepository) GetByID(ctx context.Context, predictionID string) (prediction.Prediction, bool, error) {
	return r.getOne(ctx, qb.Eq("p.id", predictionID))
}

func (r *PredictionRepository) GetByUserAndFixture(ctx context.Context, userID, fixtureID string) (prediction.Prediction, bool, error) {
	return r.getOne(ctx, qb.Eq("p.user_id", userID), qb.Eq("p.fixture_id", fixtureID))
}

func (r *PredictionRepository) ListByUser(ctx context.Context, userID string) ([]prediction.Prediction, error) {
	return r.List(ctx, prediction.Filter{UserID: userID})
}

func (r *PredictionRepository) ListByFixture(ctx context.Context, fixtureID string) ([]prediction.Prediction, error) {
	return r.List(ctx, prediction.Filter{FixtureID: fixtureID})
}

func (r *PredictionRepository) List(ctx context.Context, filter prediction.Filter) ([]prediction.Prediction, error) {
	builder := selectPredictions()
	if filter.UserID != "" {
		builder.Where(qb.Eq("p.user_id", filter.UserID))
	}
	if filter.FixtureID != "" {
		builder.Where(qb.Eq("p.fixture_id", filter.FixtureID))
	}

	query, args, err := builder.OrderBy("p.created_at DESC", "p.id ASC").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select predictions query: %w", err)
	}

	var rows []predictionRowModel
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select predictions: %w", err)
	}

	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PredictionRepository) Update(ctx context.Context, p prediction.Prediction) (bool, error) {
	query, args, err := qb.Update("predictions").
		Set("home_score", p.HomeScore).
		Set("away_score", p.AwayScore).
		Set("scorer", p.Scorer).
		Set("updated_at", p.UpdatedAt.UTC()).
		Where(qb.Eq("id", p.ID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update prediction query: %w", err)
	}
	ok, err := execAffected(ctx, r.db, query, args)
	if err != nil {
		return false, fmt.Errorf("update prediction id=%s: %w", p.ID, err)
	}
	return ok, nil
}

func (r *PredictionRepository) Delete(ctx context.Context, predictionID string) (bool, error) {
	query, args, err := qb.DeleteFrom("predictions").Where(qb.Eq("id", predictionID)).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete prediction query: %w", err)
	}
	ok, err := execAffected(ctx, r.db, query, args)
	if err != nil {
		return false, fmt.Errorf("delete prediction id=%s: %w", predictionID, err)
	}
	return ok, nil
}

func (r *PredictionRepository) ApplyScores(ctx context.Context, scores []prediction.Score, scoredAt time.Time) error {
	if len(scores) == 0 {
		return nil
	}
	return withTx(ctx, r.db, "apply scores", func(tx *sqlx.Tx) error {
		for _, s := range scores {
			query, args, err := qb.Update("predictions").
				Set("points", s.Points).
				Set("exact_hit", s.ExactHit).
				Set("scored_at", scoredAt.UTC()).
				Where(qb.Eq("id", s.PredictionID)).
				ToSQL()
			if err != nil {
				return fmt.Errorf("build apply score query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
				return fmt.Errorf("apply score prediction=%s: %w", s.PredictionID, err)
			}
		}
		return nil
	})
}

func (r *PredictionRepository) ClearScores(ctx context.Context, fixtureID string) error {
	query, args, err := qb.Update("predictions").
		Set("points", nil).
		Set("exact_hit", false).
		Set("scored_at", nil).
		Where(qb.Eq("fixture_id", fixtureID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear scores query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("clear scores fixture=%s: %w", fixtureID, err)
	}
	return nil
}

func (r *PredictionRepository) getOne(ctx context.Context, where ...qb.Condition) (prediction.Prediction, bool, error) {
	query, args, err := selectPredictions().Where(where...).Limit(1).ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build select prediction query: %w", err)
	}

	var row predictionRowModel
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("get prediction: %w", err)
	}
	return row.toDomain(), true, nil
}
