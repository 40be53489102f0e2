package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	qb "github.com/riskibarqy/plus-predictor/internal/platform/querybuilder"
)

var fixtureColumns = []string{
	"f.id", "f.competition", "f.matchday", "f.home_team_id", "f.away_team_id",
	"f.kickoff_at", "f.venue", "f.status", "f.home_score", "f.away_score", "f.scorers",
	"f.created_at", "f.updated_at",
	"h.name AS home_team_name", "a.name AS away_team_name",
}

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func selectFixtures() *qb.SelectBuilder {
	return qb.Select(fixtureColumns...).
		From("fixtures f").
		LeftJoin("teams h ON h.id = f.home_team_id").
		LeftJoin("teams a ON a.id = f.away_team_id")
}

func (r *FixtureRepository) List(ctx context.Context, filter fixture.Filter) ([]fixture.Fixture, error) {
	builder := selectFixtures()
	if filter.Status != "" {
		builder.Where(qb.Eq("f.status", filter.Status))
	}
	if filter.Competition != "" {
		builder.Where(qb.Eq("f.competition", filter.Competition))
	}
	if filter.From != nil {
		builder.Where(qb.Gte("f.kickoff_at", filter.From.UTC()))
	}
	if filter.To != nil {
		builder.Where(qb.Lt("f.kickoff_at", filter.To.UTC()))
	}

	query, args, err := builder.OrderBy("f.kickoff_at ASC", "f.id ASC").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixtures query: %w", err)
	}
	return r.selectFixtures(ctx, query, args)
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	query, args, err := selectFixtures().
		Where(qb.Eq("f.id", fixtureID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build select fixture query: %w", err)
	}

	var row fixtureRowModel
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("get fixture id=%s: %w", fixtureID, err)
	}
	return row.toDomain(), true, nil
}

func (r *FixtureRepository) ListByIDs(ctx context.Context, fixtureIDs []string) ([]fixture.Fixture, error) {
	if len(fixtureIDs) == 0 {
		return nil, nil
	}
	query, args, err := selectFixtures().
		Where(qb.InStrings("f.id", fixtureIDs)).
		OrderBy("f.kickoff_at ASC", "f.id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixtures by ids query: %w", err)
	}
	return r.selectFixtures(ctx, query, args)
}

func (r *FixtureRepository) ListOpenWithoutPrediction(ctx context.Context, userID string, from time.Time, limit int) ([]fixture.Fixture, error) {
	builder := selectFixtures().
		Where(
			qb.Eq("f.status", fixture.StatusScheduled),
			qb.Gte("f.kickoff_at", from.UTC()),
			qb.Expr("NOT EXISTS (SELECT 1 FROM predictions p WHERE p.fixture_id = f.id AND p.user_id = ?)", userID),
		).
		OrderBy("f.kickoff_at ASC", "f.id ASC")
	if limit > 0 {
		builder.Limit(limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select open fixtures query: %w", err)
	}
	return r.selectFixtures(ctx, query, args)
}

func (r *FixtureRepository) Create(ctx context.Context, f fixture.Fixture) error {
	model, err := newFixtureTableModel(f)
	if err != nil {
		return err
	}
	query, args, err := qb.InsertModel("fixtures", model, "")
	if err != nil {
		return fmt.Errorf("build insert fixture query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("insert fixture id=%s: %w", f.ID, err)
	}
	return nil
}

func (r *FixtureRepository) Update(ctx context.Context, f fixture.Fixture) (bool, error) {
	model, err := newFixtureTableModel(f)
	if err != nil {
		return false, err
	}
	query, args, err := qb.UpdateModel("fixtures", model, []string{"id", "created_at"}, qb.Eq("id", f.ID))
	if err != nil {
		return false, fmt.Errorf("build update fixture query: %w", err)
	}
	ok, err := execAffected(ctx, r.db, query, args)
	if err != nil {
		return false, fmt.Errorf("update fixture id=%s: %w", f.ID, err)
	}
	return ok, nil
}

func (r *FixtureRepository) Delete(ctx context.Context, fixtureID string) (bool, error) {
	var deleted bool
	err := withTx(ctx, r.db, "delete fixture", func(tx *sqlx.Tx) error {
		query, args, err := qb.DeleteFrom("predictions").Where(qb.Eq("fixture_id", fixtureID)).ToSQL()
		if err != nil {
			return fmt.Errorf("build delete fixture predictions query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("delete predictions for fixture id=%s: %w", fixtureID, err)
		}

		query, args, err = qb.DeleteFrom("fixtures").Where(qb.Eq("id", fixtureID)).ToSQL()
		if err != nil {
			return fmt.Errorf("build delete fixture query: %w", err)
		}
		deleted, err = execAffected(ctx, tx, query, args)
		if err != nil {
			return fmt.Errorf("delete fixture id=%s: %w", fixtureID, err)
		}
		return nil
	})
	return deleted, err
}

func (r *FixtureRepository) selectFixtures(ctx context.Context, query string, args []any) ([]fixture.Fixture, error) {
	var rows []fixtureRowModel
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select fixtures: %w", err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
