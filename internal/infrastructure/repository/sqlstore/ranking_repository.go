package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/plus-predictor/internal/domain/ranking"
	"github.com/riskibarqy/plus-predictor/internal/domain/user"
	qb "github.com/riskibarqy/plus-predictor/internal/platform/querybuilder"
)

// RankingRepository aggregates points on the fly; entries come back unranked.
type RankingRepository struct {
	db *sqlx.DB
}

func NewRankingRepository(db *sqlx.DB) *RankingRepository {
	return &RankingRepository{db: db}
}

func (r *RankingRepository) Global(ctx context.Context) ([]ranking.Entry, error) {
	query, args, err := qb.Select(
		"p.user_id",
		"u.display_name",
		"u.email",
		"SUM(p.points) AS points",
		"SUM(CASE WHEN p.exact_hit THEN 1 ELSE 0 END) AS exact_hits",
		"COUNT(1) AS scored",
	).
		From("predictions p").
		LeftJoin("users u ON u.id = p.user_id").
		Where(qb.IsNotNull("p.points")).
		GroupBy("p.user_id", "u.display_name", "u.email").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build global ranking query: %w", err)
	}
	return r.selectEntries(ctx, query, args)
}

func (r *RankingRepository) League(ctx context.Context, leagueID string) ([]ranking.Entry, error) {
	query, args, err := qb.Select(
		"m.user_id",
		"u.display_name",
		"u.email",
		"COALESCE(SUM(p.points), 0) AS points",
		"COALESCE(SUM(CASE WHEN p.exact_hit THEN 1 ELSE 0 END), 0) AS exact_hits",
		"COUNT(p.id) AS scored",
	).
		From("league_members m").
		LeftJoin("users u ON u.id = m.user_id").
		LeftJoin("predictions p ON p.user_id = m.user_id AND p.points IS NOT NULL").
		Where(qb.Eq("m.league_id", leagueID)).
		GroupBy("m.user_id", "u.display_name", "u.email").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build league ranking query: %w", err)
	}
	return r.selectEntries(ctx, query, args)
}

func (r *RankingRepository) selectEntries(ctx context.Context, query string, args []any) ([]ranking.Entry, error) {
	var rows []rankingRowModel
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select ranking: %w", err)
	}

	out := make([]ranking.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, ranking.Entry{
			UserID:      row.UserID,
			DisplayName: user.User{ID: row.UserID, Email: row.Email.String, DisplayName: row.DisplayName.String}.Name(),
			Points:      row.Points,
			ExactHits:   row.ExactHits,
			Scored:      row.Scored,
		})
	}
	return out, nil
}
