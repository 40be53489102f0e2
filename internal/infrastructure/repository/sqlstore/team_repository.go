package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/plus-predictor/internal/domain/team"
	qb "github.com/riskibarqy/plus-predictor/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").OrderBy("name", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}
	return r.selectTeams(ctx, query, args)
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("id", teamID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team id=%s: %w", teamID, err)
	}
	return row.toDomain(), true, nil
}

func (r *TeamRepository) ListByIDs(ctx context.Context, teamIDs []string) ([]team.Team, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	query, args, err := qb.Select("*").From("teams").
		Where(qb.InStrings("id", teamIDs)).
		OrderBy("name", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by ids query: %w", err)
	}
	return r.selectTeams(ctx, query, args)
}

func (r *TeamRepository) Create(ctx context.Context, t team.Team) error {
	query, args, err := qb.InsertModel("teams", newTeamTableModel(t), "")
	if err != nil {
		return fmt.Errorf("build insert team query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("insert team id=%s: %w", t.ID, err)
	}
	return nil
}

func (r *TeamRepository) Update(ctx context.Context, t team.Team) (bool, error) {
	query, args, err := qb.UpdateModel("teams", newTeamTableModel(t), []string{"id", "created_at"}, qb.Eq("id", t.ID))
	if err != nil {
		return false, fmt.Errorf("build update team query: %w", err)
	}
	ok, err := execAffected(ctx, r.db, query, args)
	if err != nil {
		return false, fmt.Errorf("update team id=%s: %w", t.ID, err)
	}
	return ok, nil
}

func (r *TeamRepository) Delete(ctx context.Context, teamID string) (bool, error) {
	var deleted bool
	err := withTx(ctx, r.db, "delete team", func(tx *sqlx.Tx) error {
		var refs int
		if err := tx.GetContext(ctx, &refs,
			tx.Rebind(`SELECT COUNT(1) FROM fixtures WHERE home_team_id = ? OR away_team_id = ?`),
			teamID, teamID,
		); err != nil {
			return fmt.Errorf("count fixtures for team id=%s: %w", teamID, err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: %d fixtures", team.ErrInUse, refs)
		}

		query, args, err := qb.DeleteFrom("teams").Where(qb.Eq("id", teamID)).ToSQL()
		if err != nil {
			return fmt.Errorf("build delete team query: %w", err)
		}
		deleted, err = execAffected(ctx, tx, query, args)
		if err != nil {
			return fmt.Errorf("delete team id=%s: %w", teamID, err)
		}
		return nil
	})
	return deleted, err
}

func (r *TeamRepository) selectTeams(ctx context.Context, query string, args []any) ([]team.Team, error) {
	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
