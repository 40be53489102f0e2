package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/plus-predictor/internal/domain/league"
	qb "github.com/riskibarqy/plus-predictor/internal/platform/querybuilder"
)

var leagueColumns = []string{
	"l.id", "l.name", "l.owner_user_id", "l.invite_code",
	"l.created_at", "l.updated_at", "l.deleted_at",
	"(SELECT COUNT(1) FROM league_members m WHERE m.league_id = l.id) AS member_count",
}

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

// selectLeagues never returns soft-deleted leagues.
func selectLeagues() *qb.SelectBuilder {
	return qb.Select(leagueColumns...).
		From("leagues l").
		Where(qb.IsNull("l.deleted_at"))
}

func (r *LeagueRepository) Create(ctx context.Context, l league.League, owner league.Member) error {
	return withTx(ctx, r.db, "create league", func(tx *sqlx.Tx) error {
		query, args, err := qb.InsertInto("leagues").
			Columns("id", "name", "owner_user_id", "invite_code", "created_at", "updated_at").
			Values(l.ID, l.Name, l.OwnerUserID, l.InviteCode, l.CreatedAt.UTC(), l.UpdatedAt.UTC()).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build insert league query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", league.ErrDuplicateInviteCode, l.InviteCode)
			}
			return fmt.Errorf("insert league id=%s: %w", l.ID, err)
		}

		query, args, err = memberInsert(owner, "")
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("insert league owner league=%s user=%s: %w", owner.LeagueID, owner.UserID, err)
		}
		return nil
	})
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	return r.getOne(ctx, qb.Eq("l.id", leagueID))
}

func (r *LeagueRepository) GetByInviteCode(ctx context.Context, inviteCode string) (league.League, bool, error) {
	return r.getOne(ctx, qb.Eq("l.invite_code", inviteCode))
}

func (r *LeagueRepository) ListByUser(ctx context.Context, userID string) ([]league.League, error) {
	query, args, err := selectLeagues().
		Join("league_members lm ON lm.league_id = l.id").
		Where(qb.Eq("lm.user_id", userID)).
		OrderBy("l.name ASC", "l.id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues by user query: %w", err)
	}
	return r.selectLeagues(ctx, query, args)
}

func (r *LeagueRepository) ListAll(ctx context.Context) ([]league.League, error) {
	query, args, err := selectLeagues().OrderBy("l.created_at DESC", "l.id ASC").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues query: %w", err)
	}
	return r.selectLeagues(ctx, query, args)
}

func (r *LeagueRepository) Rename(ctx context.Context, leagueID, name string, updatedAt time.Time) (bool, error) {
	query, args, err := qb.Update("leagues").
		Set("name", name).
		Set("updated_at", updatedAt.UTC()).
		Where(qb.Eq("id", leagueID), qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build rename league query: %w", err)
	}
	ok, err := execAffected(ctx, r.db, query, args)
	if err != nil {
		return false, fmt.Errorf("rename league id=%s: %w", leagueID, err)
	}
	return ok, nil
}

func (r *LeagueRepository) SoftDelete(ctx context.Context, leagueID string, deletedAt time.Time) (bool, error) {
	query, args, err := qb.Update("leagues").
		Set("deleted_at", deletedAt.UTC()).
		Set("updated_at", deletedAt.UTC()).
		Where(qb.Eq("id", leagueID), qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build soft delete league query: %w", err)
	}
	ok, err := execAffected(ctx, r.db, query, args)
	if err != nil {
		return false, fmt.Errorf("soft delete league id=%s: %w", leagueID, err)
	}
	return ok, nil
}

func (r *LeagueRepository) GetMember(ctx context.Context, leagueID, userID string) (league.Member, bool, error) {
	query, args, err := qb.Select("m.league_id", "m.user_id", "m.role", "m.joined_at", "u.display_name", "u.email").
		From("league_members m").
		LeftJoin("users u ON u.id = m.user_id").
		Where(qb.Eq("m.league_id", leagueID), qb.Eq("m.user_id", userID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return league.Member{}, false, fmt.Errorf("build select league member query: %w", err)
	}

	var row memberRowModel
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return league.Member{}, false, nil
		}
		return league.Member{}, false, fmt.Errorf("get league member league=%s user=%s: %w", leagueID, userID, err)
	}
	return row.toDomain(), true, nil
}

func (r *LeagueRepository) AddMember(ctx context.Context, m league.Member) (bool, error) {
	query, args, err := memberInsert(m, "ON CONFLICT (league_id, user_id) DO NOTHING")
	if err != nil {
		return false, err
	}
	added, err := execAffected(ctx, r.db, query, args)
	if err != nil {
		return false, fmt.Errorf("insert league member league=%s user=%s: %w", m.LeagueID, m.UserID, err)
	}
	return added, nil
}

func (r *LeagueRepository) RemoveMember(ctx context.Context, leagueID, userID string) (bool, error) {
	query, args, err := qb.DeleteFrom("league_members").
		Where(qb.Eq("league_id", leagueID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete league member query: %w", err)
	}
	ok, err := execAffected(ctx, r.db, query, args)
	if err != nil {
		return false, fmt.Errorf("delete league member league=%s user=%s: %w", leagueID, userID, err)
	}
	return ok, nil
}

func memberInsert(m league.Member, suffix string) (string, []any, error) {
	query, args, err := qb.InsertInto("league_members").
		Columns("league_id", "user_id", "role", "joined_at").
		Values(m.LeagueID, m.UserID, m.Role, m.JoinedAt.UTC()).
		Suffix(suffix).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build insert league member query: %w", err)
	}
	return query, args, nil
}

func (r *LeagueRepository) getOne(ctx context.Context, where ...qb.Condition) (league.League, bool, error) {
	query, args, err := selectLeagues().Where(where...).Limit(1).ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build select league query: %w", err)
	}

	var row leagueRowModel
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *LeagueRepository) selectLeagues(ctx context.Context, query string, args []any) ([]league.League, error) {
	var rows []leagueRowModel
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
