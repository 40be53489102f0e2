package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/plus-predictor/internal/domain/league"
	"github.com/riskibarqy/plus-predictor/internal/domain/ranking"
	idgen "github.com/riskibarqy/plus-predictor/internal/platform/id"
)

const (
	inviteCodeAttempts  = 5
	defaultRankingLimit = 100
	maxRankingLimit     = 500
)

type CreateLeagueInput struct {
	UserID string
	Name   string
}

// LeagueWithRank is a league as seen by one of its members.
type LeagueWithRank struct {
	League league.League
	Role   string
	MyRank int
}

type LeagueService struct {
	leagueRepo  league.Repository
	rankingRepo ranking.Repository
	idGen       idgen.Generator
	newCode     func() (string, error)
	now         func() time.Time
}

func NewLeagueService(leagueRepo league.Repository, rankingRepo ranking.Repository, idGen idgen.Generator) *LeagueService {
	return &LeagueService{
		leagueRepo:  leagueRepo,
		rankingRepo: rankingRepo,
		idGen:       idGen,
		newCode:     league.NewInviteCode,
		now:         time.Now,
	}
}

func (s *LeagueService) Create(ctx context.Context, input CreateLeagueInput) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Create")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.Name = strings.TrimSpace(input.Name)
	if input.UserID == "" {
		return league.League{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if err := league.ValidateName(input.Name); err != nil {
		return league.League{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	leagueID, err := s.idGen.NewID()
	if err != nil {
		return league.League{}, fmt.Errorf("generate league id: %w", err)
	}

	now := s.now().UTC()
	item := league.League{
		ID:          leagueID,
		Name:        input.Name,
		OwnerUserID: input.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
		MemberCount: 1,
	}
	owner := league.Member{LeagueID: leagueID, UserID: input.UserID, Role: league.RoleOwner, JoinedAt: now}

	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return league.League{}, fmt.Errorf("generate invite code: %w", err)
		}
		item.InviteCode = code

		err = s.leagueRepo.Create(ctx, item, owner)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, league.ErrDuplicateInviteCode) {
			return league.League{}, fmt.Errorf("create league: %w", err)
		}
	}
	return league.League{}, fmt.Errorf("%w: could not allocate a unique invite code", ErrConflict)
}

// ListMine returns the caller's leagues with the caller's rank in each.
func (s *LeagueService) ListMine(ctx context.Context, userID string) ([]LeagueWithRank, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.ListMine")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	leagues, err := s.leagueRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list leagues by user: %w", err)
	}

	out := make([]LeagueWithRank, 0, len(leagues))
	for _, item := range leagues {
		entries, err := s.rankingRepo.League(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("league ranking league=%s: %w", item.ID, err)
		}
		row := LeagueWithRank{League: item, Role: league.RoleMember}
		if item.IsOwner(userID) {
			row.Role = league.RoleOwner
		}
		if mine, ok := ranking.Find(ranking.Rank(entries), userID); ok {
			row.MyRank = mine.Rank
		}
		out = append(out, row)
	}
	return out, nil
}

// Get returns a league visible to its members only.
func (s *LeagueService) Get(ctx context.Context, userID, leagueID string) (league.League, error) {
	item, _, err := s.requireMember(ctx, userID, leagueID)
	return item, err
}

func (s *LeagueService) Join(ctx context.Context, userID, inviteCode string) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Join")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return league.League{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	code := league.NormalizeInviteCode(inviteCode)
	if len(code) != league.InviteCodeLength {
		return league.League{}, fmt.Errorf("%w: invite code must be %d characters", ErrInvalidInput, league.InviteCodeLength)
	}

	item, exists, err := s.leagueRepo.GetByInviteCode(ctx, code)
	if err != nil {
		return league.League{}, fmt.Errorf("get league by invite code: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: invite code not found", ErrNotFound)
	}

	// Joining twice is a no-op.
	if _, err := s.leagueRepo.AddMember(ctx, league.Member{
		LeagueID: item.ID,
		UserID:   userID,
		Role:     league.RoleMember,
		JoinedAt: s.now().UTC(),
	}); err != nil {
		return league.League{}, fmt.Errorf("add league member: %w", err)
	}
	return item, nil
}

func (s *LeagueService) Leave(ctx context.Context, userID, leagueID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Leave")
	defer span.End()

	item, _, err := s.requireMember(ctx, userID, leagueID)
	if err != nil {
		return err
	}
	if item.IsOwner(strings.TrimSpace(userID)) {
		return fmt.Errorf("%w: %v", ErrForbidden, league.ErrOwnerCannotLeave)
	}

	if _, err := s.leagueRepo.RemoveMember(ctx, item.ID, strings.TrimSpace(userID)); err != nil {
		return fmt.Errorf("remove league member: %w", err)
	}
	return nil
}

func (s *LeagueService) Rename(ctx context.Context, userID, leagueID, name string) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Rename")
	defer span.End()

	item, err := s.requireOwner(ctx, userID, leagueID)
	if err != nil {
		return league.League{}, err
	}
	name = strings.TrimSpace(name)
	if err := league.ValidateName(name); err != nil {
		return league.League{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now().UTC()
	updated, err := s.leagueRepo.Rename(ctx, item.ID, name, now)
	if err != nil {
		return league.League{}, fmt.Errorf("rename league: %w", err)
	}
	if !updated {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, item.ID)
	}
	item.Name = name
	item.UpdatedAt = now
	return item, nil
}

func (s *LeagueService) Delete(ctx context.Context, userID, leagueID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Delete")
	defer span.End()

	item, err := s.requireOwner(ctx, userID, leagueID)
	if err != nil {
		return err
	}
	return s.softDelete(ctx, item.ID)
}

// Ranking returns the ranked members of a league the caller belongs to.
func (s *LeagueService) Ranking(ctx context.Context, userID, leagueID string) ([]ranking.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Ranking")
	defer span.End()

	item, _, err := s.requireMember(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}

	entries, err := s.rankingRepo.League(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("league ranking: %w", err)
	}
	return ranking.Rank(entries), nil
}

// GlobalRanking ranks every user with at least one scored prediction.
func (s *LeagueService) GlobalRanking(ctx context.Context, limit int) ([]ranking.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.GlobalRanking")
	defer span.End()

	if limit <= 0 {
		limit = defaultRankingLimit
	}
	if limit > maxRankingLimit {
		limit = maxRankingLimit
	}

	entries, err := s.rankingRepo.Global(ctx)
	if err != nil {
		return nil, fmt.Errorf("global ranking: %w", err)
	}
	ranked := ranking.Rank(entries)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *LeagueService) AdminList(ctx context.Context) ([]league.League, error) {
	items, err := s.leagueRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	return items, nil
}

func (s *LeagueService) AdminDelete(ctx context.Context, leagueID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.AdminDelete")
	defer span.End()

	item, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return err
	}
	return s.softDelete(ctx, item.ID)
}

func (s *LeagueService) AdminRemoveMember(ctx context.Context, leagueID, userID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.AdminRemoveMember")
	defer span.End()

	item, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if item.IsOwner(userID) {
		return fmt.Errorf("%w: %v", ErrConflict, league.ErrOwnerCannotLeave)
	}

	removed, err := s.leagueRepo.RemoveMember(ctx, item.ID, userID)
	if err != nil {
		return fmt.Errorf("remove league member: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: member=%s league=%s", ErrNotFound, userID, item.ID)
	}
	return nil
}

func (s *LeagueService) softDelete(ctx context.Context, leagueID string) error {
	deleted, err := s.leagueRepo.SoftDelete(ctx, leagueID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("delete league: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	return nil
}

func (s *LeagueService) getLeague(ctx context.Context, leagueID string) (league.League, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return league.League{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	item, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	return item, nil
}

func (s *LeagueService) requireMember(ctx context.Context, userID, leagueID string) (league.League, league.Member, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return league.League{}, league.Member{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	item, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return league.League{}, league.Member{}, err
	}

	member, isMember, err := s.leagueRepo.GetMember(ctx, item.ID, userID)
	if err != nil {
		return league.League{}, league.Member{}, fmt.Errorf("get league member: %w", err)
	}
	if !isMember {
		return league.League{}, league.Member{}, fmt.Errorf("%w: %v", ErrForbidden, league.ErrNotMember)
	}
	return item, member, nil
}

func (s *LeagueService) requireOwner(ctx context.Context, userID, leagueID string) (league.League, error) {
	item, _, err := s.requireMember(ctx, userID, leagueID)
	if err != nil {
		return league.League{}, err
	}
	if !item.IsOwner(strings.TrimSpace(userID)) {
		return league.League{}, fmt.Errorf("%w: %v", ErrForbidden, league.ErrNotOwner)
	}
	return item, nil
}
