package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/plus-predictor/internal/domain/league"
	"github.com/riskibarqy/plus-predictor/internal/domain/ranking"
	idgen "github.com/riskibarqy/plus-predictor/internal/platform/id"
	leaguemock "github.com/riskibarqy/plus-predictor/internal/mocks/domain/league"
	rankingmock "github.com/riskibarqy/plus-predictor/internal/mocks/domain/ranking"
)

func newLeagueServiceForTest(t *testing.T) (*LeagueService, *leaguemock.Repository, *rankingmock.Repository) {
	t.Helper()

	leagueRepo := leaguemock.NewRepository(t)
	rankingRepo := rankingmock.NewRepository(t)
	svc := NewLeagueService(leagueRepo, rankingRepo, &idgen.SequenceGenerator{Prefix: "lg"})
	svc.now = fixedNow
	return svc, leagueRepo, rankingRepo
}

func TestLeagueService_Create_RetriesDuplicateInviteCodeUsingMockery(t *testing.T) {
	t.Parallel()

	svc, leagueRepo, _ := newLeagueServiceForTest(t)
	codes := []string{"AAAAAAAA", "BBBBBBBB"}
	svc.newCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	owner := mock.MatchedBy(func(m league.Member) bool { return m.UserID == "u-1" && m.Role == league.RoleOwner })
	leagueRepo.
		On("Create", anyCtx(), mock.MatchedBy(func(l league.League) bool { return l.InviteCode == "AAAAAAAA" }), owner).
		Return(league.ErrDuplicateInviteCode).
		Once()
	leagueRepo.
		On("Create", anyCtx(), mock.MatchedBy(func(l league.League) bool { return l.InviteCode == "BBBBBBBB" }), owner).
		Return(nil).
		Once()

	got, err := svc.Create(context.Background(), CreateLeagueInput{UserID: "u-1", Name: "  Escritório  "})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	if got.InviteCode != "BBBBBBBB" || got.Name != "Escritório" || got.OwnerUserID != "u-1" {
		t.Fatalf("unexpected league: %+v", got)
	}
}

func TestLeagueService_Create_RejectsShortName(t *testing.T) {
	t.Parallel()

	svc, _, _ := newLeagueServiceForTest(t)
	if _, err := svc.Create(context.Background(), CreateLeagueInput{UserID: "u-1", Name: "ab"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLeagueService_Join_NormalizesInviteCodeUsingMockery(t *testing.T) {
	t.Parallel()

	svc, leagueRepo, _ := newLeagueServiceForTest(t)
	leagueRepo.On("GetByInviteCode", anyCtx(), "ABCD2345").Return(league.League{ID: "lg-1"}, true, nil).Once()
	leagueRepo.
		On("AddMember", anyCtx(), league.Member{LeagueID: "lg-1", UserID: "u-2", Role: league.RoleMember, JoinedAt: testNow}).
		Return(false, nil).
		Once()

	got, err := svc.Join(context.Background(), "u-2", " abcd-2345 ")
	if err != nil {
		t.Fatalf("join league: %v", err)
	}
	if got.ID != "lg-1" {
		t.Fatalf("unexpected league: %+v", got)
	}
}

func TestLeagueService_Leave_OwnerCannotLeaveUsingMockery(t *testing.T) {
	t.Parallel()

	svc, leagueRepo, _ := newLeagueServiceForTest(t)
	leagueRepo.On("GetByID", anyCtx(), "lg-1").Return(league.League{ID: "lg-1", OwnerUserID: "u-1"}, true, nil).Once()
	leagueRepo.On("GetMember", anyCtx(), "lg-1", "u-1").Return(league.Member{Role: league.RoleOwner}, true, nil).Once()

	err := svc.Leave(context.Background(), "u-1", "lg-1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	leagueRepo.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeagueService_Ranking_MembersOnlyUsingMockery(t *testing.T) {
	t.Parallel()

	svc, leagueRepo, rankingRepo := newLeagueServiceForTest(t)
	leagueRepo.On("GetByID", anyCtx(), "lg-1").Return(league.League{ID: "lg-1", OwnerUserID: "u-1"}, true, nil).Twice()
	leagueRepo.On("GetMember", anyCtx(), "lg-1", "outsider").Return(league.Member{}, false, nil).Once()
	leagueRepo.On("GetMember", anyCtx(), "lg-1", "u-1").Return(league.Member{Role: league.RoleOwner}, true, nil).Once()
	rankingRepo.On("League", anyCtx(), "lg-1").Return([]ranking.Entry{
		{UserID: "u-1", DisplayName: "Ana", Points: 4, ExactHits: 1},
		{UserID: "u-2", DisplayName: "Bruno", Points: 7, ExactHits: 2},
		{UserID: "u-3", DisplayName: "Carla", Points: 4, ExactHits: 1},
		{UserID: "u-4", DisplayName: "Duarte"},
	}, nil).Once()

	if _, err := svc.Ranking(context.Background(), "outsider", "lg-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	entries, err := svc.Ranking(context.Background(), "u-1", "lg-1")
	if err != nil {
		t.Fatalf("league ranking: %v", err)
	}
	wantRanks := map[string]int{"u-2": 1, "u-1": 2, "u-3": 2, "u-4": 3}
	for _, e := range entries {
		if e.Rank != wantRanks[e.UserID] {
			t.Fatalf("unexpected rank for %s: got=%d want=%d", e.UserID, e.Rank, wantRanks[e.UserID])
		}
	}
	if entries[1].UserID != "u-1" || entries[2].UserID != "u-3" {
		t.Fatalf("ties must be ordered by display name: %+v", entries)
	}
}

func TestLeagueService_Rename_OwnerOnlyUsingMockery(t *testing.T) {
	t.Parallel()

	svc, leagueRepo, _ := newLeagueServiceForTest(t)
	leagueRepo.On("GetByID", anyCtx(), "lg-1").Return(league.League{ID: "lg-1", OwnerUserID: "u-1"}, true, nil).Twice()
	leagueRepo.On("GetMember", anyCtx(), "lg-1", "u-2").Return(league.Member{Role: league.RoleMember}, true, nil).Once()
	leagueRepo.On("GetMember", anyCtx(), "lg-1", "u-1").Return(league.Member{Role: league.RoleOwner}, true, nil).Once()
	leagueRepo.On("Rename", anyCtx(), "lg-1", "Os Craques", testNow).Return(true, nil).Once()

	if _, err := svc.Rename(context.Background(), "u-2", "lg-1", "Os Craques"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	got, err := svc.Rename(context.Background(), "u-1", "lg-1", "Os Craques")
	if err != nil {
		t.Fatalf("rename league: %v", err)
	}
	if got.Name != "Os Craques" {
		t.Fatalf("unexpected name: %s", got.Name)
	}
}

func TestLeagueService_GlobalRanking_AppliesLimit(t *testing.T) {
	t.Parallel()

	svc, _, rankingRepo := newLeagueServiceForTest(t)
	rankingRepo.On("Global", anyCtx()).Return([]ranking.Entry{
		{UserID: "u-1", Points: 1},
		{UserID: "u-2", Points: 9},
		{UserID: "u-3", Points: 5},
	}, nil).Once()

	entries, err := svc.GlobalRanking(context.Background(), 2)
	if err != nil {
		t.Fatalf("global ranking: %v", err)
	}
	if len(entries) != 2 || entries[0].UserID != "u-2" || entries[1].UserID != "u-3" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLeagueService_AdminRemoveMember_NotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	svc, leagueRepo, _ := newLeagueServiceForTest(t)
	leagueRepo.On("GetByID", anyCtx(), "lg-1").Return(league.League{ID: "lg-1", OwnerUserID: "u-1"}, true, nil).Once()
	leagueRepo.On("RemoveMember", anyCtx(), "lg-1", "u-9").Return(false, nil).Once()

	if err := svc.AdminRemoveMember(context.Background(), "lg-1", "u-9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
