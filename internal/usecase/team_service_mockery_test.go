package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/plus-predictor/internal/domain/team"
	idgen "github.com/riskibarqy/plus-predictor/internal/platform/id"
	teammock "github.com/riskibarqy/plus-predictor/internal/mocks/domain/team"
)

func TestTeamService_Create_NormalizesShortNameUsingMockery(t *testing.T) {
	t.Parallel()

	repo := teammock.NewRepository(t)
	svc := NewTeamService(repo, &idgen.SequenceGenerator{Prefix: "team"})
	svc.now = fixedNow

	want := team.Team{ID: "team-1", Name: "Sporting CP", ShortName: "SCP", CreatedAt: testNow, UpdatedAt: testNow}
	repo.On("Create", anyCtx(), want).Return(nil).Once()

	got, err := svc.Create(context.Background(), TeamInput{Name: " Sporting CP ", ShortName: "scp"})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if got != want {
		t.Fatalf("unexpected team: got=%+v want=%+v", got, want)
	}
}

func TestTeamService_Create_RejectsLongShortName(t *testing.T) {
	t.Parallel()

	svc := NewTeamService(teammock.NewRepository(t), &idgen.SequenceGenerator{Prefix: "team"})
	if _, err := svc.Create(context.Background(), TeamInput{Name: "Vitória", ShortName: "VITORIA"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTeamService_Delete_InUseIsConflictUsingMockery(t *testing.T) {
	t.Parallel()

	repo := teammock.NewRepository(t)
	svc := NewTeamService(repo, &idgen.SequenceGenerator{Prefix: "team"})
	repo.On("Delete", anyCtx(), "slb").Return(false, team.ErrInUse).Once()

	if err := svc.Delete(context.Background(), "slb"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
