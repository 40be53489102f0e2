package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/domain/prediction"
	"github.com/riskibarqy/plus-predictor/internal/domain/team"
	idgen "github.com/riskibarqy/plus-predictor/internal/platform/id"
	fixturemock "github.com/riskibarqy/plus-predictor/internal/mocks/domain/fixture"
	predictionmock "github.com/riskibarqy/plus-predictor/internal/mocks/domain/prediction"
	teammock "github.com/riskibarqy/plus-predictor/internal/mocks/domain/team"
)

func newFixtureServiceForTest(t *testing.T) (*FixtureService, *fixturemock.Repository, *teammock.Repository, *predictionmock.Repository) {
	t.Helper()

	fixtureRepo := fixturemock.NewRepository(t)
	teamRepo := teammock.NewRepository(t)
	predictionRepo := predictionmock.NewRepository(t)

	scoring := NewScoringService(predictionRepo, prediction.DefaultRules(), nopLogger())
	scoring.now = fixedNow

	svc := NewFixtureService(fixtureRepo, teamRepo, scoring, &idgen.SequenceGenerator{Prefix: "fx"})
	svc.now = fixedNow
	return svc, fixtureRepo, teamRepo, predictionRepo
}

func TestFixtureService_Create_FillsTeamNamesUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, fixtureRepo, teamRepo, _ := newFixtureServiceForTest(t)

	teamRepo.
		On("ListByIDs", anyCtx(), []string{"slb", "fcp"}).
		Return([]team.Team{{ID: "slb", Name: "Benfica"}, {ID: "fcp", Name: "Porto"}}, nil).
		Once()
	fixtureRepo.
		On("Create", anyCtx(), mock.MatchedBy(func(f fixture.Fixture) bool {
			return f.ID == "fx-1" && f.HomeTeamName == "Benfica" && f.AwayTeamName == "Porto" && f.Status == fixture.StatusScheduled
		})).
		Return(nil).
		Once()

	got, err := svc.Create(ctx, FixtureInput{
		Competition: "Liga Portugal",
		Matchday:    24,
		HomeTeamID:  " slb ",
		AwayTeamID:  "fcp",
		KickoffAt:   testNow.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	if got.ID != "fx-1" || got.HomeTeamID != "slb" {
		t.Fatalf("unexpected fixture: %+v", got)
	}
}

func TestFixtureService_Create_RejectsUnknownTeamUsingMockery(t *testing.T) {
	t.Parallel()

	svc, _, teamRepo, _ := newFixtureServiceForTest(t)
	teamRepo.
		On("ListByIDs", anyCtx(), []string{"slb", "ghost"}).
		Return([]team.Team{{ID: "slb", Name: "Benfica"}}, nil).
		Once()

	_, err := svc.Create(context.Background(), FixtureInput{
		HomeTeamID: "slb",
		AwayTeamID: "ghost",
		KickoffAt:  testNow.Add(time.Hour),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFixtureService_Create_RejectsSameTeams(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newFixtureServiceForTest(t)

	_, err := svc.Create(context.Background(), FixtureInput{
		HomeTeamID: "slb",
		AwayTeamID: "slb",
		KickoffAt:  testNow.Add(time.Hour),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFixtureService_SetResult_ScoresPredictionsUsingMockery(t *testing.T) {
	t.Parallel()

	svc, fixtureRepo, _, predictionRepo := newFixtureServiceForTest(t)
	stored := fixture.Fixture{
		ID:         "fx-9",
		HomeTeamID: "slb",
		AwayTeamID: "fcp",
		KickoffAt:  testNow.Add(-2 * time.Hour),
		Status:     fixture.StatusLive,
	}

	fixtureRepo.On("GetByID", anyCtx(), "fx-9").Return(stored, true, nil).Once()
	fixtureRepo.
		On("Update", anyCtx(), mock.MatchedBy(func(f fixture.Fixture) bool {
			return f.Status == fixture.StatusFinished && *f.HomeScore == 1 && *f.AwayScore == 1
		})).
		Return(true, nil).
		Once()
	predictionRepo.On("ListByFixture", anyCtx(), "fx-9").Return([]prediction.Prediction{
		{ID: "p-1", HomeScore: 1, AwayScore: 1},
		{ID: "p-2", HomeScore: 3, AwayScore: 0},
	}, nil).Once()
	predictionRepo.On("ApplyScores", anyCtx(), []prediction.Score{
		{PredictionID: "p-1", Points: 3, ExactHit: true},
		{PredictionID: "p-2", Points: 0},
	}, testNow).Return(nil).Once()

	got, scored, err := svc.SetResult(context.Background(), "fx-9", FixtureResultInput{
		Status:    "finished",
		HomeScore: intPtr(1),
		AwayScore: intPtr(1),
		Scorers:   []string{" Di María ", "", "Taremi"},
	})
	if err != nil {
		t.Fatalf("set result: %v", err)
	}
	if scored != 2 {
		t.Fatalf("unexpected scored count: got=%d want=2", scored)
	}
	if len(got.Scorers) != 2 {
		t.Fatalf("unexpected scorers: %+v", got.Scorers)
	}
}

func TestFixtureService_Rescore_RequiresResult(t *testing.T) {
	t.Parallel()

	svc, fixtureRepo, _, _ := newFixtureServiceForTest(t)
	fixtureRepo.
		On("GetByID", anyCtx(), "fx-1").
		Return(fixture.Fixture{ID: "fx-1", Status: fixture.StatusScheduled}, true, nil).
		Once()

	if _, err := svc.Rescore(context.Background(), "fx-1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFixtureService_Delete_NotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	svc, fixtureRepo, _, _ := newFixtureServiceForTest(t)
	fixtureRepo.On("Delete", anyCtx(), "missing").Return(false, nil).Once()

	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type stubResultFeed struct {
	result ExternalFixtureResult
	err    error
	calls  int
}

func (f *stubResultFeed) FetchFixtureResult(_ context.Context, providerFixtureID int64) (ExternalFixtureResult, error) {
	f.calls++
	if f.err != nil {
		return ExternalFixtureResult{}, f.err
	}
	out := f.result
	out.ProviderFixtureID = providerFixtureID
	return out, nil
}

func TestFixtureService_SyncResult_AppliesProviderResultUsingMockery(t *testing.T) {
	t.Parallel()

	svc, fixtureRepo, _, predictionRepo := newFixtureServiceForTest(t)
	feed := &stubResultFeed{result: ExternalFixtureResult{
		Status:    fixture.StatusFinished,
		HomeScore: intPtr(2),
		AwayScore: intPtr(0),
		Scorers:   []string{"Pavlidis", "Di María"},
	}}
	svc.WithResultFeed(feed)

	stored := fixture.Fixture{
		ID:         "fx-3",
		HomeTeamID: "slb",
		AwayTeamID: "fcp",
		KickoffAt:  testNow.Add(-3 * time.Hour),
		Status:     fixture.StatusLive,
	}
	fixtureRepo.On("GetByID", anyCtx(), "fx-3").Return(stored, true, nil).Twice()
	fixtureRepo.
		On("Update", anyCtx(), mock.MatchedBy(func(f fixture.Fixture) bool {
			return f.Status == fixture.StatusFinished && *f.HomeScore == 2 && *f.AwayScore == 0 && len(f.Scorers) == 2
		})).
		Return(true, nil).
		Once()
	predictionRepo.On("ListByFixture", anyCtx(), "fx-3").Return([]prediction.Prediction{
		{ID: "p-1", HomeScore: 2, AwayScore: 0},
	}, nil).Once()
	predictionRepo.On("ApplyScores", anyCtx(), []prediction.Score{
		{PredictionID: "p-1", Points: 3, ExactHit: true},
	}, testNow).Return(nil).Once()

	got, scored, err := svc.SyncResult(context.Background(), "fx-3", 19135003)
	if err != nil {
		t.Fatalf("sync result: %v", err)
	}
	if scored != 1 || got.Status != fixture.StatusFinished {
		t.Fatalf("unexpected sync outcome: scored=%d fixture=%+v", scored, got)
	}
	if feed.calls != 1 {
		t.Fatalf("expected one provider call, got %d", feed.calls)
	}
}

func TestFixtureService_SyncResult_Guards(t *testing.T) {
	t.Parallel()

	svc, fixtureRepo, _, _ := newFixtureServiceForTest(t)
	if _, _, err := svc.SyncResult(context.Background(), "fx-1", 1); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable without feed, got %v", err)
	}

	feed := &stubResultFeed{err: errors.New("provider down")}
	svc.WithResultFeed(feed)
	if _, _, err := svc.SyncResult(context.Background(), "fx-1", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for provider id, got %v", err)
	}

	fixtureRepo.On("GetByID", anyCtx(), "missing").Return(fixture.Fixture{}, false, nil).Once()
	if _, _, err := svc.SyncResult(context.Background(), "missing", 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if feed.calls != 0 {
		t.Fatalf("provider must not be called for unknown fixture")
	}

	fixtureRepo.
		On("GetByID", anyCtx(), "fx-1").
		Return(fixture.Fixture{ID: "fx-1", Status: fixture.StatusScheduled}, true, nil).
		Once()
	if _, _, err := svc.SyncResult(context.Background(), "fx-1", 7); err == nil {
		t.Fatalf("expected provider error to surface")
	}
}
