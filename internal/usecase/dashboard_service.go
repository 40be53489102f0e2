package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/domain/ranking"
	"github.com/riskibarqy/plus-predictor/internal/domain/user"
)

const dashboardUpcomingLimit = 5

// Dashboard is the caller's home screen.
type Dashboard struct {
	User              user.User
	GlobalRank        int
	TotalPoints       int
	ExactHits         int
	ScoredPredictions int
	PendingFixtures   []fixture.Fixture
	Leagues           []LeagueWithRank
}

type DashboardService struct {
	users       *UserService
	leagues     *LeagueService
	fixtureRepo fixture.Repository
	rankingRepo ranking.Repository
	lockLead    time.Duration
	now         func() time.Time
}

func NewDashboardService(
	users *UserService,
	leagues *LeagueService,
	fixtureRepo fixture.Repository,
	rankingRepo ranking.Repository,
	lockLead time.Duration,
) *DashboardService {
	return &DashboardService{
		users:       users,
		leagues:     leagues,
		fixtureRepo: fixtureRepo,
		rankingRepo: rankingRepo,
		lockLead:    lockLead,
		now:         time.Now,
	}
}

func (s *DashboardService) Get(ctx context.Context, userID string) (Dashboard, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Get")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Dashboard{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	var out Dashboard
	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()

	p.Go(func(ctx context.Context) error {
		profile, err := s.users.GetProfile(ctx, userID)
		if err != nil {
			return err
		}
		out.User = profile
		return nil
	})
	p.Go(func(ctx context.Context) error {
		entries, err := s.rankingRepo.Global(ctx)
		if err != nil {
			return fmt.Errorf("global ranking: %w", err)
		}
		if mine, ok := ranking.Find(ranking.Rank(entries), userID); ok {
			out.GlobalRank = mine.Rank
			out.TotalPoints = mine.Points
			out.ExactHits = mine.ExactHits
			out.ScoredPredictions = mine.Scored
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		// Fixtures locking before now+lead are no longer predictable.
		from := s.now().UTC().Add(s.lockLead)
		items, err := s.fixtureRepo.ListOpenWithoutPrediction(ctx, userID, from, dashboardUpcomingLimit)
		if err != nil {
			return fmt.Errorf("list open fixtures: %w", err)
		}
		out.PendingFixtures = items
		return nil
	})
	p.Go(func(ctx context.Context) error {
		items, err := s.leagues.ListMine(ctx, userID)
		if err != nil {
			return err
		}
		out.Leagues = items
		return nil
	})

	if err := p.Wait(); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}
