package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/domain/team"
	idgen "github.com/riskibarqy/plus-predictor/internal/platform/id"
)

type FixtureInput struct {
	Competition string
	Matchday    int
	HomeTeamID  string
	AwayTeamID  string
	KickoffAt   time.Time
	Venue       string
	Status      string
}

type FixtureResultInput struct {
	Status    string
	HomeScore *int
	AwayScore *int
	Scorers   []string
}

type ListFixturesInput struct {
	Status      string
	Competition string
	From        *time.Time
	To          *time.Time
}

type FixtureService struct {
	fixtureRepo fixture.Repository
	teamRepo    team.Repository
	scoring     *ScoringService
	idGen       idgen.Generator
	feed        ResultFeed
	now         func() time.Time
}

func NewFixtureService(
	fixtureRepo fixture.Repository,
	teamRepo team.Repository,
	scoring *ScoringService,
	idGen idgen.Generator,
) *FixtureService {
	return &FixtureService{
		fixtureRepo: fixtureRepo,
		teamRepo:    teamRepo,
		scoring:     scoring,
		idGen:       idGen,
		now:         time.Now,
	}
}

func (s *FixtureService) List(ctx context.Context, input ListFixturesInput) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.List")
	defer span.End()

	filter := fixture.Filter{
		Competition: strings.TrimSpace(input.Competition),
		From:        input.From,
		To:          input.To,
	}
	if status := strings.TrimSpace(input.Status); status != "" {
		filter.Status = fixture.NormalizeStatus(status)
		if !fixture.IsValidStatus(filter.Status) {
			return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, input.Status)
		}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: to must not be before from", ErrInvalidInput)
	}

	items, err := s.fixtureRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}
	return items, nil
}

func (s *FixtureService) Get(ctx context.Context, fixtureID string) (fixture.Fixture, error) {
	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get fixture: %w", err)
	}
	if !exists {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, fixtureID)
	}
	return item, nil
}

func (s *FixtureService) Create(ctx context.Context, input FixtureInput) (fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Create")
	defer span.End()

	fixtureID, err := s.idGen.NewID()
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("generate fixture id: %w", err)
	}

	now := s.now().UTC()
	item := fixture.Fixture{ID: fixtureID, CreatedAt: now}
	applyFixtureInput(&item, input)
	item.UpdatedAt = now

	if err := s.validateFixture(ctx, &item); err != nil {
		return fixture.Fixture{}, err
	}
	if err := s.fixtureRepo.Create(ctx, item); err != nil {
		return fixture.Fixture{}, fmt.Errorf("create fixture: %w", err)
	}
	return item, nil
}

func (s *FixtureService) Update(ctx context.Context, fixtureID string, input FixtureInput) (fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Update")
	defer span.End()

	item, err := s.Get(ctx, fixtureID)
	if err != nil {
		return fixture.Fixture{}, err
	}
	wasScored := item.HasResult()

	applyFixtureInput(&item, input)
	item.UpdatedAt = s.now().UTC()
	if err := s.validateFixture(ctx, &item); err != nil {
		return fixture.Fixture{}, err
	}

	if err := s.save(ctx, item); err != nil {
		return fixture.Fixture{}, err
	}
	if wasScored != item.HasResult() {
		if _, err := s.scoring.ScoreFixture(ctx, item); err != nil {
			return fixture.Fixture{}, err
		}
	}
	return item, nil
}

func (s *FixtureService) Delete(ctx context.Context, fixtureID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Delete")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	deleted, err := s.fixtureRepo.Delete(ctx, fixtureID)
	if err != nil {
		return fmt.Errorf("delete fixture: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: fixture=%s", ErrNotFound, fixtureID)
	}
	return nil
}

// SetResult records status, score and scorers; a FINISHED result scores
// every prediction of the fixture.
func (s *FixtureService) SetResult(ctx context.Context, fixtureID string, input FixtureResultInput) (fixture.Fixture, int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.SetResult")
	defer span.End()

	item, err := s.Get(ctx, fixtureID)
	if err != nil {
		return fixture.Fixture{}, 0, err
	}

	item.Status = fixture.NormalizeStatus(input.Status)
	item.HomeScore = input.HomeScore
	item.AwayScore = input.AwayScore
	item.Scorers = fixture.CleanScorers(input.Scorers)
	item.UpdatedAt = s.now().UTC()
	if err := item.Validate(); err != nil {
		return fixture.Fixture{}, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.save(ctx, item); err != nil {
		return fixture.Fixture{}, 0, err
	}

	scored, err := s.scoring.ScoreFixture(ctx, item)
	if err != nil {
		return fixture.Fixture{}, 0, err
	}
	return item, scored, nil
}

// WithResultFeed enables SyncResult against a match data provider.
func (s *FixtureService) WithResultFeed(feed ResultFeed) *FixtureService {
	s.feed = feed
	return s
}

// SyncResult pulls the provider's view of the fixture and applies it like SetResult.
func (s *FixtureService) SyncResult(ctx context.Context, fixtureID string, providerFixtureID int64) (fixture.Fixture, int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.SyncResult")
	defer span.End()

	if s.feed == nil {
		return fixture.Fixture{}, 0, fmt.Errorf("%w: result feed is not configured", ErrDependencyUnavailable)
	}
	if providerFixtureID <= 0 {
		return fixture.Fixture{}, 0, fmt.Errorf("%w: provider fixture id must be positive", ErrInvalidInput)
	}
	if _, err := s.Get(ctx, fixtureID); err != nil {
		return fixture.Fixture{}, 0, err
	}

	result, err := s.feed.FetchFixtureResult(ctx, providerFixtureID)
	if err != nil {
		return fixture.Fixture{}, 0, fmt.Errorf("fetch provider result: %w", err)
	}

	input := FixtureResultInput{Status: result.Status, Scorers: result.Scorers}
	if fixture.NormalizeStatus(result.Status) != fixture.StatusScheduled {
		input.HomeScore = result.HomeScore
		input.AwayScore = result.AwayScore
	}
	return s.SetResult(ctx, fixtureID, input)
}

// Rescore recomputes points for a fixture, e.g. after scoring rules changed.
func (s *FixtureService) Rescore(ctx context.Context, fixtureID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Rescore")
	defer span.End()

	item, err := s.Get(ctx, fixtureID)
	if err != nil {
		return 0, err
	}
	if !item.HasResult() {
		return 0, fmt.Errorf("%w: fixture=%s has no final result", ErrInvalidInput, item.ID)
	}
	return s.scoring.ScoreFixture(ctx, item)
}

func (s *FixtureService) save(ctx context.Context, item fixture.Fixture) error {
	updated, err := s.fixtureRepo.Update(ctx, item)
	if err != nil {
		return fmt.Errorf("update fixture: %w", err)
	}
	if !updated {
		return fmt.Errorf("%w: fixture=%s", ErrNotFound, item.ID)
	}
	return nil
}

func (s *FixtureService) validateFixture(ctx context.Context, item *fixture.Fixture) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	teams, err := s.teamRepo.ListByIDs(ctx, []string{item.HomeTeamID, item.AwayTeamID})
	if err != nil {
		return fmt.Errorf("load fixture teams: %w", err)
	}
	names := make(map[string]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	home, okHome := names[item.HomeTeamID]
	away, okAway := names[item.AwayTeamID]
	if !okHome || !okAway {
		return fmt.Errorf("%w: home and away teams must exist", ErrInvalidInput)
	}
	item.HomeTeamName = home
	item.AwayTeamName = away
	return nil
}

func applyFixtureInput(item *fixture.Fixture, input FixtureInput) {
	item.Competition = strings.TrimSpace(input.Competition)
	item.Matchday = input.Matchday
	item.HomeTeamID = strings.TrimSpace(input.HomeTeamID)
	item.AwayTeamID = strings.TrimSpace(input.AwayTeamID)
	item.KickoffAt = input.KickoffAt.UTC()
	item.Venue = strings.TrimSpace(input.Venue)
	if strings.TrimSpace(input.Status) != "" || item.Status == "" {
		item.Status = fixture.NormalizeStatus(input.Status)
	}
}
