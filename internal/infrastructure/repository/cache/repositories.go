package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/domain/team"
	basecache "github.com/riskibarqy/plus-predictor/internal/platform/cache"
)

const (
	teamPrefix    = "team:"
	fixturePrefix = "fixture:"
)

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	v, err := r.cache.GetOrLoad(ctx, teamPrefix+"list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]team.Team)
	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, teamPrefix+"id:"+teamID, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return cachedTeamByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeamByID)
	return cached.value, cached.exists, nil
}

func (r *TeamRepository) ListByIDs(ctx context.Context, teamIDs []string) ([]team.Team, error) {
	key := teamPrefix + "ids:" + idsKey(teamIDs)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByIDs(ctx, teamIDs)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]team.Team)
	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) Create(ctx context.Context, t team.Team) error {
	if err := r.next.Create(ctx, t); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *TeamRepository) Update(ctx context.Context, t team.Team) (bool, error) {
	ok, err := r.next.Update(ctx, t)
	if err != nil {
		return false, err
	}
	r.invalidate(ctx)
	return ok, nil
}

func (r *TeamRepository) Delete(ctx context.Context, teamID string) (bool, error) {
	ok, err := r.next.Delete(ctx, teamID)
	if err != nil {
		return false, err
	}
	r.invalidate(ctx)
	return ok, nil
}

// invalidate also drops fixtures, which carry denormalized team names.
func (r *TeamRepository) invalidate(ctx context.Context) {
	r.cache.DeletePrefix(ctx, teamPrefix)
	r.cache.DeletePrefix(ctx, fixturePrefix)
}

type cachedTeamByID struct {
	value  team.Team
	exists bool
}

type FixtureRepository struct {
	next  fixture.Repository
	cache *basecache.Store
}

func NewFixtureRepository(next fixture.Repository, cache *basecache.Store) *FixtureRepository {
	return &FixtureRepository{next: next, cache: cache}
}

func (r *FixtureRepository) List(ctx context.Context, filter fixture.Filter) ([]fixture.Fixture, error) {
	v, err := r.cache.GetOrLoad(ctx, fixturePrefix+"list:"+filter.CacheKey(), func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return cloneFixtures(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]fixture.Fixture)
	return cloneFixtures(items), nil
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, fixturePrefix+"id:"+fixtureID, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, fixtureID)
		if err != nil {
			return nil, err
		}
		return cachedFixtureByID{value: cloneFixture(item), exists: exists}, nil
	})
	if err != nil {
		return fixture.Fixture{}, false, err
	}

	cached, _ := v.(cachedFixtureByID)
	return cloneFixture(cached.value), cached.exists, nil
}

func (r *FixtureRepository) ListByIDs(ctx context.Context, fixtureIDs []string) ([]fixture.Fixture, error) {
	key := fixturePrefix + "ids:" + idsKey(fixtureIDs)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByIDs(ctx, fixtureIDs)
		if err != nil {
			return nil, err
		}
		return cloneFixtures(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]fixture.Fixture)
	return cloneFixtures(items), nil
}

// ListOpenWithoutPrediction depends on the caller's predictions and is never cached.
func (r *FixtureRepository) ListOpenWithoutPrediction(ctx context.Context, userID string, from time.Time, limit int) ([]fixture.Fixture, error) {
	return r.next.ListOpenWithoutPrediction(ctx, userID, from, limit)
}

func (r *FixtureRepository) Create(ctx context.Context, f fixture.Fixture) error {
	if err := r.next.Create(ctx, f); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, fixturePrefix)
	return nil
}

func (r *FixtureRepository) Update(ctx context.Context, f fixture.Fixture) (bool, error) {
	ok, err := r.next.Update(ctx, f)
	if err != nil {
		return false, err
	}
	r.cache.DeletePrefix(ctx, fixturePrefix)
	return ok, nil
}

func (r *FixtureRepository) Delete(ctx context.Context, fixtureID string) (bool, error) {
	ok, err := r.next.Delete(ctx, fixtureID)
	if err != nil {
		return false, err
	}
	r.cache.DeletePrefix(ctx, fixturePrefix)
	return ok, nil
}

type cachedFixtureByID struct {
	value  fixture.Fixture
	exists bool
}

func cloneFixture(item fixture.Fixture) fixture.Fixture {
	out := item
	out.Scorers = append([]string(nil), item.Scorers...)
	if item.HomeScore != nil {
		v := *item.HomeScore
		out.HomeScore = &v
	}
	if item.AwayScore != nil {
		v := *item.AwayScore
		out.AwayScore = &v
	}
	return out
}

func cloneFixtures(items []fixture.Fixture) []fixture.Fixture {
	out := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		out = append(out, cloneFixture(item))
	}
	return out
}

func idsKey(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
