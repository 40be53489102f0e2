package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/domain/team"
	fixturemock "github.com/riskibarqy/plus-predictor/internal/mocks/domain/fixture"
	teammock "github.com/riskibarqy/plus-predictor/internal/mocks/domain/team"
	basecache "github.com/riskibarqy/plus-predictor/internal/platform/cache"
)

func TestTeamRepository_ListIsCachedUntilWrite(t *testing.T) {
	ctx := context.Background()
	next := teammock.NewRepository(t)
	repo := NewTeamRepository(next, basecache.NewStore(time.Minute))

	teams := []team.Team{{ID: "team-slb", Name: "SL Benfica", ShortName: "SLB"}}
	next.On("List", mock.Anything).Return(teams, nil).Twice()
	next.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	got, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, teams, got)

	got[0].Name = "mutated"
	again, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SL Benfica", again[0].Name)

	require.NoError(t, repo.Create(ctx, team.Team{ID: "team-fcp"}))
	_, err = repo.List(ctx)
	require.NoError(t, err)
}

func TestFixtureRepository_ListCachedPerFilter(t *testing.T) {
	ctx := context.Background()
	next := fixturemock.NewRepository(t)
	store := basecache.NewStore(time.Minute)
	repo := NewFixtureRepository(next, store)

	scheduled := fixture.Filter{Status: fixture.StatusScheduled}
	finished := fixture.Filter{Status: fixture.StatusFinished}
	next.On("List", mock.Anything, scheduled).Return([]fixture.Fixture{{ID: "fx-1"}}, nil).Once()
	next.On("List", mock.Anything, finished).Return([]fixture.Fixture{{ID: "fx-2", HomeScore: intPtr(1)}}, nil).Once()

	for i := 0; i < 3; i++ {
		items, err := repo.List(ctx, scheduled)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "fx-1", items[0].ID)
	}

	items, err := repo.List(ctx, finished)
	require.NoError(t, err)
	*items[0].HomeScore = 7
	items, err = repo.List(ctx, finished)
	require.NoError(t, err)
	assert.Equal(t, 1, *items[0].HomeScore)
}

func TestFixtureRepository_UpdateInvalidatesAndOpenListBypassesCache(t *testing.T) {
	ctx := context.Background()
	next := fixturemock.NewRepository(t)
	repo := NewFixtureRepository(next, basecache.NewStore(time.Minute))

	next.On("GetByID", mock.Anything, "fx-1").Return(fixture.Fixture{ID: "fx-1", Status: fixture.StatusScheduled}, true, nil).Twice()
	next.On("Update", mock.Anything, mock.Anything).Return(true, nil).Once()
	from := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	next.On("ListOpenWithoutPrediction", mock.Anything, "u-1", from, 5).Return([]fixture.Fixture{}, nil).Twice()

	_, exists, err := repo.GetByID(ctx, "fx-1")
	require.NoError(t, err)
	require.True(t, exists)
	_, _, err = repo.GetByID(ctx, "fx-1")
	require.NoError(t, err)

	_, err = repo.Update(ctx, fixture.Fixture{ID: "fx-1"})
	require.NoError(t, err)
	_, _, err = repo.GetByID(ctx, "fx-1")
	require.NoError(t, err)

	_, err = repo.ListOpenWithoutPrediction(ctx, "u-1", from, 5)
	require.NoError(t, err)
	_, err = repo.ListOpenWithoutPrediction(ctx, "u-1", from, 5)
	require.NoError(t, err)
}

func TestTeamRepository_WriteDropsFixtureEntries(t *testing.T) {
	ctx := context.Background()
	store := basecache.NewStore(time.Minute)
	teams := teammock.NewRepository(t)
	teams.On("Update", mock.Anything, mock.Anything).Return(true, nil).Once()

	store.Set(ctx, fixturePrefix+"id:fx-1", cachedFixtureByID{exists: true})
	_, err := NewTeamRepository(teams, store).Update(ctx, team.Team{ID: "team-slb"})
	require.NoError(t, err)

	_, ok := store.Get(ctx, fixturePrefix+"id:fx-1")
	assert.False(t, ok)
}

func intPtr(v int) *int { return &v }
