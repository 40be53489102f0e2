package fixture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestFixture_Validate(t *testing.T) {
	base := Fixture{
		ID:         "fx-1",
		HomeTeamID: "slb",
		AwayTeamID: "fcp",
		KickoffAt:  time.Date(2026, 8, 9, 20, 30, 0, 0, time.UTC),
		Status:     StatusScheduled,
	}
	assert.NoError(t, base.Validate())

	same := base
	same.AwayTeamID = "slb"
	assert.Error(t, same.Validate())

	badScore := base
	badScore.HomeScore = intPtr(100)
	assert.Error(t, badScore.Validate())

	unfinished := base
	unfinished.Status = StatusFinished
	unfinished.HomeScore = intPtr(1)
	assert.Error(t, unfinished.Validate(), "finished requires both scores")

	badStatus := base
	badStatus.Status = "HALFTIME"
	assert.Error(t, badStatus.Validate())
}

func TestFixture_IsOpenForPredictions(t *testing.T) {
	kickoff := time.Date(2026, 8, 9, 20, 30, 0, 0, time.UTC)
	f := Fixture{Status: StatusScheduled, KickoffAt: kickoff}

	assert.True(t, f.IsOpenForPredictions(kickoff.Add(-time.Minute), 0))
	assert.False(t, f.IsOpenForPredictions(kickoff, 0), "locks exactly at kickoff")
	assert.False(t, f.IsOpenForPredictions(kickoff.Add(-10*time.Minute), 15*time.Minute))

	f.Status = StatusPostponed
	assert.False(t, f.IsOpenForPredictions(kickoff.Add(-time.Hour), 0))
}

func TestNormalizeStatusAndScorers(t *testing.T) {
	assert.Equal(t, StatusFinished, NormalizeStatus(" finished "))
	assert.Equal(t, StatusScheduled, NormalizeStatus(""))
	assert.Equal(t, []string{"Di María", "Pavlidis"}, CleanScorers([]string{" Pavlidis", "", "Di María "}))
}
