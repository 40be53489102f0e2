package prediction

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
)

func TestRules_Score(t *testing.T) {
	rules := DefaultRules()
	result := Result{HomeScore: 2, AwayScore: 1, Scorers: []string{"Vangelis Pavlidis", "Ángel Di María"}}

	cases := []struct {
		name string
		pred Prediction
		want Score
	}{
		{name: "exact score", pred: Prediction{ID: "a", HomeScore: 2, AwayScore: 1}, want: Score{PredictionID: "a", Points: 3, ExactHit: true}},
		{name: "exact score and scorer", pred: Prediction{ID: "b", HomeScore: 2, AwayScore: 1, Scorer: "angel di maria"}, want: Score{PredictionID: "b", Points: 4, ExactHit: true}},
		{name: "correct outcome", pred: Prediction{ID: "c", HomeScore: 3, AwayScore: 0}, want: Score{PredictionID: "c", Points: 1}},
		{name: "outcome and scorer", pred: Prediction{ID: "d", HomeScore: 1, AwayScore: 0, Scorer: " VANGELIS  PAVLIDIS "}, want: Score{PredictionID: "d", Points: 2}},
		{name: "wrong outcome", pred: Prediction{ID: "e", HomeScore: 1, AwayScore: 1}, want: Score{PredictionID: "e", Points: 0}},
		{name: "wrong outcome right scorer", pred: Prediction{ID: "f", HomeScore: 0, AwayScore: 2, Scorer: "Di María"}, want: Score{PredictionID: "f", Points: 0}},
		{name: "no scorer predicted", pred: Prediction{ID: "g", HomeScore: 0, AwayScore: 0, Scorer: ""}, want: Score{PredictionID: "g", Points: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rules.Score(tc.pred, result)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("unexpected score (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRules_DrawOutcome(t *testing.T) {
	got := DefaultRules().Score(Prediction{HomeScore: 0, AwayScore: 0}, Result{HomeScore: 2, AwayScore: 2})
	if got.Points != 1 || got.ExactHit {
		t.Fatalf("draw outcome should score 1 without exact hit, got %+v", got)
	}
}

func TestResultOf(t *testing.T) {
	home, away := 1, 0
	if _, ok := ResultOf(fixture.Fixture{Status: fixture.StatusLive, HomeScore: &home, AwayScore: &away}); ok {
		t.Fatalf("live fixture must not produce a result")
	}
	if _, ok := ResultOf(fixture.Fixture{Status: fixture.StatusFinished}); ok {
		t.Fatalf("finished fixture without scores must not produce a result")
	}
	res, ok := ResultOf(fixture.Fixture{Status: fixture.StatusFinished, HomeScore: &home, AwayScore: &away, Scorers: []string{"X"}})
	if !ok || res.HomeScore != 1 || res.AwayScore != 0 || len(res.Scorers) != 1 {
		t.Fatalf("unexpected result: %+v ok=%v", res, ok)
	}
}

func TestPrediction_Validate(t *testing.T) {
	if err := (Prediction{UserID: "u", FixtureID: "f", HomeScore: -1}).Validate(); err == nil {
		t.Fatalf("expected negative score to be rejected")
	}
	if err := (Prediction{UserID: "u", FixtureID: "f", HomeScore: 2, AwayScore: 99}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
