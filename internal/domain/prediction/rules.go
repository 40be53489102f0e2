package prediction

import (
	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/platform/textnorm"
)

// Rules holds the point values awarded per prediction.
type Rules struct {
	ExactScore     int
	CorrectOutcome int
	ScorerBonus    int
}

func DefaultRules() Rules {
	return Rules{
		ExactScore:     3,
		CorrectOutcome: 1,
		ScorerBonus:    1,
	}
}

// Result is the final outcome of a fixture.
type Result struct {
	HomeScore int
	AwayScore int
	Scorers   []string
}

// ResultOf extracts the final result; ok is false until the fixture is finished.
func ResultOf(f fixture.Fixture) (Result, bool) {
	if !f.HasResult() {
		return Result{}, false
	}
	return Result{HomeScore: *f.HomeScore, AwayScore: *f.AwayScore, Scorers: f.Scorers}, true
}

// Score awards an exact score, or else a correct outcome, plus the scorer
// bonus when the predicted scorer is among the actual scorers.
func (r Rules) Score(p Prediction, result Result) Score {
	out := Score{PredictionID: p.ID}
	switch {
	case p.HomeScore == result.HomeScore && p.AwayScore == result.AwayScore:
		out.Points = r.ExactScore
		out.ExactHit = true
	case outcome(p.HomeScore, p.AwayScore) == outcome(result.HomeScore, result.AwayScore):
		out.Points = r.CorrectOutcome
	}

	if textnorm.ContainsFold(result.Scorers, p.Scorer) {
		out.Points += r.ScorerBonus
	}
	return out
}

// ScoreAll scores every prediction against result.
func (r Rules) ScoreAll(predictions []Prediction, result Result) []Score {
	out := make([]Score, 0, len(predictions))
	for _, p := range predictions {
		out = append(out, r.Score(p, result))
	}
	return out
}

func outcome(home, away int) int {
	switch {
	case home > away:
		return 1
	case home < away:
		return -1
	default:
		return 0
	}
}
