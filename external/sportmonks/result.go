package sportmonks

import (
	"strings"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

// Event type ids of the football API; own goals are not credited to a scorer.
const (
	eventTypeGoal    = 14
	eventTypeOwnGoal = 15
	eventTypePenalty = 16
)

func mapFixtureResult(item fixtureDetails) usecase.ExternalFixtureResult {
	homeName, awayName, homeID, awayID := resolveFixtureParticipants(item.Participants)
	home, away := resolveFixtureScores(item.Scores, homeID, awayID)

	stateID := item.StateID
	if stateID == 0 && item.State.Set {
		stateID = item.State.Data.ID
	}

	return usecase.ExternalFixtureResult{
		ProviderFixtureID: item.ID,
		Status:            mapFixtureStatus(stateID, item.ResultInfo),
		HomeTeamName:      homeName,
		AwayTeamName:      awayName,
		HomeScore:         home,
		AwayScore:         away,
		Scorers:           collectScorers(item.Events),
	}
}

func resolveFixtureParticipants(participants []fixtureParticipant) (string, string, int64, int64) {
	var homeName, awayName string
	var homeID, awayID int64
	for _, item := range participants {
		switch strings.ToLower(strings.TrimSpace(item.Meta.Location)) {
		case "home":
			homeName = strings.TrimSpace(item.Name)
			homeID = item.ID
		case "away":
			awayName = strings.TrimSpace(item.Name)
			awayID = item.ID
		}
	}
	return homeName, awayName, homeID, awayID
}

// resolveFixtureScores keeps the most authoritative score description present
// ("CURRENT" over full time over "2ND_HALF" over "1ST_HALF"). Shootout scores
// never count as the match result.
func resolveFixtureScores(scores []fixtureScoreItem, homeID, awayID int64) (*int, *int) {
	if len(scores) == 0 || homeID == 0 || awayID == 0 {
		return nil, nil
	}

	bestWeight := 0
	var home, away *int
	for _, score := range scores {
		weight := scoreDescriptionWeight(score.Description)
		if weight == 0 {
			continue
		}
		value, ok := score.numericScore()
		if !ok {
			continue
		}

		if weight > bestWeight {
			bestWeight = weight
			home, away = nil, nil
		}
		if weight < bestWeight {
			continue
		}

		switch score.ParticipantID {
		case homeID:
			home = &value
		case awayID:
			away = &value
		}
	}
	return home, away
}

// scoreDescriptionWeight ranks score descriptions; 0 means ignore.
func scoreDescriptionWeight(raw string) int {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(value, "penalt"):
		return 0
	case value == "current":
		return 6
	case strings.Contains(value, "normal_time"), strings.Contains(value, "90"):
		return 5
	case strings.Contains(value, "extra_time"):
		return 4
	case value == "2nd_half":
		return 3
	case value == "1st_half":
		return 2
	default:
		return 1
	}
}

func mapFixtureStatus(stateID int64, resultInfo string) string {
	switch stateID {
	case 2, 3, 4, 6, 7, 8, 9:
		return fixture.StatusLive
	case 5, 13, 14:
		return fixture.StatusFinished
	case 10:
		return fixture.StatusPostponed
	case 11, 12:
		return fixture.StatusCancelled
	case 1:
		return fixture.StatusScheduled
	}

	info := strings.ToLower(strings.TrimSpace(resultInfo))
	switch {
	case strings.Contains(info, "postpon"):
		return fixture.StatusPostponed
	case strings.Contains(info, "cancel"), strings.Contains(info, "abandon"):
		return fixture.StatusCancelled
	case strings.Contains(info, "live"), strings.Contains(info, "in play"), strings.Contains(info, "half"):
		return fixture.StatusLive
	case strings.Contains(info, "finish"), strings.Contains(info, "full time"), strings.Contains(info, "won"), strings.Contains(info, "draw"):
		return fixture.StatusFinished
	default:
		return fixture.StatusScheduled
	}
}

func collectScorers(events []fixtureEventItem) []string {
	out := make([]string, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, event := range events {
		if !isScoringEvent(event) {
			continue
		}
		name := strings.TrimSpace(event.PlayerName)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

func isScoringEvent(event fixtureEventItem) bool {
	switch event.TypeID {
	case eventTypeGoal, eventTypePenalty:
		return true
	case eventTypeOwnGoal:
		return false
	}
	switch event.typeName() {
	case "GOAL", "PENALTY":
		return true
	}
	return false
}
