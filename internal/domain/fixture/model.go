package fixture

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusCancelled = "CANCELLED"
)

const MaxScore = 99

// Fixture is one football match open to predictions until kickoff.
type Fixture struct {
	ID           string
	Competition  string
	Matchday     int
	HomeTeamID   string
	AwayTeamID   string
	HomeTeamName string
	AwayTeamName string
	KickoffAt    time.Time
	Venue        string
	Status       string
	HomeScore    *int
	AwayScore    *int
	Scorers      []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func IsValidStatus(status string) bool {
	switch status {
	case StatusScheduled, StatusLive, StatusFinished, StatusPostponed, StatusCancelled:
		return true
	default:
		return false
	}
}

func (f Fixture) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("fixture id is required")
	}
	if strings.TrimSpace(f.HomeTeamID) == "" || strings.TrimSpace(f.AwayTeamID) == "" {
		return fmt.Errorf("home and away teams are required")
	}
	if f.HomeTeamID == f.AwayTeamID {
		return fmt.Errorf("home and away teams must differ")
	}
	if f.KickoffAt.IsZero() {
		return fmt.Errorf("kickoff time is required")
	}
	if f.Matchday < 0 {
		return fmt.Errorf("matchday must be >= 0")
	}
	if !IsValidStatus(f.Status) {
		return fmt.Errorf("invalid fixture status %q", f.Status)
	}
	if err := ValidateScore(f.HomeScore); err != nil {
		return fmt.Errorf("home score: %w", err)
	}
	if err := ValidateScore(f.AwayScore); err != nil {
		return fmt.Errorf("away score: %w", err)
	}
	if f.Status == StatusFinished && (f.HomeScore == nil || f.AwayScore == nil) {
		return fmt.Errorf("finished fixture requires both scores")
	}

	return nil
}

func ValidateScore(score *int) error {
	if score == nil {
		return nil
	}
	if *score < 0 || *score > MaxScore {
		return fmt.Errorf("score must be between 0 and %d", MaxScore)
	}
	return nil
}

// LockAt is the instant predictions close.
func (f Fixture) LockAt(lead time.Duration) time.Time {
	return f.KickoffAt.Add(-lead)
}

// IsOpenForPredictions reports whether a prediction may still be placed or changed.
func (f Fixture) IsOpenForPredictions(now time.Time, lead time.Duration) bool {
	return f.Status == StatusScheduled && now.Before(f.LockAt(lead))
}

// HasResult reports whether the fixture is finished with a final score.
func (f Fixture) HasResult() bool {
	return f.Status == StatusFinished && f.HomeScore != nil && f.AwayScore != nil
}

// CleanScorers trims, drops empties and sorts scorer names.
func CleanScorers(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Filter narrows fixture listings; zero values mean "any".
type Filter struct {
	Status      string
	Competition string
	From        *time.Time
	To          *time.Time
}

// CacheKey is a stable key for read-through caching of a listing.
func (f Filter) CacheKey() string {
	var b strings.Builder
	b.WriteString("status=")
	b.WriteString(f.Status)
	b.WriteString("|competition=")
	b.WriteString(f.Competition)
	if f.From != nil {
		b.WriteString("|from=")
		b.WriteString(f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		b.WriteString("|to=")
		b.WriteString(f.To.UTC().Format(time.RFC3339))
	}
	return b.String()
}
