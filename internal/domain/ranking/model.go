package ranking

import (
	"context"
	"sort"
	"strings"
)

// Entry is one user's aggregate over scored predictions.
type Entry struct {
	Rank        int
	UserID      string
	DisplayName string
	Points      int
	ExactHits   int
	Scored      int
}

// Rank orders entries by points desc, exact hits desc, display name asc and
// assigns dense ranks on (points, exact hits).
func Rank(entries []Entry) []Entry {
	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].ExactHits != out[j].ExactHits {
			return out[i].ExactHits > out[j].ExactHits
		}
		ni, nj := strings.ToLower(out[i].DisplayName), strings.ToLower(out[j].DisplayName)
		if ni != nj {
			return ni < nj
		}
		return out[i].UserID < out[j].UserID
	})

	rank := 0
	for i := range out {
		if i == 0 || out[i].Points != out[i-1].Points || out[i].ExactHits != out[i-1].ExactHits {
			rank++
		}
		out[i].Rank = rank
	}
	return out
}

// Find returns the entry for userID in a ranked list.
func Find(entries []Entry, userID string) (Entry, bool) {
	for _, e := range entries {
		if e.UserID == userID {
			return e, true
		}
	}
	return Entry{}, false
}

type Repository interface {
	// Global aggregates every user with at least one scored prediction.
	Global(ctx context.Context) ([]Entry, error)
	// League aggregates every member of the league, including members without points.
	League(ctx context.Context, leagueID string) ([]Entry, error)
}
