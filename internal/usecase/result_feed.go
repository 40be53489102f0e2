package usecase

import "context"

// ExternalFixtureResult is a match data provider's view of one fixture, with
// Status already mapped onto fixture statuses.
type ExternalFixtureResult struct {
	ProviderFixtureID int64
	Status            string
	HomeTeamName      string
	AwayTeamName      string
	HomeScore         *int
	AwayScore         *int
	Scorers           []string
}

type ResultFeed interface {
	FetchFixtureResult(ctx context.Context, providerFixtureID int64) (ExternalFixtureResult, error)
}
