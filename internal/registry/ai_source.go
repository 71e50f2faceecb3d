package registry

import (
	"context"

	"github.com/compliance/pep-registry/internal/domain"
)

// HolderDiscoverer is the slice of the AI classifier that discovery
// uses.
type HolderDiscoverer interface {
	DiscoverHolders(ctx context.Context, position, country, year string) ([]domain.CandidateLine, error)
}

// AISource adapts AI holder discovery to the candidate source
// interface. A position is required; the model enumerates who held it.
type AISource struct {
	discoverer HolderDiscoverer
}

func NewAISource(discoverer HolderDiscoverer) *AISource {
	return &AISource{discoverer: discoverer}
}

func (a *AISource) Name() string {
	return "ai"
}

func (a *AISource) Discover(ctx context.Context, query CandidateQuery) ([]domain.CandidateLine, error) {
	if query.Position == "" {
		return nil, domain.NewValidationError("position", "must not be empty for ai discovery")
	}
	year := query.Year
	if year == "" {
		year = "current"
	}
	return a.discoverer.DiscoverHolders(ctx, query.Position, query.Country, year)
}
