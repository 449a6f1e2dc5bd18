package fetch

import (
	"context"

	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	"github.com/kailas-cloud/investigo/internal/domain/page"
)

// Searcher fetches one page of records for a term.
type Searcher interface {
	Search(ctx context.Context, req page.Request) (page.Page, error)
}

// Sink receives every fetched hit attributed to its criterion.
type Sink interface {
	Add(c criterion.Criterion, hit page.Hit) bool
	// HighConfidenceCount reports how many records matched at least two P1/P2 criteria.
	HighConfidenceCount() int
}

// Cache stores completed page sets per term.
type Cache interface {
	Get(ctx context.Context, t criterion.Type, normalized string) (page.Set, bool)
	Put(ctx context.Context, t criterion.Type, normalized string, set page.Set)
}
