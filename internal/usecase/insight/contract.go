package insight

import (
	"context"

	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	domgraph "github.com/kailas-cloud/investigo/internal/domain/graph"
	"github.com/kailas-cloud/investigo/internal/domain/result"
)

// Analyzer is an external analysis backend. It receives a system prompt and a
// JSON payload and returns free text expected to contain one JSON object.
type Analyzer interface {
	Analyze(ctx context.Context, system, payload string) (string, error)
}

// Input is everything the generator knows about a finished search.
type Input struct {
	Query           string
	Criteria        []criterion.Criterion
	Results         []result.CrossReferenced
	Graph           domgraph.Graph
	EarlyTerminated bool
	Incomplete      bool
	FailedSearches  int
}
