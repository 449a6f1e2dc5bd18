package investigation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/investigo/internal/domain"
	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	"github.com/kailas-cloud/investigo/internal/domain/graph"
	"github.com/kailas-cloud/investigo/internal/domain/insight"
	"github.com/kailas-cloud/investigo/internal/domain/result"
)

// Error codes carried by unsuccessful responses.
const (
	CodeInvalidQuery       = "invalid_query"
	CodeBackendUnavailable = "backend_unavailable"
)

// Error describes why a search did not succeed.
type Error struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Hints   []string `json:"hints,omitempty"`
}

// Metadata carries run accounting.
type Metadata struct {
	CriteriaCount      int   `json:"criteria_count"`
	ActiveCriteria     int   `json:"active_criteria"`
	SuppressedCriteria int   `json:"suppressed_criteria"`
	SearchesExecuted   int   `json:"searches_executed"`
	SearchesSkipped    int   `json:"searches_skipped"`
	SearchesFailed     int   `json:"searches_failed"`
	APICalls           int   `json:"api_calls"`
	PagesFetched       int   `json:"pages_fetched"`
	CacheHits          int   `json:"cache_hits"`
	CacheMisses        int   `json:"cache_misses"`
	EarlyTerminated    bool  `json:"early_terminated"`
	Incomplete         bool  `json:"incomplete"`
	Cancelled          bool  `json:"cancelled"`
	TotalResults       int   `json:"total_results"`
	ExactMatches       int   `json:"exact_matches"`
	DurationMs         int64 `json:"duration_ms"`
}

// Response is the outcome of one investigation search.
type Response struct {
	RunID    uuid.UUID                `json:"run_id"`
	Query    string                   `json:"query"`
	Success  bool                     `json:"success"`
	Error    *Error                   `json:"error,omitempty"`
	Criteria []criterion.Criterion    `json:"criteria"`
	Results  []result.CrossReferenced `json:"results"`
	Graph    graph.Graph              `json:"graph"`
	Insights insight.Insights         `json:"insights"`
	Metadata Metadata                 `json:"metadata"`
}

// Failed builds an unsuccessful response with empty collections.
func Failed(runID uuid.UUID, query string, e Error) Response {
	ins := insight.Insights{Source: insight.SourceRuleBased}
	ins.Normalize()
	return Response{
		RunID:    runID,
		Query:    query,
		Error:    &e,
		Criteria: []criterion.Criterion{},
		Results:  []result.CrossReferenced{},
		Graph:    graph.Empty(),
		Insights: ins,
	}
}

// Err returns the domain error behind an unsuccessful response, or nil.
func (r Response) Err() error {
	if r.Error == nil {
		return nil
	}
	switch r.Error.Code {
	case CodeInvalidQuery:
		return domain.NewQueryError(r.Error.Message)
	case CodeBackendUnavailable:
		return fmt.Errorf("%w: %s", domain.ErrBackendUnavailable, r.Error.Message)
	default:
		return errors.New(r.Error.Message)
	}
}
