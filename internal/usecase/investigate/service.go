package investigate

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/investigo/internal/domain"
	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	"github.com/kailas-cloud/investigo/internal/domain/investigation"
	"github.com/kailas-cloud/investigo/internal/domain/result"
	"github.com/kailas-cloud/investigo/internal/logger"
	"github.com/kailas-cloud/investigo/internal/usecase/crossref"
	"github.com/kailas-cloud/investigo/internal/usecase/extract"
	"github.com/kailas-cloud/investigo/internal/usecase/fetch"
	"github.com/kailas-cloud/investigo/internal/usecase/graph"
	"github.com/kailas-cloud/investigo/internal/usecase/insight"
)

// Options tunes result assembly.
type Options struct {
	// StrictFilters drops records that match none of the filter criteria.
	StrictFilters bool
}

// Service runs investigation searches end to end:
// extract, fetch, cross-reference, graph, insights.
type Service struct {
	fetcher  Fetcher
	insights InsightGenerator
	observer Observer
	opts     Options
	logger   *zap.Logger
}

// New creates a search service. observer can be nil.
func New(fetcher Fetcher, insights InsightGenerator, observer Observer, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher:  fetcher,
		insights: insights,
		observer: observer,
		opts:     opts,
		logger:   logger,
	}
}

// ValidateQuery rejects empty, whitespace-only and oversized queries.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return domain.NewQueryError("query is empty")
	}
	if utf8.RuneCountInString(query) > domain.MaxQueryLength {
		return domain.NewQueryError("query is longer than 1024 characters")
	}
	return nil
}

// Search runs one investigation. It never returns an error: failures are
// reported in the response, and only a malformed query or an unreachable
// backend make it unsuccessful.
func (s *Service) Search(ctx context.Context, query string) investigation.Response {
	start := time.Now()
	runID := uuid.New()
	log := logger.FromContextOr(ctx, s.logger).With(zap.String("run_id", runID.String()))
	ctx = logger.ContextWithLogger(ctx, log)

	if err := ValidateQuery(query); err != nil {
		resp := investigation.Failed(runID, query, investigation.Error{
			Code:    investigation.CodeInvalidQuery,
			Message: err.Error(),
		})
		return s.finish(resp, start, log)
	}

	criteria := extract.Extract(query)
	store := crossref.NewStore()
	st := s.fetcher.FetchAll(ctx, criteria, store)

	results := store.Results(criteria, crossref.Options{StrictFilters: s.opts.StrictFilters})
	if results == nil {
		results = []result.CrossReferenced{}
	}
	md := metadata(criteria, st, results)

	if st.Executed > 0 && st.Failed == st.Executed && len(results) == 0 {
		resp := investigation.Failed(runID, query, investigation.Error{
			Code:    investigation.CodeBackendUnavailable,
			Message: "search backend unreachable",
			Hints:   []string{"check API connectivity", "verify the search API token"},
		})
		resp.Criteria = criteria
		resp.Metadata = md
		return s.finish(resp, start, log)
	}

	g := graph.Build(results)
	ins := s.insights.Generate(ctx, insight.Input{
		Query:           query,
		Criteria:        criteria,
		Results:         results,
		Graph:           g,
		EarlyTerminated: st.EarlyTerminated,
		Incomplete:      st.Incomplete,
		FailedSearches:  st.Failed,
	})

	return s.finish(investigation.Response{
		RunID:    runID,
		Query:    query,
		Success:  true,
		Criteria: criteria,
		Results:  results,
		Graph:    g,
		Insights: ins,
		Metadata: md,
	}, start, log)
}

func (s *Service) finish(resp investigation.Response, start time.Time, log *zap.Logger) investigation.Response {
	resp.Metadata.DurationMs = time.Since(start).Milliseconds()

	md := resp.Metadata
	fields := []zap.Field{
		logger.Query(resp.Query),
		zap.Bool("success", resp.Success),
		zap.Int("criteria", md.CriteriaCount),
		zap.Int("executed", md.SearchesExecuted),
		zap.Int("skipped", md.SearchesSkipped),
		zap.Int("failed", md.SearchesFailed),
		zap.Int("api_calls", md.APICalls),
		zap.Int("results", md.TotalResults),
		zap.Int("exact", md.ExactMatches),
		zap.Bool("early_terminated", md.EarlyTerminated),
		zap.Bool("incomplete", md.Incomplete),
		zap.Int64("duration_ms", md.DurationMs),
	}
	if resp.Error != nil {
		fields = append(fields, zap.String("error_code", resp.Error.Code))
		log.Warn("Search failed", fields...)
	} else {
		log.Info("Search completed", fields...)
	}

	if s.observer != nil {
		s.observer.ObserveSearch(resp)
	}
	return resp
}

func metadata(criteria []criterion.Criterion, st fetch.Stats, results []result.CrossReferenced) investigation.Metadata {
	exact := 0
	for _, r := range results {
		if r.IsExactMatch {
			exact++
		}
	}
	return investigation.Metadata{
		CriteriaCount:      len(criteria),
		ActiveCriteria:     st.Active,
		SuppressedCriteria: st.Suppressed,
		SearchesExecuted:   st.Executed,
		SearchesSkipped:    st.Skipped,
		SearchesFailed:     st.Failed,
		APICalls:           st.APICalls,
		PagesFetched:       st.Pages,
		CacheHits:          st.CacheHits,
		CacheMisses:        st.CacheMisses,
		EarlyTerminated:    st.EarlyTerminated,
		Incomplete:         st.Incomplete,
		Cancelled:          st.Cancelled,
		TotalResults:       len(results),
		ExactMatches:       exact,
	}
}
