package fetch

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/investigo/internal/domain"
	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	"github.com/kailas-cloud/investigo/internal/domain/page"
	"github.com/kailas-cloud/investigo/internal/logger"
)

// Config tunes the fetcher.
type Config struct {
	// Concurrency bounds both the batch size and the goroutines per batch.
	Concurrency int
	// EarlyTerminationThreshold stops scheduling batches once this many records
	// matched two or more P1/P2 criteria. Zero disables early termination.
	EarlyTerminationThreshold int
	PageSize                  int
	PageTimeout               time.Duration
	PageCaps                  map[criterion.Priority]int
}

// DefaultPageCaps returns the maximum pages fetched per priority.
func DefaultPageCaps() map[criterion.Priority]int {
	return map[criterion.Priority]int{
		criterion.P1: 5,
		criterion.P2: 3,
		criterion.P3: 2,
		criterion.P4: 1,
		criterion.P5: 0,
	}
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:               5,
		EarlyTerminationThreshold: 3,
		PageSize:                  page.DefaultLimit,
		PageTimeout:               20 * time.Second,
		PageCaps:                  DefaultPageCaps(),
	}
}

// Stats is the accounting of one FetchAll run.
// Executed + Skipped always equals Active.
type Stats struct {
	Active          int
	Suppressed      int
	Executed        int
	Skipped         int
	Failed          int
	APICalls        int
	Pages           int
	CacheHits       int
	CacheMisses     int
	EarlyTerminated bool
	Cancelled       bool
	Incomplete      bool
}

// outcome is what one criterion contributed.
type outcome struct {
	apiCalls    int
	pages       int
	cacheHit    bool
	failed      bool
	interrupted bool
}

// Fetcher runs active criteria against the search backend in priority batches.
type Fetcher struct {
	searcher Searcher
	cache    Cache
	cfg      Config
	logger   *zap.Logger
}

// New creates a Fetcher. cache may be nil.
func New(searcher Searcher, cache Cache, cfg Config, log *zap.Logger) *Fetcher {
	def := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = def.PageTimeout
	}
	if cfg.PageCaps == nil {
		cfg.PageCaps = def.PageCaps
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{searcher: searcher, cache: cache, cfg: cfg, logger: log}
}

// PageCap returns the page limit for priority p.
func (f *Fetcher) PageCap(p criterion.Priority) int {
	return f.cfg.PageCaps[p]
}

// FetchAll fetches every active criterion and delivers hits to sink.
// Filters and zero-cap (P5) criteria are never sent to the backend.
// Only search criteria held back by their priority count as suppressed.
func (f *Fetcher) FetchAll(ctx context.Context, criteria []criterion.Criterion, sink Sink) Stats {
	var active []criterion.Criterion
	st := Stats{}
	for _, c := range criteria {
		switch {
		case c.Role() != criterion.RoleSearch:
		case !c.IsActive() || f.PageCap(c.Priority()) <= 0:
			st.Suppressed++
		default:
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Priority() < active[j].Priority() })
	st.Active = len(active)

	var mu sync.Mutex
	for start := 0; start < len(active); start += f.cfg.Concurrency {
		remaining := len(active) - start
		if ctx.Err() != nil {
			st.Skipped += remaining
			st.Cancelled = true
			break
		}
		if n := sink.HighConfidenceCount(); f.cfg.EarlyTerminationThreshold > 0 && n >= f.cfg.EarlyTerminationThreshold {
			f.logger.Info("Early termination",
				zap.Int("confident_records", n),
				zap.Int("skipped_criteria", remaining))
			st.Skipped += remaining
			st.EarlyTerminated = true
			break
		}

		end := min(start+f.cfg.Concurrency, len(active))
		g := new(errgroup.Group)
		g.SetLimit(f.cfg.Concurrency)
		for _, c := range active[start:end] {
			g.Go(func() error {
				out := f.fetchCriterion(ctx, c, sink)
				mu.Lock()
				st.add(out)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	if ctx.Err() != nil {
		st.Cancelled = true
	}
	if st.Cancelled {
		st.Incomplete = true
	}
	return st
}

func (s *Stats) add(o outcome) {
	s.Executed++
	s.APICalls += o.apiCalls
	s.Pages += o.pages
	if o.cacheHit {
		s.CacheHits++
	} else {
		s.CacheMisses++
	}
	if o.failed {
		s.Failed++
	}
	if o.interrupted {
		s.Incomplete = true
	}
}

func (f *Fetcher) fetchCriterion(ctx context.Context, c criterion.Criterion, sink Sink) outcome {
	limit := f.PageCap(c.Priority())
	log := logger.FromContextOr(ctx, f.logger).With(
		zap.String("criterion", c.ID()),
		zap.String("type", string(c.Type())),
		zap.Stringer("priority", c.Priority()))

	if f.cache != nil {
		if set, ok := f.cache.Get(ctx, c.Type(), c.NormalizedValue()); ok && set.Covers(limit) {
			pages := set.Pages
			if len(pages) > limit {
				pages = pages[:limit]
			}
			for _, p := range pages {
				deliver(sink, c, p)
			}
			log.Debug("Served from cache", zap.Int("pages", len(pages)))
			return outcome{cacheHit: true, pages: len(pages)}
		}
	}

	var (
		out       outcome
		collected []page.Page
		cursor    string
		exhausted bool
	)
	for len(collected) < limit {
		if ctx.Err() != nil {
			out.interrupted = true
			break
		}

		pctx, cancel := context.WithTimeout(ctx, f.cfg.PageTimeout)
		p, err := f.searcher.Search(pctx, page.Request{
			Term:   c.NormalizedValue(),
			Limit:  f.cfg.PageSize,
			Cursor: cursor,
		})
		cancel()
		out.apiCalls++

		if err != nil {
			if ctx.Err() != nil {
				out.interrupted = true
			} else {
				out.failed = true
				log.Warn("Page fetch failed",
					zap.Int("page", len(collected)+1),
					zap.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
					zap.Error(err))
			}
			break
		}

		collected = append(collected, p)
		deliver(sink, c, p)

		if !p.HasMore {
			exhausted = true
			break
		}
		if p.Inconsistent() {
			log.Warn("Stopping pagination", zap.Int("page", len(collected)), zap.Error(domain.ErrInconsistentPage))
			exhausted = true
			break
		}
		cursor = p.NextCursor
	}
	out.pages = len(collected)

	if f.cache != nil && !out.failed && !out.interrupted {
		f.cache.Put(ctx, c.Type(), c.NormalizedValue(), page.Set{Pages: collected, Exhausted: exhausted})
	}
	return out
}

func deliver(sink Sink, c criterion.Criterion, p page.Page) {
	for _, h := range p.Hits {
		sink.Add(c, h)
	}
}
