package investigate

import (
	"context"

	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	dominsight "github.com/kailas-cloud/investigo/internal/domain/insight"
	"github.com/kailas-cloud/investigo/internal/domain/investigation"
	"github.com/kailas-cloud/investigo/internal/usecase/fetch"
	"github.com/kailas-cloud/investigo/internal/usecase/insight"
)

// Fetcher runs the active criteria against the search backend.
type Fetcher interface {
	FetchAll(ctx context.Context, criteria []criterion.Criterion, sink fetch.Sink) fetch.Stats
}

// InsightGenerator summarizes a finished search.
type InsightGenerator interface {
	Generate(ctx context.Context, in insight.Input) dominsight.Insights
}

// Observer receives every finished search, successful or not.
type Observer interface {
	ObserveSearch(resp investigation.Response)
}
