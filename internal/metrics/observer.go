package metrics

import (
	"time"

	"github.com/kailas-cloud/investigo/internal/domain/investigation"
)

// Observer turns finished searches into engine metrics.
type Observer struct{}

// ObserveSearch records one completed search.
func (Observer) ObserveSearch(resp investigation.Response) {
	md := resp.Metadata

	status := "ok"
	switch {
	case !resp.Success:
		status = "failed"
	case md.Incomplete:
		status = "incomplete"
	}
	SearchesTotal.WithLabelValues(status).Inc()
	SearchDuration.Observe((time.Duration(md.DurationMs) * time.Millisecond).Seconds())

	CriteriaTotal.WithLabelValues("executed").Add(float64(md.SearchesExecuted))
	CriteriaTotal.WithLabelValues("skipped").Add(float64(md.SearchesSkipped))
	CriteriaTotal.WithLabelValues("failed").Add(float64(md.SearchesFailed))
	CriteriaTotal.WithLabelValues("suppressed").Add(float64(md.SuppressedCriteria))
	if md.EarlyTerminated {
		EarlyTerminationsTotal.Inc()
	}
	if resp.Success {
		InsightsTotal.WithLabelValues(string(resp.Insights.Source)).Inc()
	}
}
