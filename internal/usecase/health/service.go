package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the search backend is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as keys in Report.Checks.
const (
	ComponentBackend  = "search_api"
	ComponentCache    = "cache"
	ComponentAnalysis = "analysis"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	backend  BackendPinger
	cache    CachePinger
	analysis AnalysisChecker
}

// New creates a Service. cache and analysis can be nil.
func New(backend BackendPinger, cache CachePinger, analysis AnalysisChecker) *Service {
	return &Service{backend: backend, cache: cache, analysis: analysis}
}

// Check runs health checks against all components. Searches cannot run
// without the backend, so its failure is Unhealthy; anything else only degrades.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentBackend] = result(s.backend.Ping(ctx))
	if s.cache != nil {
		checks[ComponentCache] = result(s.cache.Ping(ctx))
	}
	if s.analysis != nil {
		checks[ComponentAnalysis] = result(s.analysis.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentBackend] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
