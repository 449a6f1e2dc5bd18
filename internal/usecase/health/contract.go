package health

import "context"

// BackendPinger checks that the record search API answers.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// CachePinger checks the shared cache tier.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// AnalysisChecker checks analysis backend availability.
type AnalysisChecker interface {
	HealthCheck(ctx context.Context) error
}
