package insight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kailas-cloud/investigo/internal/domain"
)

// BreakerConfig controls when the analysis backend is taken out of rotation.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval resets the closed-state counters. Zero never resets.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// MinRequests before FailureRatio is evaluated.
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// BreakerAnalyzer wraps an Analyzer with a circuit breaker.
type BreakerAnalyzer struct {
	inner  Analyzer
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreakerAnalyzer wraps inner with a breaker named name.
func NewBreakerAnalyzer(inner Analyzer, name string, cfg BreakerConfig, logger *zap.Logger) *BreakerAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests || counts.Requests == 0 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Analysis breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &BreakerAnalyzer{inner: inner, cb: gobreaker.NewCircuitBreaker(st), logger: logger}
}

// Analyze implements Analyzer. An open breaker fails fast with domain.ErrAnalysisUnavailable.
func (b *BreakerAnalyzer) Analyze(ctx context.Context, system, payload string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Analyze(ctx, system, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", domain.ErrAnalysisUnavailable, err)
		}
		return "", err
	}
	return out.(string), nil
}

// State returns the breaker state name.
func (b *BreakerAnalyzer) State() string {
	return b.cb.State().String()
}
