package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/investigo/internal/config"
	dbRedis "github.com/kailas-cloud/investigo/internal/db/redis"
	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	"github.com/kailas-cloud/investigo/internal/domain/page"
	"github.com/kailas-cloud/investigo/internal/metrics"
	"github.com/kailas-cloud/investigo/internal/repository/resultcache"
	anthropicAnalyzer "github.com/kailas-cloud/investigo/internal/transport/anthropic"
	openaiAnalyzer "github.com/kailas-cloud/investigo/internal/transport/openai"
	"github.com/kailas-cloud/investigo/internal/transport/searchapi"
	"github.com/kailas-cloud/investigo/internal/usecase/fetch"
	healthuc "github.com/kailas-cloud/investigo/internal/usecase/health"
	"github.com/kailas-cloud/investigo/internal/usecase/insight"
	"github.com/kailas-cloud/investigo/internal/usecase/investigate"
)

// engine is the assembled composition root shared by serve and search.
type engine struct {
	search *investigate.Service
	health *healthuc.Service
	close  func()
}

func buildEngine(ctx context.Context, cfg config.Config, logger *zap.Logger) (*engine, error) {
	// Register metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	client, err := searchapi.New(searchapi.Config{
		BaseURL:        cfg.SearchAPI.BaseURL,
		Token:          cfg.SearchAPI.Token,
		Timeout:        time.Duration(cfg.SearchAPI.TimeoutSec) * time.Second,
		RateLimit:      cfg.SearchAPI.RateLimit,
		Burst:          cfg.SearchAPI.Burst,
		MaxRetries:     uint64(cfg.SearchAPI.MaxRetries),
		InitialBackoff: time.Duration(cfg.SearchAPI.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:     time.Duration(cfg.SearchAPI.MaxBackoffMs) * time.Millisecond,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("search api client: %w", err)
	}

	e := &engine{close: func() {}}

	// Pass nil interfaces (not typed nil pointers) for absent optional parts.
	var cachePinger healthuc.CachePinger
	var remote *dbRedis.Store
	if cfg.Cache.Redis.Enabled {
		remote, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Cache.Redis.Addrs,
			Username:   cfg.Cache.Redis.Username,
			Password:   cfg.Cache.Redis.Password,
			DB:         cfg.Cache.Redis.DB,
			ClientName: "investigo",
		})
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		readiness := time.Duration(cfg.Cache.Redis.ReadinessTimeout) * time.Second
		if err := remote.WaitForReady(ctx, readiness); err != nil {
			remote.Close()
			return nil, fmt.Errorf("redis cache not ready: %w", err)
		}
		logger.Info("Connected to redis cache", zap.Strings("addrs", cfg.Cache.Redis.Addrs))
		cachePinger = remote
		e.close = remote.Close
	}

	lru, err := resultcache.NewLRU[page.Set](cfg.Cache.Capacity, nil)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("result cache: %w", err)
	}
	var cache *resultcache.PageCache
	if remote != nil {
		cache = resultcache.NewPageCache(lru, remote, cacheTTLs(cfg.Cache), metrics.ResultCacheTotal, logger)
	} else {
		cache = resultcache.NewPageCache(lru, nil, cacheTTLs(cfg.Cache), metrics.ResultCacheTotal, logger)
	}

	fetcher := fetch.New(client, cache, fetchConfig(cfg.Engine), logger)

	analyzer, checker := buildAnalyzer(cfg.Analysis, logger)
	generator := insight.NewGenerator(analyzer, insight.Config{
		Timeout:    time.Duration(cfg.Analysis.TimeoutSec) * time.Second,
		SampleSize: cfg.Analysis.SampleSize,
		TopNodes:   cfg.Analysis.TopNodes,
	}, logger)

	e.search = investigate.New(fetcher, generator, metrics.Observer{},
		investigate.Options{StrictFilters: cfg.Engine.StrictFilters}, logger)
	e.health = healthuc.New(client, cachePinger, checker)
	return e, nil
}

// buildAnalyzer returns the breaker-wrapped analysis backend, or nils when
// insights are rule-based only.
func buildAnalyzer(cfg config.AnalysisConfig, logger *zap.Logger) (insight.Analyzer, healthuc.AnalysisChecker) {
	if !cfg.Enabled() {
		logger.Info("No analysis provider configured, using rule-based insights")
		return nil, nil
	}

	var base insight.Analyzer
	switch cfg.Provider {
	case "openai":
		base = openaiAnalyzer.NewAnalyzer(&openaiAnalyzer.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Provider:    cfg.Provider,
			Logger:      logger,
		})
	case "anthropic":
		base = anthropicAnalyzer.NewAnalyzer(anthropicAnalyzer.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: int64(cfg.MaxTokens),
			Logger:    logger,
		})
	}
	logger.Info("Analysis backend configured",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model))

	var checker healthuc.AnalysisChecker
	if hc, ok := base.(healthuc.AnalysisChecker); ok {
		checker = hc
	}

	b := cfg.Breaker
	wrapped := insight.NewBreakerAnalyzer(base, cfg.Provider, insight.BreakerConfig{
		MaxRequests:  b.MaxRequests,
		Interval:     time.Duration(b.IntervalSec) * time.Second,
		Timeout:      time.Duration(b.TimeoutSec) * time.Second,
		MinRequests:  b.MinRequests,
		FailureRatio: b.FailureRatio,
	}, logger)
	return wrapped, checker
}

func fetchConfig(ec config.EngineConfig) fetch.Config {
	fc := fetch.DefaultConfig()
	fc.Concurrency = ec.Concurrency
	fc.EarlyTerminationThreshold = ec.EarlyTerminationThreshold
	if ec.DisableEarlyTermination {
		fc.EarlyTerminationThreshold = 0
	}
	fc.PageSize = ec.PageSize
	fc.PageTimeout = time.Duration(ec.PageTimeoutSec) * time.Second
	for p := criterion.P1; p <= criterion.P5; p++ {
		if n, ok := ec.PageCaps[p.String()]; ok {
			fc.PageCaps[p] = n
		}
	}
	// suppressed criteria are never fetched whatever the config says
	fc.PageCaps[criterion.P5] = 0
	return fc
}

func cacheTTLs(cc config.CacheConfig) resultcache.TTLs {
	ttls := resultcache.DefaultTTLs()
	for k, minutes := range cc.TTLs {
		ttls[criterion.Type(k)] = time.Duration(minutes) * time.Minute
	}
	return ttls
}
