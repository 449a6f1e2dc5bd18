package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/investigo/internal/metrics"
	chiTransport "github.com/kailas-cloud/investigo/internal/transport/chi"
	"github.com/kailas-cloud/investigo/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP search API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger.Info("Starting investigo API server",
			zap.String("version", version.Version),
			zap.String("commit", version.Commit),
			zap.Int("http_port", cfg.HTTP.Port),
			zap.String("search_api", cfg.SearchAPI.BaseURL),
			zap.Bool("redis_cache", cfg.Cache.Redis.Enabled),
			zap.String("analysis_provider", cfg.Analysis.Provider),
		)

		eng, err := buildEngine(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer eng.close()

		metrics.RegisterHTTPMetrics()
		server := chiTransport.NewServer(eng.search, eng.health, logger)
		handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

		addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
		srv := &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
			WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
		}

		// Graceful shutdown
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(quit)

		serveErr := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()

		select {
		case <-quit:
			logger.Info("Received shutdown signal")
		case err := <-serveErr:
			return fmt.Errorf("http server: %w", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}

		logger.Info("Server stopped gracefully")
		return nil
	},
}
