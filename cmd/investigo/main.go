package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/investigo/internal/config"
	logpkg "github.com/kailas-cloud/investigo/internal/logger"
	"github.com/kailas-cloud/investigo/internal/version"
)

var (
	cfg    config.Config
	logger *zap.Logger

	flagEnv      string
	flagConfig   string
	flagBaseURL  string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:     "investigo",
	Short:   "Investigation search over a multi-table record search API",
	Long:    "Extracts search criteria from a free-text query, fetches and cross-references matching records, and builds an entity graph with insights.",
	Version: version.String(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		env := flagEnv
		if env == "" {
			env = config.GetEnv()
		}

		var err error
		if flagConfig != "" {
			cfg, err = config.LoadFile(flagConfig)
		} else {
			cfg, err = config.Load(env)
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if flagBaseURL != "" {
			cfg.SearchAPI.BaseURL = flagBaseURL
		}

		level := cfg.Logging.Level
		if flagLogLevel != "" {
			level = flagLogLevel
		}
		logger, err = logpkg.New(logpkg.Options{
			Env:   env,
			Level: level,
			Fields: []zap.Field{
				zap.String("service", "investigo"),
				zap.String("version", version.Version),
			},
		})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "", "environment: local, dev, docker, prod (default $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "explicit config file (overrides --env lookup)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "api-url", "", "override search_api.base_url")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override logging.level")
	rootCmd.AddCommand(serveCmd, searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
