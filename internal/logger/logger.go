package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MaxLoggedQuery bounds how much of a query goes into a log entry.
const MaxLoggedQuery = 200

// Options configure New.
type Options struct {
	// Env selects the encoder: prod writes JSON, local/dev/docker write console output.
	Env string
	// Level overrides the environment's default level when set.
	Level string
	// Fields are attached to every entry.
	Fields []zap.Field
}

// New builds the process logger. Errors are logged with stack traces.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch opts.Env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", opts.Env)
	}

	if opts.Level != "" {
		level, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel), zap.Fields(opts.Fields...))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Query returns q as a "query" field, cut to MaxLoggedQuery runes.
func Query(q string) zap.Field {
	r := []rune(q)
	if len(r) <= MaxLoggedQuery {
		return zap.String("query", q)
	}
	return zap.String("query", string(r[:MaxLoggedQuery])+"…")
}
