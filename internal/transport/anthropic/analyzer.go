// Package anthropic is an analysis backend on the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/kailas-cloud/investigo/internal/domain"
	"github.com/kailas-cloud/investigo/internal/metrics"
)

const provider = "anthropic"

// Config holds the analysis provider settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
	// MaxRetries is passed to the SDK; the analysis breaker covers sustained failures.
	MaxRetries int
	Logger     *zap.Logger
}

// Analyzer implements insight.Analyzer with a single user message.
type Analyzer struct {
	client    sdk.Client
	model     string
	maxTokens int64
	logger    *zap.Logger
}

// NewAnalyzer creates an Anthropic analysis backend.
func NewAnalyzer(cfg Config) *Analyzer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		client:    sdk.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Analyze sends payload with the system prompt and returns the concatenated text blocks.
func (a *Analyzer) Analyze(ctx context.Context, system, payload string) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(payload))},
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues(provider, a.model, "error").Inc()
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("analysis API error %d: %w", apiErr.StatusCode, domain.ErrAnalysisUnavailable)
		}
		return "", fmt.Errorf("analysis request failed: %v: %w", err, domain.ErrAnalysisUnavailable)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		metrics.AnalysisRequestsTotal.WithLabelValues(provider, a.model, "empty").Inc()
		return "", fmt.Errorf("empty message: %w", domain.ErrMalformedAnalysis)
	}

	metrics.AnalysisRequestsTotal.WithLabelValues(provider, a.model, "success").Inc()
	metrics.AnalysisRequestDuration.WithLabelValues(provider, a.model).Observe(duration.Seconds())

	a.logger.Debug("Analysis request completed",
		zap.String("provider", provider),
		zap.String("model", a.model),
		zap.Duration("duration", duration),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
		zap.String("stop_reason", string(msg.StopReason)),
	)
	return text, nil
}
