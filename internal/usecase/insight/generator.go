package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	domgraph "github.com/kailas-cloud/investigo/internal/domain/graph"
	dominsight "github.com/kailas-cloud/investigo/internal/domain/insight"
	"github.com/kailas-cloud/investigo/internal/domain/record"
)

const systemPrompt = `You are an analyst reviewing records found by an investigation search.
Reply with one JSON object and nothing else, using these keys:
"summary" (string), "key_findings", "red_flags", "recommendations", "connections" (arrays of strings).
Only state what the records support.`

// Config tunes the generator.
type Config struct {
	Timeout    time.Duration
	SampleSize int
	TopNodes   int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second, SampleSize: 10, TopNodes: 10}
}

// Generator produces insights, preferring the analysis backend.
type Generator struct {
	analyzer Analyzer
	cfg      Config
	logger   *zap.Logger
}

// NewGenerator creates a Generator. analyzer can be nil.
func NewGenerator(analyzer Analyzer, cfg Config, logger *zap.Logger) *Generator {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}
	if cfg.TopNodes <= 0 {
		cfg.TopNodes = def.TopNodes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{analyzer: analyzer, cfg: cfg, logger: logger}
}

// Generate returns insights for a finished search. It always succeeds:
// any analysis failure falls back to RuleBased.
func (g *Generator) Generate(ctx context.Context, in Input) dominsight.Insights {
	if g.analyzer != nil && len(in.Results) > 0 {
		ins, err := g.analyze(ctx, in)
		if err == nil {
			return ins
		}
		g.logger.Warn("Analysis failed, using rule-based insights", zap.Error(err))
	}
	return RuleBased(in)
}

func (g *Generator) analyze(ctx context.Context, in Input) (dominsight.Insights, error) {
	body, err := json.Marshal(g.payload(in))
	if err != nil {
		return dominsight.Insights{}, fmt.Errorf("encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := g.analyzer.Analyze(ctx, systemPrompt, string(body))
	if err != nil {
		return dominsight.Insights{}, fmt.Errorf("analyze: %w", err)
	}

	parsed, err := parseStructured(text)
	if err != nil {
		g.logger.Debug("Unusable analysis reply", zap.Int("reply_len", len(text)))
		return dominsight.Insights{}, err
	}
	parsed.Source = dominsight.SourceAnalysis
	parsed.Normalize()

	g.logger.Debug("Analysis completed", zap.Duration("duration", time.Since(start)))
	return *parsed, nil
}

type payloadResult struct {
	Table           string        `json:"table"`
	Record          record.Record `json:"record"`
	MatchedCriteria []string      `json:"matched_criteria"`
	Score           float64       `json:"score"`
	Exact           bool          `json:"exact"`
}

type payloadEntity struct {
	Type        criterion.Type `json:"type"`
	Value       string         `json:"value"`
	Occurrences int            `json:"occurrences"`
	Tables      []string       `json:"tables"`
	Connections int            `json:"connections"`
}

type analysisPayload struct {
	Query        string                `json:"query"`
	Criteria     []criterion.Criterion `json:"criteria"`
	TotalResults int                   `json:"total_results"`
	Results      []payloadResult       `json:"results"`
	Entities     []payloadEntity       `json:"entities"`
	Clusters     []domgraph.Cluster    `json:"clusters"`
}

// payload bounds what is sent to the backend: top results and entities only.
func (g *Generator) payload(in Input) analysisPayload {
	p := analysisPayload{
		Query:        in.Query,
		Criteria:     in.Criteria,
		TotalResults: len(in.Results),
		Results:      []payloadResult{},
		Entities:     []payloadEntity{},
		Clusters:     in.Graph.Clusters,
	}
	for i, r := range in.Results {
		if i == g.cfg.SampleSize {
			break
		}
		p.Results = append(p.Results, payloadResult{
			Table:           r.Table,
			Record:          r.Record,
			MatchedCriteria: r.MatchedCriteria,
			Score:           r.MatchScore,
			Exact:           r.IsExactMatch,
		})
	}

	nodes := append([]domgraph.Node(nil), in.Graph.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].OccurrenceCount > nodes[j].OccurrenceCount })
	for i, n := range nodes {
		if i == g.cfg.TopNodes {
			break
		}
		p.Entities = append(p.Entities, payloadEntity{
			Type:        n.Type,
			Value:       n.DisplayValue,
			Occurrences: n.OccurrenceCount,
			Tables:      n.SourceTables,
			Connections: len(n.Connections),
		})
	}
	return p
}
