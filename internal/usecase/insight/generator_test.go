package insight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kailas-cloud/investigo/internal/domain"
	dominsight "github.com/kailas-cloud/investigo/internal/domain/insight"
	"github.com/kailas-cloud/investigo/internal/domain/result"
	"github.com/kailas-cloud/investigo/internal/usecase/graph"
)

// --- Mocks ---

type mockAnalyzer struct {
	mu       sync.Mutex
	reply    string
	err      error
	block    bool
	calls    int
	system   string
	payload  string
	deadline bool
}

func (m *mockAnalyzer) Analyze(ctx context.Context, system, payload string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.system = system
	m.payload = payload
	_, m.deadline = ctx.Deadline()
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.reply, m.err
}

func sampleInput(n int) Input {
	results := make([]result.CrossReferenced, n)
	for i := range results {
		results[i] = rec(fmt.Sprintf("r%d", i), "customers",
			"name", "Subodh", "phone", fmt.Sprintf("97482471%02d", i))
	}
	return Input{
		Query:    "find subodh",
		Criteria: testCriteria(),
		Results:  results,
		Graph:    graph.Build(results),
	}
}

// --- Tests ---

func TestGenerate_UsesAnalyzerReply(t *testing.T) {
	a := &mockAnalyzer{reply: `Sure. {"summary":"Subodh appears in 3 tables","red_flags":["shared phone"]}`}
	g := NewGenerator(a, Config{}, zap.NewNop())

	ins := g.Generate(context.Background(), sampleInput(3))

	if ins.Source != dominsight.SourceAnalysis {
		t.Fatalf("source = %q, want %q", ins.Source, dominsight.SourceAnalysis)
	}
	if ins.Summary != "Subodh appears in 3 tables" {
		t.Errorf("summary = %q", ins.Summary)
	}
	if ins.KeyFindings == nil || ins.Connections == nil {
		t.Error("nil list in analysis insights")
	}
	if !a.deadline {
		t.Error("analysis call has no deadline")
	}
	if a.system == "" {
		t.Error("system prompt not sent")
	}
}

func TestGenerate_PayloadIsBounded(t *testing.T) {
	a := &mockAnalyzer{reply: `{"summary":"ok"}`}
	g := NewGenerator(a, Config{SampleSize: 4, TopNodes: 3}, zap.NewNop())

	g.Generate(context.Background(), sampleInput(12))

	if !gjson.Valid(a.payload) {
		t.Fatalf("payload is not JSON: %s", a.payload)
	}
	p := gjson.Parse(a.payload)
	if n := len(p.Get("results").Array()); n != 4 {
		t.Errorf("results in payload = %d, want 4", n)
	}
	if n := len(p.Get("entities").Array()); n != 3 {
		t.Errorf("entities in payload = %d, want 3", n)
	}
	if got := p.Get("total_results").Int(); got != 12 {
		t.Errorf("total_results = %d, want 12", got)
	}
	if got := p.Get("criteria.0.type").String(); got != "phone" {
		t.Errorf("criteria.0.type = %q", got)
	}
	// the shared name is the most frequent entity
	if got := p.Get("entities.0.value").String(); got != "Subodh" {
		t.Errorf("entities.0.value = %q", got)
	}
}

func TestGenerate_FallsBack(t *testing.T) {
	tests := []struct {
		name     string
		analyzer *mockAnalyzer
	}{
		{"backend error", &mockAnalyzer{err: errors.New("connection refused")}},
		{"prose only", &mockAnalyzer{reply: "The records look related."}},
		{"empty summary", &mockAnalyzer{reply: `{"summary":""}`}},
		{"timeout", &mockAnalyzer{block: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.analyzer, Config{Timeout: 20 * time.Millisecond}, zap.NewNop())

			start := time.Now()
			ins := g.Generate(context.Background(), sampleInput(2))

			if ins.Source != dominsight.SourceRuleBased {
				t.Errorf("source = %q, want %q", ins.Source, dominsight.SourceRuleBased)
			}
			if ins.Summary == "" || ins.RedFlags == nil {
				t.Errorf("fallback insights malformed: %+v", ins)
			}
			if time.Since(start) > 2*time.Second {
				t.Error("fallback did not respect the timeout")
			}
		})
	}
}

func TestGenerate_NilAnalyzer(t *testing.T) {
	ins := NewGenerator(nil, Config{}, nil).Generate(context.Background(), sampleInput(1))
	if ins.Source != dominsight.SourceRuleBased {
		t.Errorf("source = %q", ins.Source)
	}
}

func TestGenerate_NoResultsSkipsAnalyzer(t *testing.T) {
	a := &mockAnalyzer{reply: `{"summary":"nothing"}`}
	ins := NewGenerator(a, Config{}, zap.NewNop()).Generate(context.Background(), Input{})
	if a.calls != 0 {
		t.Errorf("analyzer called %d times for an empty result set", a.calls)
	}
	if ins.Source != dominsight.SourceRuleBased {
		t.Errorf("source = %q", ins.Source)
	}
}

func TestBreakerAnalyzer_OpensAfterFailures(t *testing.T) {
	inner := &mockAnalyzer{err: errors.New("502 bad gateway")}
	b := NewBreakerAnalyzer(inner, "test", BreakerConfig{
		MaxRequests:  1,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	}, zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := b.Analyze(context.Background(), "s", "p"); err == nil {
			t.Fatal("expected inner error")
		}
	}
	if b.State() != "open" {
		t.Fatalf("state = %q, want open", b.State())
	}

	_, err := b.Analyze(context.Background(), "s", "p")
	if !errors.Is(err, domain.ErrAnalysisUnavailable) {
		t.Errorf("err = %v, want ErrAnalysisUnavailable", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
}

func TestBreakerAnalyzer_PassesThrough(t *testing.T) {
	inner := &mockAnalyzer{reply: "text"}
	b := NewBreakerAnalyzer(inner, "test", DefaultBreakerConfig(), nil)

	got, err := b.Analyze(context.Background(), "s", "p")
	if err != nil || got != "text" {
		t.Errorf("Analyze() = %q, %v", got, err)
	}
	if b.State() != "closed" {
		t.Errorf("state = %q", b.State())
	}
}

func TestGenerate_OpenBreakerFallsBack(t *testing.T) {
	inner := &mockAnalyzer{err: errors.New("boom")}
	b := NewBreakerAnalyzer(inner, "test", BreakerConfig{Timeout: time.Minute, MinRequests: 1, FailureRatio: 1}, zap.NewNop())
	g := NewGenerator(b, Config{}, zap.NewNop())

	for i := 0; i < 3; i++ {
		if ins := g.Generate(context.Background(), sampleInput(1)); ins.Source != dominsight.SourceRuleBased {
			t.Fatalf("run %d: source = %q", i, ins.Source)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 once the breaker opened", inner.calls)
	}
}
