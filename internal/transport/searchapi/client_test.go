package searchapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/investigo/internal/domain"
	"github.com/kailas-cloud/investigo/internal/domain/page"
	"github.com/kailas-cloud/investigo/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

const samplePage = `{
	"results": {
		"customers": [
			{"name": "Subodh Roy", "phone": "9748247177", "city": "Delhi", "age": 41},
			{"name": "Subodh Das", "phone": "9000000001"}
		],
		"telecom": [
			{"mobile": "9748247177", "circle": "Kolkata"}
		]
	},
	"has_more": true,
	"next_cursor": "abc123"
}`

func newTestClient(t *testing.T, url string, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		BaseURL:        url,
		Token:          "secret",
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestSearch_ParsesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "9748247177" || q.Get("limit") != "50" || q.Get("cursor") != "c1" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api", nil)
	p, err := c.Search(context.Background(), page.Request{Term: "9748247177", Limit: 50, Cursor: "c1"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(p.Hits) != 3 {
		t.Fatalf("hits = %d, want 3", len(p.Hits))
	}
	if p.Hits[0].Table != "customers" || p.Hits[2].Table != "telecom" {
		t.Errorf("tables = %s, %s", p.Hits[0].Table, p.Hits[2].Table)
	}
	if keys := p.Hits[0].Record.Keys(); len(keys) != 4 || keys[0] != "name" || keys[3] != "age" {
		t.Errorf("field order = %v", keys)
	}
	if !p.HasMore || p.NextCursor != "abc123" {
		t.Errorf("has_more = %v, next_cursor = %q", p.HasMore, p.NextCursor)
	}
}

func TestSearch_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("authorization header sent without a token")
		}
		_, _ = w.Write([]byte(`{"results":{},"has_more":false,"next_cursor":null}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.Token = "" })
	p, err := c.Search(context.Background(), page.Request{Term: "x"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(p.Hits) != 0 || p.HasMore || p.NextCursor != "" {
		t.Errorf("page = %+v", p)
	}
}

func TestSearch_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte(samplePage))
		}
	}))
	defer srv.Close()

	p, err := newTestClient(t, srv.URL, nil).Search(context.Background(), page.Request{Term: "x"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if len(p.Hits) != 3 {
		t.Errorf("hits = %d", len(p.Hits))
	}
}

func TestSearch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, func(cfg *Config) { cfg.MaxRetries = 2 }).
		Search(context.Background(), page.Request{Term: "x"})

	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Errorf("err = %v, want status 502", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestSearch_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad token"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, nil).Search(context.Background(), page.Request{Term: "x"})

	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("err = %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized || se.Body != `{"error":"bad token"}` {
		t.Errorf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestSearch_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"array", `[1,2]`},
		{"results as list", `{"results":[{"a":1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL, nil).Search(context.Background(), page.Request{Term: "x"})
			if !errors.Is(err, domain.ErrBackendUnavailable) {
				t.Errorf("err = %v, want ErrBackendUnavailable", err)
			}
		})
	}
}

func TestSearch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newTestClient(t, srv.URL, nil).Search(ctx, page.Request{Term: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled request was retried")
	}
}

func TestSearch_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":{}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) {
		cfg.RateLimit = 20
		cfg.Burst = 1
	})
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.Search(context.Background(), page.Request{Term: "x"}); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	// burst 1 at 20 rps: the 2nd and 3rd calls wait ~50ms each
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("elapsed = %v, limiter not applied", elapsed)
	}
}

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"no health route", http.StatusNotFound, false},
		{"token rejected", http.StatusUnauthorized, true},
		{"server error", http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := newTestClient(t, srv.URL, nil).Ping(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Ping() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("expected error for empty base url")
	}
}
