package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockAnalysisChecker struct {
	err error
}

func (m *mockAnalysisChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{}, &mockAnalysisChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, c := range []string{ComponentBackend, ComponentCache, ComponentAnalysis} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
}

func TestCheck_BackendErrorIsUnhealthy(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}, &mockPinger{}, &mockAnalysisChecker{})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[ComponentBackend] != CheckError {
		t.Errorf("expected backend %q, got %q", CheckError, r.Checks[ComponentBackend])
	}
	if r.Checks[ComponentCache] != CheckOK {
		t.Errorf("expected cache %q, got %q", CheckOK, r.Checks[ComponentCache])
	}
}

func TestCheck_OptionalFailuresDegrade(t *testing.T) {
	tests := []struct {
		name     string
		cache    error
		analysis error
		failing  string
	}{
		{"cache down", errors.New("redis down"), nil, ComponentCache},
		{"analysis down", nil, errors.New("timeout"), ComponentAnalysis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockPinger{}, &mockPinger{err: tt.cache}, &mockAnalysisChecker{err: tt.analysis})
			r := svc.Check(context.Background())

			if r.Status != Degraded {
				t.Errorf("expected %q, got %q", Degraded, r.Status)
			}
			if r.Checks[tt.failing] != CheckError {
				t.Errorf("expected %s error", tt.failing)
			}
			if r.Checks[ComponentBackend] != CheckOK {
				t.Error("expected backend ok")
			}
		})
	}
}

func TestCheck_AllFail(t *testing.T) {
	svc := New(
		&mockPinger{err: errors.New("api down")},
		&mockPinger{err: errors.New("redis down")},
		&mockAnalysisChecker{err: errors.New("llm down")},
	)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if len(r.Checks) != 3 {
		t.Errorf("checks = %v", r.Checks)
	}
}

func TestCheck_OptionalComponentsAbsent(t *testing.T) {
	svc := New(&mockPinger{}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[ComponentCache]; ok {
		t.Error("cache check should be absent when cache is nil")
	}
	if _, ok := r.Checks[ComponentAnalysis]; ok {
		t.Error("analysis check should be absent when analysis is nil")
	}
}
