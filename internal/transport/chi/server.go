// Package chi exposes the investigation engine over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/investigo/internal/domain"
	"github.com/kailas-cloud/investigo/internal/domain/investigation"
	"github.com/kailas-cloud/investigo/internal/logger"
	healthuc "github.com/kailas-cloud/investigo/internal/usecase/health"
	"github.com/kailas-cloud/investigo/internal/version"
)

const maxRequestBytes = 64 << 10

// Error codes returned outside of a search response.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal_error"
)

// ErrorResponse is the body of a request rejected before a search runs.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query string `json:"query"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// Searcher runs one investigation.
type Searcher interface {
	Search(ctx context.Context, query string) investigation.Response
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorStatus maps a failed search to an HTTP status. Returns false if it does not apply.
type errorStatus func(err error) (int, bool)

// Server serves the search, health and metrics routes.
type Server struct {
	search        Searcher
	health        HealthChecker
	logger        *zap.Logger
	errorStatuses []errorStatus
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		search: search,
		health: health,
		logger: log,
		errorStatuses: []errorStatus{
			sentinelStatus(domain.ErrInvalidQuery, http.StatusBadRequest),
			sentinelStatus(domain.ErrBackendUnavailable, http.StatusBadGateway),
		},
	}
}

// Routes registers the API routes on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.SearchPost)
	r.Get("/search", s.SearchGet)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchPost handles POST /search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.runSearch(w, r, req.Query)
}

// SearchGet handles GET /search?q=.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, r.URL.Query().Get("q"))
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, query string) {
	resp := s.search.Search(r.Context(), query)
	if err := resp.Err(); err != nil {
		logger.FromContextOr(r.Context(), s.logger).Warn("search error",
			zap.String("run_id", resp.RunID.String()),
			zap.Error(err))
		writeJSON(w, s.statusFor(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health. Only an unreachable search backend is 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.String(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelStatus returns an errorStatus that matches a single sentinel error.
func sentinelStatus(sentinel error, status int) errorStatus {
	return func(err error) (int, bool) {
		if !errors.Is(err, sentinel) {
			return 0, false
		}
		return status, true
	}
}

func (s *Server) statusFor(err error) int {
	for _, h := range s.errorStatuses {
		if status, ok := h(err); ok {
			return status
		}
	}
	s.logger.Error("unmapped search error", zap.Error(err))
	return http.StatusInternalServerError
}
