// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"wealthwise/internal/insight"
	"wealthwise/internal/log"
	"wealthwise/internal/metrics"
	"wealthwise/internal/middleware/ratelimit"
	"wealthwise/internal/middleware/security"
	"wealthwise/internal/middleware/trace"
	"wealthwise/internal/services"
)

const readyTimeout = 2 * time.Second

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the server. Ready and Advisor are optional.
type Deps struct {
	Tracker      *services.Tracker
	Advisor      *insight.Advisor
	Ready        Pinger
	RateLimitRPM int
	// ExposeMetrics mounts the Prometheus handler at /metrics.
	ExposeMetrics bool
	Logger        *log.Logger
	Now           func() time.Time
}

type Server struct {
	http.Server
	tracker  *services.Tracker
	advisor  *insight.Advisor
	ready    Pinger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	logger   *log.Logger
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	advisor := deps.Advisor
	if advisor == nil {
		advisor = insight.NewAdvisor(insight.Unavailable{}, insight.WithLogger(logger))
	}
	limitConfig := ratelimit.DefaultConfig()
	if deps.RateLimitRPM > 0 {
		limitConfig.RequestsPerMinute = deps.RateLimitRPM
	}

	s := &Server{
		tracker:  deps.Tracker,
		advisor:  advisor,
		ready:    deps.Ready,
		limiter:  ratelimit.NewLimiter(limitConfig, logger),
		detector: security.NewDetector(logger),
		logger:   logger.WithComponent(log.ComponentHTTP),
		now:      now,
	}

	api := http.NewServeMux()
	s.routes(api)
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, writeRateLimited)(api)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if deps.ExposeMetrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	mux.Handle("/api/", limited)

	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(s.detector.ExtractClientIP, logger).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions", s.handleClearTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/savings", s.handleSavings)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /api/budgets/{category}", s.handleSetBudget)
	mux.HandleFunc("GET /api/budgets/warnings", s.handleWarnings)

	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("PUT /api/categories/{category}/icon", s.handleSetIcon)

	mux.HandleFunc("GET /api/insights", s.handleInsights)
	mux.HandleFunc("GET /api/export.csv", s.handleExportCSV)
}

// Shutdown gracefully shuts down the server and the limiter's sweep.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				log.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

func writeRateLimited(w http.ResponseWriter, _ *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
}
