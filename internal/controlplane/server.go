// Package controlplane implements the token-guarded HTTP API for
// reloading the chaos plan, switching operating mode, and querying
// scorecard/health state while the proxy is running.
package controlplane

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/agentchaos/chaosproxy/internal/events"
	"github.com/agentchaos/chaosproxy/internal/plan"
	"github.com/agentchaos/chaosproxy/internal/runmode"
)

// Config configures a Server at construction time.
type Config struct {
	ChaosToken string
	JWTStrict  bool
	JWTSecret  string
	Strict     plan.StrictMode
}

// Server is the control plane's HTTP API. It never executes chaos
// strategies itself — it holds references to the plan store and the
// running pipeline's mode controller and delegates to them.
type Server struct {
	cfg       Config
	logger    *zap.SugaredLogger
	router    chi.Router
	startedAt time.Time

	planStore *plan.Store
	mode      runmode.ModeController
	scorecard *events.Scorecard
	dashboard *events.DashboardHub
	tracer    *events.FlowTracer
	audit     *AuditLog
}

// NewServer wires a control plane Server. dashboard and audit may be nil
// if the dashboard or audit log features are disabled; tracer may be nil
// if tracing was never configured.
func NewServer(cfg Config, logger *zap.SugaredLogger, planStore *plan.Store, mode runmode.ModeController, scorecard *events.Scorecard, dashboard *events.DashboardHub, tracer *events.FlowTracer, audit *AuditLog) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		startedAt: time.Now(),
		planStore: planStore,
		mode:      mode,
		scorecard: scorecard,
		dashboard: dashboard,
		tracer:    tracer,
		audit:     audit,
	}
	s.router = chi.NewRouter()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggerMiddleware)

	// Unauthenticated: liveness must work even with a wrong/missing token.
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))
		r.Use(s.authMiddleware)

		r.Post("/plan", s.handlePostPlan)
		r.Post("/mode", s.handlePostMode)
		r.Get("/scorecard", s.handleGetScorecard)
	})

	// Prometheus exposition is deliberately unauthenticated, matching the
	// convention scrapers expect.
	if s.scorecard != nil {
		s.router.Handle("/metrics", s.scorecard.MetricsHandler())
	}

	if s.dashboard != nil {
		s.router.Handle("/dashboard", s.dashboard)
	}
}
