// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	service "github.com/okian/reviewdesk/internal/app"
	"github.com/okian/reviewdesk/internal/domain/leaderboard"
	"github.com/okian/reviewdesk/pkg/logger"
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	GetAssignment(ctx context.Context, holder string, lookahead int) (service.Assignment, error)
	// RecordVerdictOnce records a verdict, reporting a repeated request id
	// as service.ErrDuplicateRequest.
	RecordVerdictOnce(ctx context.Context, holder, requestID string, pos int, liked bool) (service.Verdict, error)
	RegisterUsername(ctx context.Context, holder, raw string) (leaderboard.Entry, error)
	Username(holder string) (string, bool)
	ExpireSessions(ctx context.Context) int
	UserStats(username string) (leaderboard.Entry, bool)

	Progress() service.Progress
	Leaderboard() []leaderboard.Row
	Export(category string) (service.Export, error)

	Reset(ctx context.Context)
	AdminStats() service.AdminStats
	Assignments() []service.AssignmentView
	HeldBy(holder string) []int
	CatalogSize() int
}

// Server wires HTTP routes for the review API.
type Server struct {
	cfg           settings
	healthHandler *HealthHandler
	reviewHandler *reviewHandler
	reportHandler *reportHandler
	adminHandler  *adminHandler
	limiter       *RateLimiter
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Named("http")
	}
	return &Server{
		cfg:           cfg,
		healthHandler: NewHealthHandler(),
		reviewHandler: &reviewHandler{deps: deps, cfg: cfg},
		reportHandler: &reportHandler{deps: deps, cfg: cfg},
		adminHandler:  &adminHandler{deps: deps, cfg: cfg},
		limiter:       NewRateLimiter(cfg.rateLimitRPS, cfg.rateLimitBurst),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())

	mux.HandleFunc("GET /api/current", MetricsMiddleware(s.reviewHandler.HandleCurrent, "current"))
	mux.HandleFunc("GET /api/check-username", MetricsMiddleware(s.reviewHandler.HandleCheckUsername, "check_username"))
	mux.HandleFunc("POST /api/set-username", MetricsMiddleware(s.reviewHandler.HandleSetUsername, "set_username"))
	mux.HandleFunc("POST /api/mark", MetricsMiddleware(s.reviewHandler.HandleMark, "mark"))

	mux.HandleFunc("GET /api/progress", MetricsMiddleware(s.reportHandler.HandleProgress, "progress"))
	mux.HandleFunc("GET /api/leaderboard", MetricsMiddleware(s.reportHandler.HandleLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /api/export/{category}", MetricsMiddleware(s.reportHandler.HandleExport, "export"))

	mux.HandleFunc("POST /api/admin/reset", MetricsMiddleware(s.adminHandler.HandleReset, "admin_reset"))
	mux.HandleFunc("GET /api/admin/stats", MetricsMiddleware(s.adminHandler.HandleStats, "admin_stats"))
	mux.HandleFunc("GET /api/debug/assignments", MetricsMiddleware(s.adminHandler.HandleAssignments, "debug_assignments"))
	mux.HandleFunc("GET /api/test", MetricsMiddleware(s.adminHandler.HandleTest, "test"))

	s.cfg.logger.Debug(ctx, "api routes registered")
}

// Handler wraps next with the request middleware chain. The outermost
// middleware runs first.
func (s *Server) Handler(next http.Handler) http.Handler {
	return Chain(
		Recovery(s.cfg.logger),
		RequestID,
		AccessLog(s.cfg.logger),
		CORS(s.cfg.allowedOrigins),
		s.limiter.Limit,
		Holder(s.cfg.holderCookie, s.cfg.cookieSecure),
	)(next)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeMessage reports an error with a user-facing message instead of the
// underlying error text.
func writeMessage(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func (c settings) now() time.Time { return c.clock() }
