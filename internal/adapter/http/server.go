package http

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/chat"
	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/session"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed static/index.html
var staticFS embed.FS

// ReportService builds safety reports.
type ReportService interface {
	BuildReport(ctx context.Context, query string) (domain.SafetyReport, error)
}

// TestNotifier sends synthetic alerts to saved contact points.
type TestNotifier interface {
	SendTest(ctx context.Context, pref domain.NotificationPreference, label string) domain.NotificationResult
}

// ChatRouter answers chat messages.
type ChatRouter interface {
	Route(ctx context.Context, message string) (chat.Reply, error)
}

// Dependencies holds the services needed by HTTP handlers.
type Dependencies struct {
	Reports  ReportService
	Notifier TestNotifier
	Chat     ChatRouter
	Sessions session.Store
	Ready    sharedobs.ReadinessChecker

	SessionTTL   time.Duration
	CookieSecure bool
}

// Server exposes the safety API, the landing page, and health, readiness,
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Dependencies
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, deps Dependencies, logger *slog.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	router.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	router.HandleFunc("/readyz", sharedobs.ReadinessHandler(deps.Ready)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	app := router.NewRoute().Subrouter()
	app.Use(s.withSession)
	app.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	app.HandleFunc("/check_safety", s.handleCheckSafety).Methods(http.MethodPost)
	app.HandleFunc("/enable_notifications", s.handleEnableNotifications).Methods(http.MethodPost)
	app.HandleFunc("/test_alert", s.handleTestAlert).Methods(http.MethodPost)
	app.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}
