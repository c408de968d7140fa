// Package api exposes the analysis pipeline over JSON HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/dhruvsaxena/splitsight/internal/auth"
	"github.com/dhruvsaxena/splitsight/internal/config"
	"github.com/dhruvsaxena/splitsight/internal/middleware"
	"github.com/dhruvsaxena/splitsight/internal/service"
)

// API wires HTTP routes to the analysis service.
type API struct {
	router   *mux.Router
	cfg      *config.Config
	analysis *service.AnalysisService
	jwt      *auth.JWTManager
}

// New builds the router. All /api/v1 routes except the session exchange
// require a valid session token.
func New(cfg *config.Config, analysis *service.AnalysisService, jwt *auth.JWTManager) *API {
	a := &API{
		router:   mux.NewRouter(),
		cfg:      cfg,
		analysis: analysis,
		jwt:      jwt,
	}
	a.setupRoutes()
	return a
}

func (a *API) setupRoutes() {
	a.router.Use(middleware.Logging)

	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	a.router.HandleFunc("/api/v1/session", a.handleSession).Methods("POST")

	protected := a.router.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.RequireAuth(a.jwt))

	protected.HandleFunc("/ingest/pull", a.handlePull).Methods("POST")
	protected.HandleFunc("/ingest/upload", a.handleUpload).Methods("POST")
	protected.HandleFunc("/insights/latest", a.handleLatestInsights).Methods("GET")
	protected.HandleFunc("/runs", a.handleListRuns).Methods("GET")
	protected.HandleFunc("/runs/{id}", a.handleGetRun).Methods("GET")
}

// Handler returns the route tree without the CORS wrapper, for embedding
// and tests.
func (a *API) Handler() http.Handler {
	return a.router
}

// Start blocks serving HTTP on the configured bind address.
func (a *API) Start() error {
	corsOptions := cors.Options{
		AllowedOrigins: a.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}
	handler := cors.New(corsOptions).Handler(a.router)

	slog.Info("server listening", "address", a.cfg.Bind)
	return http.ListenAndServe(a.cfg.Bind, handler)
}
