// Package rest wires the HTTP surface: the GraphQL endpoint, the AI
// insight endpoints and the operational probes.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"learninglog-backend/infrastructure/observability"
	"learninglog-backend/infrastructure/persistence/sqlite"
	"learninglog-backend/interfaces/http/rest/handlers"
	"learninglog-backend/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	graphql  http.Handler
	insights *handlers.InsightsHandler
	metrics  *observability.Collector
	db       *sqlite.DB
	logger   *zap.Logger

	allowedOrigins []string
}

// NewRouter creates a new router instance
func NewRouter(
	graphql http.Handler,
	insights *handlers.InsightsHandler,
	metrics *observability.Collector,
	db *sqlite.DB,
	logger *zap.Logger,
	allowedOrigins []string,
) *Router {
	return &Router{
		graphql:        graphql,
		insights:       insights,
		metrics:        metrics,
		db:             db,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Operational endpoints
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	// API routes
	router.Route("/api", func(r chi.Router) {
		r.Handle("/graphql", rt.graphql)
		r.Post("/summary", rt.insights.Summary)
		r.Post("/coach", rt.insights.Coach)
		r.Get("/analytics", rt.insights.Analytics)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck verifies the storage dependency before reporting ready.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := rt.db.Ping(req.Context()); err != nil {
		rt.logger.Error("readiness check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
