// Package routes mounts the HTTP surface of the gateway.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/app"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(deps.Config.Server.WriteTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	// Prometheus metrics
	if deps.PromRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.PromRegistry, promhttp.HandlerOpts{}))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if deps.AuthMiddleware != nil {
			r.Use(deps.AuthMiddleware.RequireAuth)
		}

		r.Post("/completions", deps.CompletionHandler.HandleCompletion)
		r.Get("/providers", deps.ProviderHandler.HandleListProviders)

		r.Route("/routing", func(r chi.Router) {
			r.Get("/", deps.RoutingHandler.HandleListTaskTypes)
			r.Post("/reload", deps.RoutingHandler.HandleReload)
		})

		r.Route("/usage", func(r chi.Router) {
			r.Get("/summary", deps.UsageHandler.HandleSummary)
			r.Get("/recent", deps.UsageHandler.HandleRecent)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
