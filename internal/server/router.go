package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/logging"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Logger         zerolog.Logger
	Health         HealthService
	API            *APIHandlers
	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
	MetricsEnabled bool
}

// NewRouter wires the HTTP routes exposed by the engine API.
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(requestContext(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", healthHandler(deps.Health))
	if deps.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	if deps.API != nil {
		r.Route("/v1", func(r chi.Router) {
			if deps.RateLimit > 0 {
				r.Use(httprate.LimitByIP(deps.RateLimit, deps.RateWindow))
			}
			r.Get("/users", deps.API.listUsers)
			r.Get("/users/{userID}/suggestions", deps.API.listSuggestions)
			r.Get("/users/{userID}/devices/{deviceID}/timing", deps.API.deviceTiming)
			r.Post("/suggestions/evaluate", deps.API.evaluateSuggestion)
			r.Post("/prompts", deps.API.composePrompt)
			r.Post("/timing", deps.API.optimizeTiming)
			r.Get("/market/{category}", deps.API.marketSnapshot)
		})
	}

	return r
}

func healthHandler(health HealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]any{"status": "ok"}
		if health != nil {
			if err := health.Probe(ctx); err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("health probe failed")
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
				payload["error"] = err.Error()
			}
		}
		respondJSON(w, status, payload)
	}
}
