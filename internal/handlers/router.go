package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter mounts the API routes
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Secret"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	r.Get("/health", h.HealthCheck)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Board
		r.Get("/board", h.GetBoard)
		r.Get("/games/{gameID}", h.GetGame)

		// Team mapping diagnostics
		r.Get("/teams/misses", h.GetMisses)
		r.Get("/teams/suggest", h.SuggestTeam)

		// AI commentary
		r.Post("/insights", h.CreateInsight)

		// Admin
		r.With(h.RequireAdmin).Post("/admin/refresh", h.TriggerRefresh)
	})

	return r
}

// RequestLogger logs each request with its status and latency
func RequestLogger(logger *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// Process request
			next.ServeHTTP(ww, r)

			entry := logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"latency":    time.Since(startTime).String(),
				"client_ip":  r.RemoteAddr,
				"request_id": chimiddleware.GetReqID(r.Context()),
			})

			// Add query parameters if present
			if r.URL.RawQuery != "" {
				entry = entry.WithField("query", r.URL.RawQuery)
			}

			// Log based on status code
			status := ww.Status()
			switch {
			case status >= 500:
				entry.Error("request failed")
			case status >= 400:
				entry.Warn("client error")
			default:
				entry.Debug("request completed")
			}
		})
	}
}
