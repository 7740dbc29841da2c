package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/e3ventures/e3cal/internal/api"
	"github.com/e3ventures/e3cal/internal/auth"
	"github.com/e3ventures/e3cal/internal/config"
	"github.com/e3ventures/e3cal/internal/http/errors"
	"github.com/e3ventures/e3cal/internal/http/ratelimit"
	"github.com/e3ventures/e3cal/internal/metrics"
	"github.com/e3ventures/e3cal/internal/store"
)

// NewRouter wires all HTTP routes.
func NewRouter(cfg *config.Config, stor *store.Store, authService *auth.Service, sessions *auth.SessionManager, apiHandler *api.Handler) http.Handler {
	r := chi.NewRouter()

	// OAuth endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.MethodNotAllowed(w, r)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := stor.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())
		r.Get("/google", authService.BeginOAuth)
		r.Get("/google/callback", authService.HandleOAuthCallback)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/push/vapid-key", apiHandler.VapidKey)
		r.Post("/logout", apiHandler.Logout)

		// Trusted scheduled invocation only; carries no session.
		r.Post("/reminders/sweep", apiHandler.Sweep)

		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireSession)
			r.Get("/me", apiHandler.Me)
			r.Get("/calendars", apiHandler.ListCalendars)
			r.Get("/events", apiHandler.ListEvents)
			r.Post("/events", apiHandler.CreateEvent)
			r.Post("/push/subscribe", apiHandler.Subscribe)
			r.Post("/push/test", apiHandler.PushTest)
		})
	})

	return r
}
