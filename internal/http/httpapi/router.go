// Package httpapi wires the HTTP surface: routes, middleware ordering, and
// the split between public and authenticated endpoints.
package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/adcraft/creative-engine/internal/http/handlers"
	"github.com/adcraft/creative-engine/internal/middleware"
)

// Options holds router construction knobs.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
}

// NewRouter assembles the API router.
func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", app.Register)
		r.Post("/login", app.Login)
		r.Post("/refresh", app.Refresh)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(app.Tokens))

		r.Get("/v1/me", app.Me)
		r.Get("/v1/usage", app.Usage)

		r.Route("/v1/generate", func(r chi.Router) {
			r.Post("/enhance", app.Enhance)
			r.Post("/queue", app.Queue)
			r.Get("/queue", app.QueueList)
			r.Get("/queue/{id}", app.QueueStatus)
			r.Delete("/queue/{id}", app.QueueCancel)
			r.Post("/queue/{id}/retry", app.QueueRetry)
		})
	})

	return r
}
