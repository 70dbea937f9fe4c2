package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"donationfeed/internal/http/handlers"
	"donationfeed/internal/infra"
	"donationfeed/internal/middleware"
)

// Options configures the cross-cutting middleware around the API.
type Options struct {
	Logger             infra.Logger
	RateLimitPerMinute int
	CORSAllowedOrigins []string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSAllowedOrigins),
		middleware.Metrics,
	)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.RateLimitPerMinute, time.Minute))

			r.Get("/users/{username}/feed", app.UserFeed)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/feed", app.AdminFeed)
				r.Post("/donations/{id}/approve", app.ApproveDonation)
			})

			r.Route("/announcements/local", func(r chi.Router) {
				r.Get("/", app.ListLocalAnnouncements)
				r.Post("/", app.CreateLocalAnnouncement)
				r.Delete("/{timestamp}", app.DeleteLocalAnnouncement)
			})
		})
	})

	return r
}
