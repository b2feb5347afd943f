package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"photofilter/internal/http/handlers"
	"photofilter/internal/middleware"
)

// Options carries the collaborators the router needs beyond the handlers.
type Options struct {
	// Uploads serves stored originals under /uploads. Nil disables the route.
	Uploads       http.FileSystem
	CountryLookup middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
	)
	if app.Config != nil {
		r.Use(
			middleware.CORS(app.Config.CORSOrigins),
			middleware.I18N(app.Config.DefaultLocale, opts.CountryLookup),
		)
	} else {
		r.Use(middleware.I18N("en", opts.CountryLookup))
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if app.Config != nil {
				r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
			}
			r.Post("/upload", app.Upload)
		})
		r.Get("/images/{id}", app.JobStatus)
		r.Get("/jobs/{id}", app.JobStatus)
		r.Get("/styles", app.Styles)
	})

	if opts.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(opts.Uploads)))
	}

	return r
}
