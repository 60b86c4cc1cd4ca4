package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"scriptstudio/internal/http/handlers"
	"scriptstudio/internal/middleware"
)

type RouterOptions struct {
	Logger          zerolog.Logger
	AllowedOrigins  []string
	DefaultLocale   string
	RateLimitPerMin int
	// CountryLookup picks a language for clients that send no language
	// headers; nil skips the lookup.
	CountryLookup middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	// provider-hitting routes
	limited := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/metrics", app.Metrics)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", app.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.GetSession)
			r.Delete("/", app.DeleteSession)
			r.With(limited).Post("/script", app.SubmitTopic)
			r.Put("/aspect-ratio", app.SetAspectRatio)
			r.Put("/reference-image", app.SetReferenceImage)
			r.Delete("/reference-image", app.ClearReferenceImage)
			r.With(limited).Post("/images", app.StartImageBatch)
			r.Get("/images", app.ListImages)
			r.Get("/images.zip", app.DownloadZip)
			r.Get("/images/{ordinal}", app.DownloadImage)
			r.Get("/events", app.Events)
		})
	})

	return r
}
