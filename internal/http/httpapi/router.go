package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockmeta/internal/http/handlers"
	"stockmeta/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(*app.Logger),
	)
	if app.Config != nil {
		r.Use(middleware.CORS(app.Config.CORSAllowedOrigins))
	}

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if app.Config != nil {
			r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
		}

		r.Get("/v1/categories", app.Categories)
		r.Get("/v1/settings", app.GetSettings)
		r.Put("/v1/settings", app.PutSettings)

		r.Route("/v1/keys/{provider}", func(r chi.Router) {
			r.Get("/", app.ListKeys)
			r.Post("/", app.AddKey)
			r.Delete("/{index}", app.RemoveKey)
		})

		r.Post("/v1/metadata", app.Describe)

		r.Route("/v1/batches", func(r chi.Router) {
			r.Post("/", app.CreateBatch)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.GetBatch)
				r.Post("/start", app.StartBatch)
				r.Post("/stop", app.StopBatch)
				r.Post("/retry", app.RetryBatch)
				r.Get("/export.csv", app.ExportCSV)
				r.Get("/export.zip", app.ExportZIP)
			})
		})
	})

	return r
}
