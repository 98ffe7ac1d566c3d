package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jnst/layered-crud-template/internal/datasource"
	"github.com/jnst/layered-crud-template/internal/logger"
	"github.com/jnst/layered-crud-template/internal/metrics"
	"github.com/jnst/layered-crud-template/internal/service"
)

// HealthChecker reports the reachability of every logical database.
type HealthChecker interface {
	Ping(ctx context.Context) map[datasource.Name]error
}

// NewRouter builds the HTTP router of the API server.
func NewRouter(
	sampleService service.SampleService,
	externalService service.ExternalDataService,
	health HealthChecker,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(metrics.Instrument)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(health))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/samples", NewSampleHandler(sampleService).Routes)
		r.Route("/external", NewExternalHandler(externalService).Routes)
	})

	return r
}

func healthHandler(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := make(map[string]string, len(datasource.Names()))
		healthy := true

		failures := health.Ping(r.Context())

		for _, name := range datasource.Names() {
			if err := failures[name]; err != nil {
				status[name.String()] = err.Error()
				healthy = false

				continue
			}

			status[name.String()] = "ok"
		}

		if !healthy {
			code := "UNHEALTHY"
			writeJSON(w, http.StatusServiceUnavailable, Response{
				Message:   "one or more databases are unreachable",
				Data:      status,
				ErrorCode: &code,
			})

			return
		}

		writeSuccess(w, status)
	}
}
