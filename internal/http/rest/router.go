package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/italolelis/lineexpander/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter wires the document routes, health and metrics endpoints behind the shared middleware.
func NewRouter(docs *DocumentHandler, tel *telemetry.Telemetry) http.Handler {
	r := chi.NewRouter()
	r.Use(CORS())
	r.Use(telemetry.RequestID)
	r.Use(telemetry.HTTPLogging)
	r.Use(telemetry.NewHTTPMiddleware(tel).Middleware)

	r.Get("/health", HandleHealth)
	r.Handle("/metrics", tel.Handler())
	r.Mount("/", docs.Routes())

	return otelhttp.NewHandler(r, "lineexpander")
}
