package rest

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/italolelis/lineexpander/internal/telemetry"
)

// CORS allows any origin to call the API.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition", telemetry.RequestIDHeader},
		MaxAge:         300,
	})
}
