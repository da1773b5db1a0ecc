package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{"http://localhost:8000"}

// CORS returns middleware that lets the host application's pages call the API.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", IdempotencyKeyHeader, WorkflowTokenHeader, RequestIDHeader},
		ExposedHeaders:   []string{WorkflowTokenHeader, RequestIDHeader, "Location", IdempotentReplay},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
