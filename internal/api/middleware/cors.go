package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// CORS allows the frontend origin to call the API with credentials.
// Local dev servers are added outside production.
func CORS(frontendURL, environment string) func(http.Handler) http.Handler {
	origins := []string{strings.TrimRight(frontendURL, "/")}
	if environment != "production" {
		origins = append(origins, devOrigins...)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
