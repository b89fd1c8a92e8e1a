package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/auth"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
)

// CORS allows the browser client to call the API from the configured
// origins. The service-key header is never allowed cross-origin.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", auth.AuthorizationHeader},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}
