package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/auth"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/metrics"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/middleware"
)

// RouterDeps holds what every service router needs besides its handler.
type RouterDeps struct {
	Service config.Service
	Logger  zerolog.Logger

	// Verifier checks bearer tokens: locally in the auth service, through
	// the verification gateway elsewhere.
	Verifier auth.TokenVerifier

	// ServiceKey guards the internal routes.
	ServiceKey string

	// RateLimiter is applied to client routes. Nil disables it.
	RateLimiter *middleware.RateLimiter

	CORS config.CORSConfig

	// Metrics may be nil. MetricsHandler is mounted at MetricsPath when
	// both are set.
	Metrics        *metrics.Collector
	MetricsHandler http.Handler
	MetricsPath    string
}

func newBaseRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(deps.Logger, deps.Metrics))
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.CORS(deps.CORS))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	status := string(deps.Service) + " service is running"
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": status})
	})

	if deps.MetricsHandler != nil && deps.MetricsPath != "" {
		r.Method(http.MethodGet, deps.MetricsPath, deps.MetricsHandler)
	}

	return r
}

// bearer verifies the caller's token, then rate limits by user.
func bearer(r chi.Router, deps RouterDeps) {
	r.Use(auth.Authenticate(deps.Verifier, deps.Logger))
	r.Use(middleware.TagIdentity)
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware())
	}
}

// internal admits only peers presenting the service key.
func internal(r chi.Router, deps RouterDeps) {
	r.Use(auth.RequireServiceKey(deps.ServiceKey, deps.Logger))
}

// NewAuthRouter builds the auth service's routes.
func NewAuthRouter(deps RouterDeps, h *AuthHandler) http.Handler {
	r := newBaseRouter(deps)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.Middleware())
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		// Peers call verify on every request they authenticate.
		r.Get("/verify", h.Verify)

		r.Group(func(r chi.Router) {
			bearer(r, deps)
			r.Get("/me", h.Me)
			r.Put("/me", h.UpdateMe)
			r.Delete("/me", h.DeleteMe)
			r.Put("/password", h.ChangePassword)
		})

		r.Group(func(r chi.Router) {
			internal(r, deps)
			r.Get("/user/{id}", h.GetUser)
			r.Post("/users/batch", h.GetUsersBatch)
		})
	})

	return r
}

// NewPostsRouter builds the posts service's routes.
func NewPostsRouter(deps RouterDeps, h *PostHandler) http.Handler {
	r := newBaseRouter(deps)

	r.Route("/api/posts", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			internal(r, deps)
			r.Get("/{id}/exists", h.Exists)
		})

		r.Group(func(r chi.Router) {
			bearer(r, deps)
			r.Post("/", h.Create)
			r.Get("/", h.List)
			r.Get("/user", h.ListMine)
			r.Get("/user/{userId}", h.ListByUser)
			r.Get("/{id}", h.Get)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})

	return r
}

// NewCommentsRouter builds the comments service's routes.
func NewCommentsRouter(deps RouterDeps, h *CommentHandler) http.Handler {
	r := newBaseRouter(deps)

	r.Route("/api/comments", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			internal(r, deps)
			r.Get("/count/{postId}", h.Count)
			r.Delete("/post/{postId}", h.DeleteAllForPost)
		})

		r.Group(func(r chi.Router) {
			bearer(r, deps)
			r.Post("/", h.Create)
			r.Get("/post/{postId}", h.ListByPost)
			r.Get("/{id}", h.Get)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})

	return r
}
