package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/auth"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/metrics"
)

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.status = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.status = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

type requestInfoKey struct{}

// requestInfo carries fields learned by inner middleware back to AccessLog.
type requestInfo struct {
	userID int64
}

// AccessLog logs one line per request and feeds the request metrics.
// The level follows the status: 5xx error, 4xx warn, everything else info.
// collector may be nil.
func AccessLog(logger zerolog.Logger, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			info := &requestInfo{}

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))

			elapsed := time.Since(start)
			route := routePattern(r)
			collector.ObserveRequest(r.Method, route, rec.status, elapsed)

			var event *zerolog.Event
			switch {
			case rec.status >= 500:
				event = logger.Error()
			case rec.status >= 400:
				event = logger.Warn()
			default:
				event = logger.Info()
			}

			event = event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", route).
				Int("status", rec.status).
				Dur("duration", elapsed).
				Str("remote_addr", r.RemoteAddr)

			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				event = event.Str("request_id", reqID)
			}
			if info.userID > 0 {
				event = event.Int64("user_id", info.userID)
			}

			event.Msg("http request")
		})
	}
}

// TagIdentity copies the verified identity into the access log entry. It
// must run after auth.Authenticate.
func TagIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := auth.IdentityFromContext(r.Context()); ok {
			if info, ok := r.Context().Value(requestInfoKey{}).(*requestInfo); ok {
				info.userID = id.UserID
			}
		}
		next.ServeHTTP(w, r)
	})
}

// routePattern returns the chi route template so metric labels stay
// bounded, or "unmatched" for requests no route claimed.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
