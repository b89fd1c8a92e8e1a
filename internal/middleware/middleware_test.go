package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/auth"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/metrics"
)

// withIdentity pretends auth.Authenticate accepted the request.
func withIdentity(userID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithIdentity(r.Context(), domain.Identity{UserID: userID, Email: "u@x.com"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg, "posts")

	r := chi.NewRouter()
	r.Use(AccessLog(logger, collector))
	r.With(withIdentity(7), TagIdentity).Get("/api/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	line := decodeLogLine(t, &buf)
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, float64(404), line["status"])
	assert.Equal(t, "/api/posts/{id}", line["route"])
	assert.Equal(t, "/api/posts/42", line["path"])
	assert.Equal(t, float64(7), line["user_id"])

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "blog_http_requests_total" {
			found = true
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, float64(1), mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}

func TestAccessLog_DefaultStatusAndUnmatchedRoute(t *testing.T) {
	var buf bytes.Buffer
	handler := AccessLog(zerolog.New(&buf), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	line := decodeLogLine(t, &buf)
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, float64(200), line["status"])
	assert.Equal(t, "unmatched", line["route"])
	assert.NotContains(t, line, "user_id")
}

func TestRecover(t *testing.T) {
	handler := Recover(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Server error"}`, rec.Body.String())
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(0.5), Burst: 2, CleanupInterval: time.Hour}, zerolog.Nop())
	defer rl.Stop()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	anonymous := rl.Middleware()(ok)
	alice := withIdentity(1)(rl.Middleware()(ok))
	bob := withIdentity(2)(rl.Middleware()(ok))

	send := func(h http.Handler) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send(alice).Code)
	assert.Equal(t, http.StatusOK, send(alice).Code)

	limited := send(alice)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "2", limited.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"message":"Too many requests, please try again later"}`, limited.Body.String())

	// Other users and anonymous callers from the same address have their
	// own buckets.
	assert.Equal(t, http.StatusOK, send(bob).Code)
	assert.Equal(t, http.StatusOK, send(anonymous).Code)
	assert.Equal(t, 3, rl.Len())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(1), Burst: 1, CleanupInterval: time.Minute}, zerolog.Nop())
	defer rl.Stop()

	rl.limiter("ip:10.0.0.1")
	rl.limiter("ip:10.0.0.2")
	require.Equal(t, 2, rl.Len())

	rl.cleanup(time.Now())
	assert.Equal(t, 2, rl.Len())

	rl.cleanup(time.Now().Add(3 * time.Minute))
	assert.Zero(t, rl.Len())
}

func TestRateLimiterConfigFrom(t *testing.T) {
	cfg := RateLimiterConfigFrom(config.RateLimitConfig{RequestsPerSecond: 20, BurstSize: 0})
	assert.Equal(t, rate.Limit(20), cfg.Rate)
	assert.Equal(t, 1, cfg.Burst)
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 1, retryAfter(rate.Limit(20)))
	assert.Equal(t, 4, retryAfter(rate.Limit(0.25)))
	assert.Equal(t, 1, retryAfter(rate.Inf))
	assert.Equal(t, 1, retryAfter(0))
}

func TestCORS(t *testing.T) {
	handler := CORS(config.CORSConfig{AllowedOrigins: []string{"http://localhost:8080"}, MaxAge: 300})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
