package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/auth"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
)

const msgRateLimited = "Too many requests, please try again later"

// RateLimiterConfig holds the token bucket of one client.
type RateLimiterConfig struct {
	Rate            rate.Limit
	Burst           int
	CleanupInterval time.Duration
}

// RateLimiterConfigFrom converts the service configuration.
func RateLimiterConfigFrom(cfg config.RateLimitConfig) RateLimiterConfig {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	burst := cfg.BurstSize
	if burst < 1 {
		burst = 1
	}
	return RateLimiterConfig{
		Rate:            rate.Limit(cfg.RequestsPerSecond),
		Burst:           burst,
		CleanupInterval: interval,
	}
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter keeps one token bucket per client. A client is the verified
// user when the request carries an identity, and the remote IP otherwise.
type RateLimiter struct {
	config RateLimiterConfig
	logger zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter creates a RateLimiter and starts dropping idle clients in
// the background.
func NewRateLimiter(config RateLimiterConfig, logger zerolog.Logger) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		config:   config,
		logger:   logger.With().Str("component", "ratelimit").Logger(),
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Middleware answers 429 with Retry-After once a client exhausts its
// bucket. Place it after auth.Authenticate to key by user.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !rl.limiter(key).Allow() {
				rl.logger.Warn().Str("client", key).Str("path", r.URL.Path).Msg("rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter(rl.config.Rate)))
				writeError(w, http.StatusTooManyRequests, msgRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.config.Rate, rl.config.Burst)}
		rl.limiters[key] = cl
	}
	cl.lastAccess = time.Now()
	return cl.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup drops clients idle for two cleanup intervals.
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.config.CleanupInterval * 2

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
}

func clientKey(r *http.Request) string {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(id.UserID, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// retryAfter is the number of seconds until one token is refilled.
func retryAfter(limit rate.Limit) int {
	if limit <= 0 || limit == rate.Inf {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(limit))))
}
