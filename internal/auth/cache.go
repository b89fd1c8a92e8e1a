package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/metrics"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/pkg/crypto"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
)

// CachingVerifier remembers successful verifications for a short time and
// collapses concurrent checks of the same token into one upstream call.
//
// Entries are keyed by the token fingerprint and live for min(ttl, time
// left on the token), so a cached token can never outlive its expiry.
// Failures are never cached.
type CachingVerifier struct {
	next    TokenVerifier
	cache   repository.Cache
	keys    repository.CacheKey
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// cachedVerification is the stored form of a Verification.
type cachedVerification struct {
	UserID    int64     `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewCachingVerifier wraps next. When ttl is not positive or cache is nil,
// next is returned unchanged.
func NewCachingVerifier(
	next TokenVerifier,
	cache repository.Cache,
	keys repository.CacheKey,
	ttl time.Duration,
	logger zerolog.Logger,
	collector *metrics.Collector,
) TokenVerifier {
	if ttl <= 0 || cache == nil {
		return next
	}
	return &CachingVerifier{
		next:    next,
		cache:   cache,
		keys:    keys,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger.With().Str("component", "verify_cache").Logger(),
		metrics: collector,
	}
}

// Verify returns a cached verification or asks the wrapped verifier.
func (c *CachingVerifier) Verify(ctx context.Context, token string) (*Verification, error) {
	fingerprint := crypto.TokenFingerprint(token)
	key := c.keys.TokenVerification(fingerprint)

	if v, ok := c.lookup(ctx, key); ok {
		c.metrics.RecordVerifyCache("hit")
		return v, nil
	}
	c.metrics.RecordVerifyCache("miss")

	result, err, _ := c.group.Do(fingerprint, func() (any, error) {
		v, err := c.next.Verify(ctx, token)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}

	v := *result.(*Verification)
	return &v, nil
}

func (c *CachingVerifier) lookup(ctx context.Context, key string) (*Verification, bool) {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			c.logger.Warn().Err(err).Msg("verification cache read failed")
		}
		return nil, false
	}

	var entry cachedVerification
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn().Err(err).Msg("discarding unreadable verification cache entry")
		_ = c.cache.Delete(ctx, key)
		return nil, false
	}
	if !entry.ExpiresAt.IsZero() && !c.now().Before(entry.ExpiresAt) {
		return nil, false
	}

	return &Verification{
		Identity:  domain.Identity{UserID: entry.UserID, Email: entry.Email},
		ExpiresAt: entry.ExpiresAt,
	}, true
}

func (c *CachingVerifier) store(ctx context.Context, key string, v *Verification) {
	lifetime := c.ttl
	if !v.ExpiresAt.IsZero() {
		if left := v.ExpiresAt.Sub(c.now()); left < lifetime {
			lifetime = left
		}
	}
	if lifetime <= 0 {
		return
	}

	raw, err := json.Marshal(cachedVerification{
		UserID:    v.Identity.UserID,
		Email:     v.Identity.Email,
		ExpiresAt: v.ExpiresAt,
	})
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, lifetime); err != nil {
		c.logger.Warn().Err(err).Msg("verification cache write failed")
	}
}

var _ TokenVerifier = (*CachingVerifier)(nil)
