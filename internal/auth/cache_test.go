package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/cache/memory"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/pkg/crypto"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
)

// countingVerifier answers with a fixed result and counts calls.
type countingVerifier struct {
	calls  atomic.Int32
	result *Verification
	err    error
	gate   chan struct{}
}

func (v *countingVerifier) Verify(context.Context, string) (*Verification, error) {
	v.calls.Add(1)
	if v.gate != nil {
		<-v.gate
	}
	if v.err != nil {
		return nil, v.err
	}
	out := *v.result
	return &out, nil
}

func newCachingVerifier(t *testing.T, next TokenVerifier, ttl time.Duration) (*CachingVerifier, *memory.Cache) {
	t.Helper()
	cache := memory.NewCache(time.Hour)
	t.Cleanup(cache.Stop)

	v, ok := NewCachingVerifier(next, cache, repository.CacheKey{Prefix: "test:"}, ttl, zerolog.Nop(), nil).(*CachingVerifier)
	require.True(t, ok)
	return v, cache
}

func TestNewCachingVerifier_Disabled(t *testing.T) {
	next := &countingVerifier{}
	assert.Same(t, TokenVerifier(next), NewCachingVerifier(next, nil, repository.CacheKey{}, time.Minute, zerolog.Nop(), nil))

	cache := memory.NewCache(time.Hour)
	defer cache.Stop()
	assert.Same(t, TokenVerifier(next), NewCachingVerifier(next, cache, repository.CacheKey{}, 0, zerolog.Nop(), nil))
}

func TestCachingVerifier_HitsCache(t *testing.T) {
	next := &countingVerifier{result: &Verification{
		Identity:  domain.Identity{UserID: 1, Email: "a@x.com"},
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	v, cache := newCachingVerifier(t, next, 30*time.Second)
	ctx := context.Background()

	first, err := v.Verify(ctx, "tok")
	require.NoError(t, err)
	second, err := v.Verify(ctx, "tok")
	require.NoError(t, err)

	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, first.Identity, second.Identity)

	// Keyed by fingerprint, never by the raw token.
	_, err = cache.Get(ctx, "test:verify:tok")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
	_, err = cache.Get(ctx, "test:verify:"+crypto.TokenFingerprint("tok"))
	assert.NoError(t, err)
}

func TestCachingVerifier_FailuresNotCached(t *testing.T) {
	next := &countingVerifier{err: domain.ErrInvalidToken}
	v, _ := newCachingVerifier(t, next, 30*time.Second)

	for i := 0; i < 2; i++ {
		_, err := v.Verify(context.Background(), "tok")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	}
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachingVerifier_NeverOutlivesToken(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	next := &countingVerifier{result: &Verification{
		Identity:  domain.Identity{UserID: 1},
		ExpiresAt: now.Add(5 * time.Second),
	}}
	v, _ := newCachingVerifier(t, next, time.Minute)
	v.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := v.Verify(ctx, "tok")
	require.NoError(t, err)

	now = now.Add(6 * time.Second)
	_, err = v.Verify(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load(), "expired entry must not be served")
}

func TestCachingVerifier_ExpiredTokenNotStored(t *testing.T) {
	next := &countingVerifier{result: &Verification{
		Identity:  domain.Identity{UserID: 1},
		ExpiresAt: time.Now().Add(-time.Second),
	}}
	v, cache := newCachingVerifier(t, next, time.Minute)

	_, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Zero(t, cache.Len())
}

func TestCachingVerifier_CollapsesConcurrentCalls(t *testing.T) {
	next := &countingVerifier{
		result: &Verification{Identity: domain.Identity{UserID: 1}, ExpiresAt: time.Now().Add(time.Hour)},
		gate:   make(chan struct{}),
	}
	v, _ := newCachingVerifier(t, next, time.Minute)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Verify(context.Background(), "tok")
			errs <- err
		}()
	}

	// Let the callers pile up behind the first upstream call.
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(next.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachingVerifier_UnreadableEntry(t *testing.T) {
	next := &countingVerifier{result: &Verification{Identity: domain.Identity{UserID: 1}}}
	v, cache := newCachingVerifier(t, next, time.Minute)
	ctx := context.Background()

	key := v.keys.TokenVerification(crypto.TokenFingerprint("tok"))
	require.NoError(t, cache.Set(ctx, key, []byte("{not json"), time.Minute))

	got, err := v.Verify(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Identity.UserID)
	assert.Equal(t, int32(1), next.calls.Load())
	assert.False(t, errors.Is(err, repository.ErrCacheMiss))
}
