package repository

import (
	"context"
	"time"
)

// =============================================================================
// Cache Interface
// =============================================================================

// Cache defines the interface for caching operations.
// Implemented in memory for single-node deployments and on Redis when
// several replicas of a service should share entries.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error
}

// =============================================================================
// Common Cache Keys
// =============================================================================

// CacheKey generates cache keys for common scenarios.
type CacheKey struct {
	// Prefix namespaces every key.
	Prefix string
}

// TokenVerification returns the key under which a verified identity is
// kept. fingerprint must be a digest of the token, never the token itself.
func (k CacheKey) TokenVerification(fingerprint string) string {
	return k.Prefix + "verify:" + fingerprint
}
