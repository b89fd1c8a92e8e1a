package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

// ErrMissingSecret is returned when a TokenIssuer is built without a key.
var ErrMissingSecret = errors.New("jwt secret is required")

// TokenIssuer signs and verifies HS256 identity tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. A non-positive ttl uses DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token for user and returns it with its expiry.
func (i *TokenIssuer) Issue(user *domain.User) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		ID:    user.ID,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	// NumericDate drops sub-second precision; report what the token says.
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks signature, algorithm and expiry of token. Every failure is
// reported as domain.ErrInvalidToken.
func (i *TokenIssuer) Verify(_ context.Context, token string) (*Verification, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.ID <= 0 {
		return nil, domain.ErrInvalidToken
	}

	return &Verification{
		Identity: domain.Identity{
			UserID: claims.ID,
			Email:  claims.Email,
		},
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

var _ TokenVerifier = (*TokenIssuer)(nil)
