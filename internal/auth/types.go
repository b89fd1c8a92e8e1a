package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

// Claims is the payload of an identity token: {id, email, iat, exp, sub}.
type Claims struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verification is the outcome of a successful token check.
type Verification struct {
	Identity domain.Identity

	// ExpiresAt is when the token stops being valid. Zero when the verifier
	// could not tell.
	ExpiresAt time.Time
}

// TokenVerifier checks an identity token. It is implemented locally by
// TokenIssuer and remotely by the auth service client.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Verification, error)
}

// TokenVerifierFunc adapts a function to TokenVerifier.
type TokenVerifierFunc func(ctx context.Context, token string) (*Verification, error)

// Verify calls f.
func (f TokenVerifierFunc) Verify(ctx context.Context, token string) (*Verification, error) {
	return f(ctx, token)
}
