package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/pkg/crypto"
)

type identityKey struct{}

// WithIdentity stores the verified identity in ctx.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by Authenticate.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}

// Authenticate requires a valid identity token on every request and stores
// the verified identity in the request context.
//
// Any verifier failure answers 401: an unreachable auth service is never
// treated as a valid token. Errors that carry a client message of the
// unauthenticated kind (for example "Invalid token.") pass it through;
// everything else reports "Token verification failed.".
func Authenticate(verifier TokenVerifier, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractToken(r)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, domain.PublicMessage(err, domain.ErrNoToken.Message))
				return
			}

			v, err := verifier.Verify(r.Context(), token)
			if err != nil || v == nil {
				logger.Debug().
					Err(err).
					Str("path", r.URL.Path).
					Str("token_fingerprint", crypto.TokenFingerprint(token)[:12]).
					Msg("token rejected")
				writeAuthError(w, http.StatusUnauthorized, rejectionMessage(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), v.Identity)))
		})
	}
}

func rejectionMessage(err error) string {
	if err != nil && errors.Is(err, domain.ErrUnauthenticated) && !errors.Is(err, domain.ErrDependency) {
		return domain.PublicMessage(err, domain.ErrTokenVerificationFailed.Message)
	}
	return domain.ErrTokenVerificationFailed.Message
}
