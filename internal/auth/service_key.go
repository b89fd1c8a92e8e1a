package auth

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/pkg/crypto"
)

// RequireServiceKey admits only requests whose service-key header equals
// key. Everything else gets 403 before the handler runs. An empty key
// rejects all requests.
func RequireServiceKey(key string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !crypto.EqualSecrets(key, r.Header.Get(ServiceKeyHeader)) {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Bool("header_present", r.Header.Get(ServiceKeyHeader) != "").
					Msg("internal request rejected")
				writeAuthError(w, http.StatusForbidden, domain.ErrInternalRequest.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
