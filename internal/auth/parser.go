package auth

import (
	"net/http"
	"strings"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

// ExtractToken reads the identity token from the Authorization header.
// Both "Bearer <token>" and a bare "<token>" are accepted.
func ExtractToken(r *http.Request) (string, error) {
	return ParseAuthorization(r.Header.Get(AuthorizationHeader))
}

// ParseAuthorization strips the optional bearer scheme from header.
func ParseAuthorization(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", domain.ErrNoToken
	}

	header = strings.TrimLeft(header, " \t")
	token := strings.TrimSpace(header)
	if len(header) >= len(BearerScheme) && strings.EqualFold(header[:len(BearerScheme)], BearerScheme) {
		token = strings.TrimSpace(header[len(BearerScheme):])
	}
	if token == "" {
		return "", domain.ErrInvalidToken
	}
	return token, nil
}
