package peer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/auth"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

// AuthClient calls the auth service.
type AuthClient struct {
	c *Client
}

// NewAuthClient creates a client for the auth service.
func NewAuthClient(opts Options) *AuthClient {
	return &AuthClient{c: newClient("auth", opts)}
}

type verifyResponse struct {
	User struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Verify asks the auth service whether token is valid.
// A rejected token yields domain.ErrTokenVerificationFailed; an
// unreachable service yields a dependency error.
func (a *AuthClient) Verify(ctx context.Context, token string) (*auth.Verification, error) {
	headers := http.Header{}
	headers.Set(auth.AuthorizationHeader, auth.BearerScheme+token)

	var out verifyResponse
	err := a.c.call(ctx, "verify", http.MethodGet, "/api/auth/verify", nil, headers, &out)
	switch {
	case err == nil:
	case IsStatus(err, http.StatusUnauthorized):
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenVerificationFailed, err)
	case errors.Is(err, ErrUnsuccessful):
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	default:
		return nil, domain.Dependency(domain.ErrTokenVerificationFailed.Message, err)
	}

	if out.User.ID <= 0 {
		return nil, fmt.Errorf("%w: verify response carried no user", domain.ErrTokenVerificationFailed)
	}

	v := &auth.Verification{
		Identity: domain.Identity{UserID: out.User.ID, Email: out.User.Email},
	}
	if out.ExpiresAt != nil {
		v.ExpiresAt = *out.ExpiresAt
	}
	return v, nil
}

type userResponse struct {
	User domain.UserSummary `json:"user"`
}

// GetUser fetches one user. A user the auth service does not know yields
// domain.ErrUserNotFound; any other failure is a dependency error.
func (a *AuthClient) GetUser(ctx context.Context, id int64) (*domain.UserSummary, error) {
	var out userResponse
	err := a.c.call(ctx, "get_user", http.MethodGet, "/api/auth/user/"+strconv.FormatInt(id, 10), nil, nil, &out)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Dependency("auth service unavailable", err)
	}
	return &out.User, nil
}

type batchRequest struct {
	UserIDs []int64 `json:"userIds"`
}

type batchResponse struct {
	Users []domain.UserSummary `json:"users"`
}

// GetUsernames resolves ids in one call. Unknown ids are absent from the
// returned map.
func (a *AuthClient) GetUsernames(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var out batchResponse
	if err := a.c.call(ctx, "get_users_batch", http.MethodPost, "/api/auth/users/batch", batchRequest{UserIDs: ids}, nil, &out); err != nil {
		return nil, domain.Dependency("auth service unavailable", err)
	}
	for _, u := range out.Users {
		names[u.ID] = u.Username
	}
	return names, nil
}

var _ auth.TokenVerifier = (*AuthClient)(nil)
