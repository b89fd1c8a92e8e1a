package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// echoIdentity writes the user id found in the request context.
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_ = json.NewEncoder(w).Encode(id)
})

func TestAuthenticate(t *testing.T) {
	good := &Verification{Identity: domain.Identity{UserID: 3, Email: "c@x.com"}}

	tests := []struct {
		name        string
		header      string
		verifier    TokenVerifierFunc
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "no header",
			verifier:    func(context.Context, string) (*Verification, error) { return good, nil },
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Access denied. No token provided.",
		},
		{
			name:        "invalid token",
			header:      "Bearer bad",
			verifier:    func(context.Context, string) (*Verification, error) { return nil, domain.ErrInvalidToken },
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid token.",
		},
		{
			name:   "auth service unreachable fails closed",
			header: "Bearer tok",
			verifier: func(context.Context, string) (*Verification, error) {
				return nil, domain.Dependency("auth down", errors.New("connection refused"))
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Token verification failed.",
		},
		{
			name:        "plain error fails closed",
			header:      "tok",
			verifier:    func(context.Context, string) (*Verification, error) { return nil, errors.New("boom") },
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Token verification failed.",
		},
		{
			name:        "nil verification fails closed",
			header:      "tok",
			verifier:    func(context.Context, string) (*Verification, error) { return nil, nil },
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Token verification failed.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Authenticate(tt.verifier, zerolog.Nop())(echoIdentity)

			req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
			if tt.header != "" {
				req.Header.Set(AuthorizationHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantMessage, body.Message)
		})
	}
}

func TestAuthenticate_AttachesIdentity(t *testing.T) {
	var seen string
	verifier := TokenVerifierFunc(func(_ context.Context, token string) (*Verification, error) {
		seen = token
		return &Verification{Identity: domain.Identity{UserID: 3, Email: "c@x.com"}}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(AuthorizationHeader, "Bearer tok")
	rec := httptest.NewRecorder()
	Authenticate(verifier, zerolog.Nop())(echoIdentity).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", seen)

	var id domain.Identity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&id))
	assert.Equal(t, domain.Identity{UserID: 3, Email: "c@x.com"}, id)
}

func TestRequireServiceKey(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		sent       string
		wantStatus int
	}{
		{"matching key", "k1", "k1", http.StatusOK},
		{"missing header", "k1", "", http.StatusForbidden},
		{"wrong key", "k1", "k2", http.StatusForbidden},
		{"unconfigured key rejects all", "", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := RequireServiceKey(tt.configured, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				_, _ = w.Write([]byte(`{"success":true,"user":{"id":1}}`))
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/auth/user/1", nil)
			if tt.sent != "" {
				req.Header.Set(ServiceKeyHeader, tt.sent)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.False(t, called)
				assert.JSONEq(t, `{"success":false,"message":"Unauthorized internal service request"}`, rec.Body.String())
			}
		})
	}
}
