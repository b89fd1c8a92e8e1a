package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/auth"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/service"
)

// AuthService is what AuthHandler needs from the user service.
type AuthService interface {
	Register(ctx context.Context, input service.RegisterInput) (*service.AuthOutput, error)
	Login(ctx context.Context, email, password string) (*service.AuthOutput, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetSummaries(ctx context.Context, ids []int64) ([]domain.UserSummary, error)
	UpdateProfile(ctx context.Context, input service.UpdateProfileInput) (*domain.User, error)
	ChangePassword(ctx context.Context, input service.ChangePasswordInput) error
	Delete(ctx context.Context, id int64) error
}

// AuthHandler serves /api/auth.
type AuthHandler struct {
	users    AuthService
	verifier auth.TokenVerifier
	maxBody  int64
	logger   zerolog.Logger
}

// NewAuthHandler creates an AuthHandler. verifier checks tokens locally for
// the verify endpoint.
func NewAuthHandler(users AuthService, verifier auth.TokenVerifier, maxBody int64, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		verifier: verifier,
		maxBody:  maxBody,
		logger:   logger.With().Str("handler", "auth").Logger(),
	}
}

// userView is the public projection of an account.
type userView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func viewOf(u *domain.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err, msgInvalidBody)
		return
	}

	out, err := h.users.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, err, "Server error during registration")
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{
		"message": "User registered successfully",
		"token":   out.Token,
		"user":    viewOf(out.User),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err, msgInvalidBody)
		return
	}

	out, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err, "Server error during login")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"message": "Login successful",
		"token":   out.Token,
		"user":    viewOf(out.User),
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, h.logger, err, msgServerError)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"user": viewOf(user)})
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UpdateMe handles PUT /api/auth/me.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err, msgInvalidBody)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), service.UpdateProfileInput{
		UserID:   id.UserID,
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		writeError(w, r, h.logger, err, msgServerError)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"message": "Profile updated successfully",
		"user":    viewOf(user),
	})
}

// DeleteMe handles DELETE /api/auth/me.
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), id.UserID); err != nil {
		writeError(w, r, h.logger, err, msgServerError)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"message": "Account deleted successfully"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err, msgInvalidBody)
		return
	}

	err := h.users.ChangePassword(r.Context(), service.ChangePasswordInput{
		UserID:          id.UserID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		writeError(w, r, h.logger, err, msgServerError)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"message": "Password updated successfully"})
}

type verifiedUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Verify handles GET /api/auth/verify. Other services call it to turn a
// bearer token into an identity; expires_at lets them bound caching.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token, err := auth.ExtractToken(r)
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, domain.PublicMessage(err, domain.ErrNoToken.Message))
		return
	}

	v, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, domain.ErrInvalidToken.Message)
		return
	}

	payload := envelope{
		"user": verifiedUser{ID: v.Identity.UserID, Email: v.Identity.Email},
	}
	if !v.ExpiresAt.IsZero() {
		payload["expires_at"] = v.ExpiresAt.UTC()
	}
	writeSuccess(w, http.StatusOK, payload)
}

// GetUser handles GET /api/auth/user/{id}. Internal only.
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err, msgServerError)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, msgServerError)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"user": viewOf(user)})
}

type batchRequest struct {
	UserIDs []int64 `json:"userIds"`
}

// GetUsersBatch handles POST /api/auth/users/batch. Internal only.
func (h *AuthHandler) GetUsersBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err, msgInvalidBody)
		return
	}

	users, err := h.users.GetSummaries(r.Context(), req.UserIDs)
	if err != nil {
		writeError(w, r, h.logger, err, msgServerError)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"users": users})
}

// identity returns the verified caller or answers 401.
func identity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, domain.ErrNoToken.Message)
		return domain.Identity{}, false
	}
	return id, true
}
