package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
)

// maxPasswordBytes is the input limit of bcrypt.
const maxPasswordBytes = 72

// UserService handles registration, login and profile management.
type UserService struct {
	userRepo   repository.UserRepository
	issuer     TokenIssuer
	bcryptCost int
	logger     zerolog.Logger
}

// NewUserService creates a new UserService. A cost outside bcrypt's range
// falls back to bcrypt.DefaultCost.
func NewUserService(userRepo repository.UserRepository, issuer TokenIssuer, bcryptCost int, logger zerolog.Logger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		userRepo:   userRepo,
		issuer:     issuer,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("service", "user").Logger(),
	}
}

// RegisterInput contains the data needed to create a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthOutput is returned by Register and Login.
type AuthOutput struct {
	User      *domain.User
	Token     string
	ExpiresAt int64
}

// Register creates a new account and issues a token for it.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*AuthOutput, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check email existence")
		return nil, internalError(err)
	}
	if exists {
		return nil, domain.ErrEmailTaken
	}

	exists, err = s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check username existence")
		return nil, internalError(err)
	}
	if exists {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := domain.NewUser(input.Username, input.Email, hash)
	if err := s.userRepo.Create(ctx, user); err != nil {
		// The existence checks race with concurrent registrations; the
		// unique constraints decide.
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return nil, internalError(err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user registered")

	return s.issue(user)
}

// Login checks credentials and issues a token. Unknown email and wrong
// password produce the same error.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthOutput, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.Validation(msgLoginFields)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Debug().Msg("login for unknown email")
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Msg("failed to get user for login")
		return nil, internalError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug().Int64("user_id", user.ID).Msg("invalid password during login")
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user logged in")

	return s.issue(user)
}

func (s *UserService) issue(user *domain.User) (*AuthOutput, error) {
	token, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue token")
		return nil, internalError(err)
	}
	return &AuthOutput{User: user, Token: token, ExpiresAt: expiresAt.Unix()}, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, internalError(err)
	}
	return user, nil
}

// GetSummaries returns id and username of every known user in ids.
// Unknown ids are absent from the result.
func (s *UserService) GetSummaries(ctx context.Context, ids []int64) ([]domain.UserSummary, error) {
	if len(ids) == 0 {
		return nil, domain.Validation(msgUserIDs)
	}

	users, err := s.userRepo.GetByIDs(ctx, distinct(ids))
	if err != nil {
		s.logger.Error().Err(err).Int("ids", len(ids)).Msg("failed to get users")
		return nil, internalError(err)
	}

	summaries := make([]domain.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, domain.UserSummary{ID: u.ID, Username: u.Username})
	}
	return summaries, nil
}

// UpdateProfileInput contains the fields of a profile change. Empty fields
// keep their current value.
type UpdateProfileInput struct {
	UserID   int64
	Username string
	Email    string
}

// UpdateProfile changes username and/or email of the caller's account.
func (s *UserService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" && email == "" {
		return nil, domain.Validation(msgProfileFields)
	}

	user, err := s.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if username != "" {
		if len(username) > domain.MaxUsernameLength {
			return nil, domain.Validation("Username must be at most 50 characters")
		}
		user.Username = username
	}
	if email != "" {
		if !validEmail(email) {
			return nil, domain.Validation(msgInvalidEmail)
		}
		user.Email = email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update user")
		return nil, internalError(err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("profile updated")

	return user, nil
}

// ChangePasswordInput contains the data needed to change a password.
type ChangePasswordInput struct {
	UserID          int64
	CurrentPassword string
	NewPassword     string
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return domain.Validation(msgPasswordFields)
	}

	user, err := s.GetByID(ctx, input.UserID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return domain.ErrWrongPassword
	}

	hash, err := s.hashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update password")
		return passThrough(err, domain.ErrNotFound)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("password changed")

	return nil
}

// Delete removes the caller's account. Posts and comments that reference
// it are left in place and read back with the placeholder username.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to delete user")
		return internalError(err)
	}

	s.logger.Info().Int64("user_id", id).Msg("user deleted")

	return nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", domain.Validation(msgPasswordTooLong)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return "", internalError(err)
	}
	return string(hash), nil
}

func validateRegisterInput(input RegisterInput) error {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return domain.Validation(msgRegisterFields)
	}
	if len(input.Username) > domain.MaxUsernameLength {
		return domain.Validation("Username must be at most 50 characters")
	}
	if len(input.Email) > domain.MaxEmailLength || !validEmail(input.Email) {
		return domain.Validation(msgInvalidEmail)
	}
	return nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
