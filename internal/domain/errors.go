// Package domain contains the core entities shared by the blog services.
package domain

import (
	"errors"
)

// Error kinds. Every error returned by the service layer wraps exactly one
// of these so transports can map it to a status code with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrDependency      = errors.New("dependency unavailable")
	ErrInternal        = errors.New("internal error")
)

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = NewDomainError(ErrNotFound, "User not found", "user")

	// ErrUserAlreadyExists indicates a unique column of users collided.
	ErrUserAlreadyExists = NewDomainError(ErrConflict, "User already exists", "user")

	// ErrEmailTaken indicates another account registered the email first.
	ErrEmailTaken = NewDomainError(ErrConflict, "User with this email already exists", "user")

	// ErrUsernameTaken indicates another account registered the username first.
	ErrUsernameTaken = NewDomainError(ErrConflict, "Username is already taken", "user")

	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password so callers cannot probe which accounts exist.
	ErrInvalidCredentials = NewDomainError(ErrUnauthenticated, "Invalid email or password", "")

	// ErrWrongPassword indicates the current password did not match on change.
	ErrWrongPassword = NewDomainError(ErrUnauthenticated, "Current password is incorrect", "")

	// ===========================================
	// Token Errors
	// ===========================================

	// ErrNoToken indicates the request carried no Authorization header.
	ErrNoToken = NewDomainError(ErrUnauthenticated, "Access denied. No token provided.", "")

	// ErrInvalidToken indicates the token is malformed, expired or forged.
	ErrInvalidToken = NewDomainError(ErrUnauthenticated, "Invalid token.", "")

	// ErrTokenVerificationFailed indicates the auth service could not vouch
	// for the token, whatever the reason.
	ErrTokenVerificationFailed = NewDomainError(ErrUnauthenticated, "Token verification failed.", "")

	// ErrInternalRequest indicates a privileged route was called without the
	// shared service key.
	ErrInternalRequest = NewDomainError(ErrForbidden, "Unauthorized internal service request", "")

	// ===========================================
	// Content Errors
	// ===========================================

	// ErrPostNotFound indicates the requested post does not exist.
	ErrPostNotFound = NewDomainError(ErrNotFound, "Post not found", "post")

	// ErrCommentNotFound indicates the requested comment does not exist.
	ErrCommentNotFound = NewDomainError(ErrNotFound, "Comment not found", "comment")
)

// DomainError wraps an error kind with a client-facing message.
type DomainError struct {
	// Err is the underlying error kind.
	Err error

	// Message is safe to return to API clients.
	Message string

	// Resource names the affected entity type (e.g., "post").
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// Validation returns a validation error carrying message.
func Validation(message string) error {
	return NewDomainError(ErrValidation, message, "")
}

// Forbidden returns an authorization error carrying message.
func Forbidden(message string) error {
	return NewDomainError(ErrForbidden, message, "")
}

// Dependency returns an error reporting that a peer service failed.
func Dependency(message string, cause error) error {
	return &DomainError{
		Err:     errors.Join(ErrDependency, cause),
		Message: message,
	}
}

// PublicMessage returns the client-facing message carried by err, or
// fallback when err has none.
func PublicMessage(err error, fallback string) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return fallback
}
