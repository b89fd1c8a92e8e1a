package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

// Error handling utilities for SQLite.

// isUniqueViolation checks if an error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed: UNIQUE")
}

// userConflict maps a unique violation on users to the matching domain error.
// SQLite names the offending column in the message ("users.email").
func userConflict(err error) error {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "users.email"):
		return domain.ErrEmailTaken
	case strings.Contains(errStr, "users.username"):
		return domain.ErrUsernameTaken
	default:
		return domain.ErrUserAlreadyExists
	}
}

// isNoRows checks if an error indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
