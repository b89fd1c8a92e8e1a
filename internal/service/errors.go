// Package service holds the business logic of the auth, posts and comments
// services. Every returned error wraps one of the domain error kinds.
package service

import (
	"fmt"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

// Client-facing validation messages.
const (
	msgRegisterFields    = "Please provide username, email and password"
	msgLoginFields       = "Please provide email and password"
	msgUserIDs           = "Please provide an array of user IDs"
	msgProfileFields     = "Please provide username or email to update"
	msgPasswordFields    = "Please provide current and new password"
	msgInvalidEmail      = "Please provide a valid email address"
	msgPasswordTooLong   = "Password must be at most 72 bytes"
	msgPostFields        = "Please provide title and content"
	msgPostUpdateFields  = "Please provide title or content to update"
	msgPostUpdateDenied  = "Not authorized to update this post"
	msgPostDeleteDenied  = "Not authorized to delete this post"
	msgCommentFields     = "Please provide postId and content"
	msgCommentUpdate     = "Please provide content to update"
	msgCommentEditDenied = "Not authorized to update this comment"
	msgCommentDelDenied  = "Not authorized to delete this comment"
	msgPostCheckFailed   = "Unable to verify post, please try again later"
)

// internalError wraps an unexpected failure so transports answer 500.
func internalError(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInternal, err)
}

// passThrough returns err unchanged when it already carries a domain kind
// the caller should see, and wraps it as internal otherwise.
func passThrough(err error, kinds ...error) error {
	for _, kind := range kinds {
		if isKind(err, kind) {
			return err
		}
	}
	return internalError(err)
}
