// Package repository defines data access interfaces for the blog services.
// Each service owns exactly one table; these interfaces abstract the
// PostgreSQL and SQLite implementations so the service layer stays clean.
package repository

import (
	"context"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

// =============================================================================
// User Repository (auth service)
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByIDs retrieves every user whose ID is in ids.
	// Unknown IDs are simply absent from the result.
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update updates username, email and password hash of an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete deletes a user by ID.
	Delete(ctx context.Context, id int64) error

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// =============================================================================
// Post Repository (posts service)
// =============================================================================

// PostRepository defines the interface for post data access.
type PostRepository interface {
	// Create creates a new post.
	Create(ctx context.Context, post *domain.Post) error

	// GetByID retrieves a post by ID.
	GetByID(ctx context.Context, id int64) (*domain.Post, error)

	// Exists reports whether a post with the given ID exists.
	Exists(ctx context.Context, id int64) (bool, error)

	// List returns one page of posts, newest first.
	List(ctx context.Context, opts ListOptions) (*ListResult[domain.Post], error)

	// ListByUser returns every post of a user, newest first.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Post, error)

	// Update updates title and content of an existing post.
	Update(ctx context.Context, post *domain.Post) error

	// Delete deletes a post by ID.
	Delete(ctx context.Context, id int64) error
}

// =============================================================================
// Comment Repository (comments service)
// =============================================================================

// CommentRepository defines the interface for comment data access.
type CommentRepository interface {
	// Create creates a new comment.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment by ID.
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)

	// ListByPost returns the comments of a post, oldest first.
	ListByPost(ctx context.Context, postID int64) ([]*domain.Comment, error)

	// CountByPost returns the number of comments of a post.
	CountByPost(ctx context.Context, postID int64) (int64, error)

	// Update updates the content of an existing comment.
	Update(ctx context.Context, comment *domain.Comment) error

	// Delete deletes a comment by ID.
	Delete(ctx context.Context, id int64) error

	// DeleteByPost deletes every comment of a post and returns how many
	// rows were removed.
	DeleteByPost(ctx context.Context, postID int64) (int64, error)
}

// =============================================================================
// Common Types
// =============================================================================

// ListOptions contains common pagination options.
type ListOptions struct {
	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return.
	Limit int
}

// ListResult is a generic paginated list result.
type ListResult[T any] struct {
	// Items is the list of items.
	Items []*T

	// Total is the total number of items (without pagination).
	Total int64

	// Offset is the current offset.
	Offset int

	// Limit is the current limit.
	Limit int
}
