package domain

import (
	"time"
)

// MaxTitleLength is the column limit of posts.title.
const MaxTitleLength = 255

// Post is a blog post owned by the posts service.
// UserID is a weak reference into the auth service and is never validated.
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Read-time fields filled from peer services, never persisted.
	Username     string           `json:"username,omitempty"`
	CommentCount *int64           `json:"comment_count,omitempty"`
	Enrichment   EnrichmentStatus `json:"enrichment,omitempty"`
}

// NewPost creates a new Post with timestamps set.
func NewPost(userID int64, title, content string) *Post {
	now := time.Now().UTC()
	return &Post{
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOwnedBy reports whether userID authored the post.
func (p *Post) IsOwnedBy(userID int64) bool {
	return p.UserID == userID
}
