package domain

import (
	"time"
)

// Comment is a reply to a post, owned by the comments service.
// PostID is checked against the posts service once, at creation;
// UserID is never validated.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username   string           `json:"username,omitempty"`
	Enrichment EnrichmentStatus `json:"enrichment,omitempty"`
}

// NewComment creates a new Comment with timestamps set.
func NewComment(postID, userID int64, content string) *Comment {
	now := time.Now().UTC()
	return &Comment{
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOwnedBy reports whether userID wrote the comment.
func (c *Comment) IsOwnedBy(userID int64) bool {
	return c.UserID == userID
}
