package peer

import (
	"context"
	"net/http"
	"strconv"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

// CommentsClient calls the comments service.
type CommentsClient struct {
	c *Client
}

// NewCommentsClient creates a client for the comments service.
func NewCommentsClient(opts Options) *CommentsClient {
	return &CommentsClient{c: newClient("comments", opts)}
}

type countResponse struct {
	Count int64 `json:"count"`
}

// Count returns the number of comments on post postID.
func (c *CommentsClient) Count(ctx context.Context, postID int64) (int64, error) {
	var out countResponse
	path := "/api/comments/count/" + strconv.FormatInt(postID, 10)
	if err := c.c.call(ctx, "count_comments", http.MethodGet, path, nil, nil, &out); err != nil {
		return 0, domain.Dependency("comments service unavailable", err)
	}
	return out.Count, nil
}

// DeleteAllForPost removes every comment of post postID and returns how
// many were deleted.
func (c *CommentsClient) DeleteAllForPost(ctx context.Context, postID int64) (int64, error) {
	var out countResponse
	path := "/api/comments/post/" + strconv.FormatInt(postID, 10)
	if err := c.c.call(ctx, "delete_post_comments", http.MethodDelete, path, nil, nil, &out); err != nil {
		return 0, domain.Dependency("comments service unavailable", err)
	}
	return out.Count, nil
}
