package peer

import (
	"context"
	"net/http"
	"strconv"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

// PostsClient calls the posts service.
type PostsClient struct {
	c *Client
}

// NewPostsClient creates a client for the posts service.
func NewPostsClient(opts Options) *PostsClient {
	return &PostsClient{c: newClient("posts", opts)}
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

// Exists reports whether post id exists.
func (p *PostsClient) Exists(ctx context.Context, id int64) (bool, error) {
	var out existsResponse
	path := "/api/posts/" + strconv.FormatInt(id, 10) + "/exists"
	if err := p.c.call(ctx, "post_exists", http.MethodGet, path, nil, nil, &out); err != nil {
		return false, domain.Dependency("Unable to verify post", err)
	}
	return out.Exists, nil
}
