package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/service"
)

// PostService is what PostHandler needs from the post service.
type PostService interface {
	Create(ctx context.Context, input service.CreatePostInput) (*domain.Post, error)
	GetByID(ctx context.Context, id int64) (*domain.Post, error)
	List(ctx context.Context, input service.ListPostsInput) (*service.ListPostsOutput, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Post, domain.EnrichmentStatus, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Update(ctx context.Context, input service.UpdatePostInput) (*domain.Post, error)
	Delete(ctx context.Context, id, userID int64) error
}

// PostHandler serves /api/posts.
type PostHandler struct {
	posts   PostService
	maxBody int64
	logger  zerolog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts PostService, maxBody int64, logger zerolog.Logger) *PostHandler {
	return &PostHandler{
		posts:   posts,
		maxBody: maxBody,
		logger:  logger.With().Str("handler", "post").Logger(),
	}
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create handles POST /api/posts.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req postRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err, msgInvalidBody)
		return
	}

	post, err := h.posts.Create(r.Context(), service.CreatePostInput{
		UserID:  id.UserID,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, r, h.logger, err, "Server error during post creation")
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{
		"message": "Post created successfully",
		"post":    post,
	})
}

// List handles GET /api/posts?page=&limit=.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.posts.List(r.Context(), service.ListPostsInput{
		Page:  queryInt(r, "page"),
		Limit: queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, r, h.logger, err, "Server error retrieving posts")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"count":      len(out.Posts),
		"total":      out.Total,
		"page":       out.Page,
		"limit":      out.Limit,
		"enrichment": out.Enrichment,
		"posts":      out.Posts,
	})
}

// Get handles GET /api/posts/{id}.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err, msgInvalidID)
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, "Server error retrieving post")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"post": post})
}

// ListMine handles GET /api/posts/user.
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	h.listByUser(w, r, id.UserID)
}

// ListByUser handles GET /api/posts/user/{userId}.
func (h *PostHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, h.logger, err, msgInvalidID)
		return
	}
	h.listByUser(w, r, userID)
}

func (h *PostHandler) listByUser(w http.ResponseWriter, r *http.Request, userID int64) {
	posts, status, err := h.posts.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err, "Server error retrieving user posts")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"count":      len(posts),
		"enrichment": status,
		"posts":      posts,
	})
}

// Exists handles GET /api/posts/{id}/exists. Internal only.
func (h *PostHandler) Exists(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err, msgInvalidID)
		return
	}

	exists, err := h.posts.Exists(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, "Server error checking post")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"exists": exists})
}

// Update handles PUT /api/posts/{id}.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err, msgInvalidID)
		return
	}

	var req postRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err, msgInvalidBody)
		return
	}

	post, err := h.posts.Update(r.Context(), service.UpdatePostInput{
		ID:      id,
		UserID:  caller.UserID,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, r, h.logger, err, "Server error updating post")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"message": "Post updated successfully",
		"post":    post,
	})
}

// Delete handles DELETE /api/posts/{id}.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err, msgInvalidID)
		return
	}

	if err := h.posts.Delete(r.Context(), id, caller.UserID); err != nil {
		writeError(w, r, h.logger, err, "Server error deleting post")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"message": "Post deleted successfully"})
}
