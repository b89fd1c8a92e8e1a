package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/service"
)

// CommentService is what CommentHandler needs from the comment service.
type CommentService interface {
	Create(ctx context.Context, input service.CreateCommentInput) (*domain.Comment, error)
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID int64) ([]*domain.Comment, domain.EnrichmentStatus, error)
	CountByPost(ctx context.Context, postID int64) (int64, error)
	Update(ctx context.Context, input service.UpdateCommentInput) (*domain.Comment, error)
	Delete(ctx context.Context, id, userID int64) error
	DeleteAllForPost(ctx context.Context, postID int64) (int64, error)
}

// CommentHandler serves /api/comments.
type CommentHandler struct {
	comments CommentService
	maxBody  int64
	logger   zerolog.Logger
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(comments CommentService, maxBody int64, logger zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		maxBody:  maxBody,
		logger:   logger.With().Str("handler", "comment").Logger(),
	}
}

type createCommentRequest struct {
	PostID  flexibleID `json:"postId"`
	Content string     `json:"content"`
}

// Create handles POST /api/comments.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req createCommentRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err, msgInvalidBody)
		return
	}

	comment, err := h.comments.Create(r.Context(), service.CreateCommentInput{
		PostID:  int64(req.PostID),
		UserID:  caller.UserID,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, r, h.logger, err, "Server error during comment creation")
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// ListByPost handles GET /api/comments/post/{postId}.
func (h *CommentHandler) ListByPost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postId")
	if err != nil {
		writeError(w, r, h.logger, err, msgInvalidID)
		return
	}

	comments, status, err := h.comments.ListByPost(r.Context(), postID)
	if err != nil {
		writeError(w, r, h.logger, err, "Server error retrieving comments")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"count":      len(comments),
		"enrichment": status,
		"comments":   comments,
	})
}

// Get handles GET /api/comments/{id}.
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err, msgInvalidID)
		return
	}

	comment, err := h.comments.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, "Server error retrieving comment")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"comment": comment})
}

// Count handles GET /api/comments/count/{postId}. Internal only.
func (h *CommentHandler) Count(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postId")
	if err != nil {
		writeError(w, r, h.logger, err, msgInvalidID)
		return
	}

	count, err := h.comments.CountByPost(r.Context(), postID)
	if err != nil {
		writeError(w, r, h.logger, err, "Server error counting comments")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"count": count})
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

// Update handles PUT /api/comments/{id}.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err, msgInvalidID)
		return
	}

	var req updateCommentRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, r, h.logger, err, msgInvalidBody)
		return
	}

	comment, err := h.comments.Update(r.Context(), service.UpdateCommentInput{
		ID:      id,
		UserID:  caller.UserID,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, r, h.logger, err, "Server error updating comment")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"message": "Comment updated successfully",
		"comment": comment,
	})
}

// Delete handles DELETE /api/comments/{id}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err, msgInvalidID)
		return
	}

	if err := h.comments.Delete(r.Context(), id, caller.UserID); err != nil {
		writeError(w, r, h.logger, err, "Server error deleting comment")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"message": "Comment deleted successfully"})
}

// DeleteAllForPost handles DELETE /api/comments/post/{postId}. Internal
// only; the posts service calls it before deleting a post.
func (h *CommentHandler) DeleteAllForPost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postId")
	if err != nil {
		writeError(w, r, h.logger, err, msgInvalidID)
		return
	}

	count, err := h.comments.DeleteAllForPost(r.Context(), postID)
	if err != nil {
		writeError(w, r, h.logger, err, "Server error deleting comments")
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"message": fmt.Sprintf("%d comments deleted", count),
		"count":   count,
	})
}
