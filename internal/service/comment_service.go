package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
)

// CommentService handles comment operations of the comments service.
type CommentService struct {
	commentRepo repository.CommentRepository
	posts       PostChecker
	enrich      enricher
	logger      zerolog.Logger
}

// NewCommentService creates a new CommentService.
func NewCommentService(
	commentRepo repository.CommentRepository,
	posts PostChecker,
	users UserDirectory,
	recorder Recorder,
	logger zerolog.Logger,
) *CommentService {
	logger = logger.With().Str("service", "comment").Logger()
	return &CommentService{
		commentRepo: commentRepo,
		posts:       posts,
		enrich:      enricher{users: users, recorder: recorderOrNop(recorder), logger: logger},
		logger:      logger,
	}
}

// CreateCommentInput contains the data needed to create a comment.
type CreateCommentInput struct {
	PostID  int64
	UserID  int64
	Content string
}

// Create stores a comment after the posts service confirmed the post
// exists. An unanswered check fails the request; nothing is stored.
func (s *CommentService) Create(ctx context.Context, input CreateCommentInput) (*domain.Comment, error) {
	if input.PostID <= 0 || blank(input.Content) {
		return nil, domain.Validation(msgCommentFields)
	}

	exists, err := s.posts.Exists(ctx, input.PostID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("post_id", input.PostID).Msg("post existence check failed")
		if errors.Is(err, domain.ErrDependency) {
			return nil, err
		}
		return nil, domain.Dependency(msgPostCheckFailed, err)
	}
	if !exists {
		return nil, domain.ErrPostNotFound
	}

	comment := domain.NewComment(input.PostID, input.UserID, input.Content)
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		s.logger.Error().Err(err).Int64("post_id", input.PostID).Msg("failed to create comment")
		return nil, internalError(err)
	}

	s.logger.Info().
		Int64("comment_id", comment.ID).
		Int64("post_id", comment.PostID).
		Int64("user_id", comment.UserID).
		Msg("comment created")

	return comment, nil
}

// GetByID returns a comment with its author name.
func (s *CommentService) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	comment, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	comment.Username, comment.Enrichment = s.enrich.username(ctx, comment.UserID)
	return comment, nil
}

// ListByPost returns the comments of a post, oldest first, with author
// names resolved in a single batch call. An unknown post yields an empty
// list.
func (s *CommentService) ListByPost(ctx context.Context, postID int64) ([]*domain.Comment, domain.EnrichmentStatus, error) {
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		s.logger.Error().Err(err).Int64("post_id", postID).Msg("failed to list comments")
		return nil, "", internalError(err)
	}
	if len(comments) == 0 {
		return comments, domain.EnrichmentComplete, nil
	}

	ids := make([]int64, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}

	names, status := s.enrich.usernames(ctx, ids)
	for _, c := range comments {
		c.Username = domain.UsernameOrUnknown(names, c.UserID)
		c.Enrichment = status
	}
	return comments, status, nil
}

// CountByPost returns how many comments a post has.
func (s *CommentService) CountByPost(ctx context.Context, postID int64) (int64, error) {
	count, err := s.commentRepo.CountByPost(ctx, postID)
	if err != nil {
		s.logger.Error().Err(err).Int64("post_id", postID).Msg("failed to count comments")
		return 0, internalError(err)
	}
	return count, nil
}

// UpdateCommentInput contains a comment change.
type UpdateCommentInput struct {
	ID      int64
	UserID  int64
	Content string
}

// Update replaces the content of a comment owned by the caller.
func (s *CommentService) Update(ctx context.Context, input UpdateCommentInput) (*domain.Comment, error) {
	if blank(input.Content) {
		return nil, domain.Validation(msgCommentUpdate)
	}

	comment, err := s.get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !comment.IsOwnedBy(input.UserID) {
		return nil, domain.Forbidden(msgCommentEditDenied)
	}

	comment.Content = input.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("failed to update comment")
		return nil, passThrough(err, domain.ErrNotFound)
	}

	s.logger.Info().Int64("comment_id", comment.ID).Msg("comment updated")

	return comment, nil
}

// Delete removes a comment owned by the caller.
func (s *CommentService) Delete(ctx context.Context, id, userID int64) error {
	comment, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !comment.IsOwnedBy(userID) {
		return domain.Forbidden(msgCommentDelDenied)
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Int64("comment_id", id).Msg("failed to delete comment")
		return passThrough(err, domain.ErrNotFound)
	}

	s.logger.Info().Int64("comment_id", id).Msg("comment deleted")

	return nil
}

// DeleteAllForPost removes every comment of a post and returns how many
// were removed. Called by the posts service before it deletes the post.
func (s *CommentService) DeleteAllForPost(ctx context.Context, postID int64) (int64, error) {
	removed, err := s.commentRepo.DeleteByPost(ctx, postID)
	if err != nil {
		s.logger.Error().Err(err).Int64("post_id", postID).Msg("failed to delete post comments")
		return 0, internalError(err)
	}

	s.logger.Info().Int64("post_id", postID).Int64("comments", removed).Msg("post comments deleted")

	return removed, nil
}

func (s *CommentService) get(ctx context.Context, id int64) (*domain.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrCommentNotFound) {
			return nil, domain.ErrCommentNotFound
		}
		s.logger.Error().Err(err).Int64("comment_id", id).Msg("failed to get comment")
		return nil, internalError(err)
	}
	return comment, nil
}
