package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
)

// Pagination bounds of the post listing.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PostService handles post operations of the posts service.
type PostService struct {
	postRepo repository.PostRepository
	comments CommentPeer
	enrich   enricher
	recorder Recorder
	logger   zerolog.Logger
}

// NewPostService creates a new PostService.
func NewPostService(
	postRepo repository.PostRepository,
	users UserDirectory,
	comments CommentPeer,
	recorder Recorder,
	logger zerolog.Logger,
) *PostService {
	logger = logger.With().Str("service", "post").Logger()
	recorder = recorderOrNop(recorder)
	return &PostService{
		postRepo: postRepo,
		comments: comments,
		enrich:   enricher{users: users, recorder: recorder, logger: logger},
		recorder: recorder,
		logger:   logger,
	}
}

// CreatePostInput contains the data needed to create a post.
type CreatePostInput struct {
	UserID  int64
	Title   string
	Content string
}

// Create stores a new post. The author id comes from a verified identity
// and is not checked against the auth service.
func (s *PostService) Create(ctx context.Context, input CreatePostInput) (*domain.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || blank(input.Content) {
		return nil, domain.Validation(msgPostFields)
	}
	if len(title) > domain.MaxTitleLength {
		return nil, domain.Validation("Title must be at most 255 characters")
	}

	post := domain.NewPost(input.UserID, title, input.Content)
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.logger.Error().Err(err).Int64("user_id", input.UserID).Msg("failed to create post")
		return nil, internalError(err)
	}

	s.logger.Info().
		Int64("post_id", post.ID).
		Int64("user_id", post.UserID).
		Msg("post created")

	return post, nil
}

// GetByID returns a post with its author name and comment count. The two
// lookups run in sequence and each may degrade on its own.
func (s *PostService) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	username, status := s.enrich.username(ctx, post.UserID)
	post.Username = username

	count, err := s.comments.Count(ctx, post.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("post_id", post.ID).Msg("comment count failed, using zero")
		s.recorder.RecordDegraded(fieldCommentCount)
		count = 0
		status = status.Merge(domain.EnrichmentDegraded)
	}
	post.CommentCount = &count
	post.Enrichment = status

	return post, nil
}

// ListPostsInput selects one page of the post listing. Non-positive values
// select the defaults.
type ListPostsInput struct {
	Page  int
	Limit int
}

// ListPostsOutput is one enriched page of posts.
type ListPostsOutput struct {
	Posts      []*domain.Post
	Page       int
	Limit      int
	Total      int64
	Enrichment domain.EnrichmentStatus
}

// List returns one page of posts, newest first, with author names resolved
// in a single batch call.
func (s *PostService) List(ctx context.Context, input ListPostsInput) (*ListPostsOutput, error) {
	page, limit := normalizePage(input.Page, input.Limit)

	result, err := s.postRepo.List(ctx, repository.ListOptions{
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Int("page", page).Msg("failed to list posts")
		return nil, internalError(err)
	}

	status := s.applyUsernames(ctx, result.Items)

	return &ListPostsOutput{
		Posts:      result.Items,
		Page:       page,
		Limit:      limit,
		Total:      result.Total,
		Enrichment: status,
	}, nil
}

// ListByUser returns every post of one author, newest first. All posts
// share the author, so one single-user lookup serves the whole list.
func (s *PostService) ListByUser(ctx context.Context, userID int64) ([]*domain.Post, domain.EnrichmentStatus, error) {
	posts, err := s.postRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list user posts")
		return nil, "", internalError(err)
	}
	if len(posts) == 0 {
		return posts, domain.EnrichmentComplete, nil
	}

	username, status := s.enrich.username(ctx, userID)
	for _, p := range posts {
		p.Username = username
		p.Enrichment = status
	}
	return posts, status, nil
}

// Exists reports whether a post exists.
func (s *PostService) Exists(ctx context.Context, id int64) (bool, error) {
	exists, err := s.postRepo.Exists(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("post_id", id).Msg("failed to check post existence")
		return false, internalError(err)
	}
	return exists, nil
}

// UpdatePostInput contains a post change. Empty fields keep their value.
type UpdatePostInput struct {
	ID      int64
	UserID  int64
	Title   string
	Content string
}

// Update changes title and/or content of a post owned by the caller.
func (s *PostService) Update(ctx context.Context, input UpdatePostInput) (*domain.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" && blank(input.Content) {
		return nil, domain.Validation(msgPostUpdateFields)
	}
	if len(title) > domain.MaxTitleLength {
		return nil, domain.Validation("Title must be at most 255 characters")
	}

	post, err := s.get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !post.IsOwnedBy(input.UserID) {
		return nil, domain.Forbidden(msgPostUpdateDenied)
	}

	if title != "" {
		post.Title = title
	}
	if !blank(input.Content) {
		post.Content = input.Content
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		s.logger.Error().Err(err).Int64("post_id", post.ID).Msg("failed to update post")
		return nil, passThrough(err, domain.ErrNotFound)
	}

	s.logger.Info().Int64("post_id", post.ID).Msg("post updated")

	return post, nil
}

// Delete removes a post owned by the caller. Its comments are deleted
// first through the comments service; that call is best effort and the
// post row is removed whatever its outcome.
func (s *PostService) Delete(ctx context.Context, id, userID int64) error {
	post, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !post.IsOwnedBy(userID) {
		return domain.Forbidden(msgPostDeleteDenied)
	}

	removed, err := s.comments.DeleteAllForPost(ctx, id)
	if err != nil {
		// No retry: the orphaned comments stay until deleted by hand.
		s.logger.Warn().Err(err).Int64("post_id", id).Msg("comment cascade failed, deleting post anyway")
		s.recorder.RecordCascadeFailure()
	} else {
		s.logger.Debug().Int64("post_id", id).Int64("comments", removed).Msg("comments cascaded")
	}

	if err := s.postRepo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Int64("post_id", id).Msg("failed to delete post")
		return passThrough(err, domain.ErrNotFound)
	}

	s.logger.Info().Int64("post_id", id).Int64("user_id", userID).Msg("post deleted")

	return nil
}

func (s *PostService) get(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return nil, domain.ErrPostNotFound
		}
		s.logger.Error().Err(err).Int64("post_id", id).Msg("failed to get post")
		return nil, internalError(err)
	}
	return post, nil
}

func (s *PostService) applyUsernames(ctx context.Context, posts []*domain.Post) domain.EnrichmentStatus {
	if len(posts) == 0 {
		return domain.EnrichmentComplete
	}

	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}

	names, status := s.enrich.usernames(ctx, ids)
	for _, p := range posts {
		p.Username = domain.UsernameOrUnknown(names, p.UserID)
		p.Enrichment = status
	}
	return status
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
