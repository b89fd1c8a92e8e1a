package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
)

const commentColumns = `id, post_id, user_id, content, created_at, updated_at`

type commentRepository struct {
	db *DB
}

// NewCommentRepository creates a new PostgreSQL comment repository.
func NewCommentRepository(db *DB) repository.CommentRepository {
	return &commentRepository{db: db}
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	comment := &domain.Comment{}
	err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.UserID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	return comment, err
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (post_id, user_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		comment.PostID,
		comment.UserID,
		comment.Content,
		comment.CreatedAt,
		comment.UpdatedAt,
	).Scan(&comment.ID)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	comment, err := scanComment(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}
	return comment, nil
}

// ListByPost returns the comments of a post, oldest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID int64) ([]*domain.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}

func (r *commentRepository) CountByPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	comment.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`,
		comment.ID,
		comment.Content,
		comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func (r *commentRepository) DeleteByPost(ctx context.Context, postID int64) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments of post: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ repository.CommentRepository = (*commentRepository)(nil)
