package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
)

const commentColumns = `id, post_id, user_id, content, created_at, updated_at`

// commentRepository implements repository.CommentRepository for SQLite.
type commentRepository struct {
	db *DB
}

// NewCommentRepository creates a new SQLite comment repository.
func NewCommentRepository(db *DB) repository.CommentRepository {
	return &commentRepository{db: db}
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	comment := &domain.Comment{}
	var createdAt, updatedAt string
	if err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.UserID,
		&comment.Content,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	comment.CreatedAt = parseTime(createdAt)
	comment.UpdatedAt = parseTime(updatedAt)
	return comment, nil
}

// Create creates a new comment.
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (post_id, user_id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		comment.PostID,
		comment.UserID,
		comment.Content,
		formatTime(comment.CreatedAt),
		formatTime(comment.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	comment.ID = id

	return nil
}

// GetByID retrieves a comment by ID.
func (r *commentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = ?`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
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
		WHERE post_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
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

// CountByPost returns the number of comments of a post.
func (r *commentRepository) CountByPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// Update updates the content of an existing comment.
func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	comment.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`,
		comment.Content,
		formatTime(comment.UpdatedAt),
		comment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrCommentNotFound
	}

	return nil
}

// Delete deletes a comment by ID.
func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrCommentNotFound
	}

	return nil
}

// DeleteByPost deletes every comment of a post.
func (r *commentRepository) DeleteByPost(ctx context.Context, postID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments of post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted row count: %w", err)
	}
	return rowsAffected, nil
}

var _ repository.CommentRepository = (*commentRepository)(nil)
