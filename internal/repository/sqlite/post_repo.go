package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
)

const postColumns = `id, user_id, title, content, created_at, updated_at`

// postRepository implements repository.PostRepository for SQLite.
type postRepository struct {
	db *DB
}

// NewPostRepository creates a new SQLite post repository.
func NewPostRepository(db *DB) repository.PostRepository {
	return &postRepository{db: db}
}

func scanPost(row rowScanner) (*domain.Post, error) {
	post := &domain.Post{}
	var createdAt, updatedAt string
	if err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Content,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	post.CreatedAt = parseTime(createdAt)
	post.UpdatedAt = parseTime(updatedAt)
	return post, nil
}

// Create creates a new post.
func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (user_id, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		post.UserID,
		post.Title,
		post.Content,
		formatTime(post.CreatedAt),
		formatTime(post.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	post.ID = id

	return nil
}

// GetByID retrieves a post by ID.
func (r *postRepository) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post by ID: %w", err)
	}
	return post, nil
}

// Exists reports whether a post with the given ID exists.
func (r *postRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}
	return count > 0, nil
}

// List returns one page of posts, newest first.
func (r *postRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Post], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	query := `
		SELECT ` + postColumns + `
		FROM posts
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	posts, err := r.query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return &repository.ListResult[domain.Post]{
		Items:  posts,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// ListByUser returns every post of a user, newest first.
func (r *postRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`

	posts, err := r.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts of user: %w", err)
	}
	return posts, nil
}

func (r *postRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []*domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Update updates title and content of an existing post.
func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	post.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		post.Title,
		post.Content,
		formatTime(post.UpdatedAt),
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrPostNotFound
	}

	return nil
}

// Delete deletes a post by ID.
func (r *postRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrPostNotFound
	}

	return nil
}

var _ repository.PostRepository = (*postRepository)(nil)
