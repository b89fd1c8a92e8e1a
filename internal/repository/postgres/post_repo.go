package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
)

const postColumns = `id, user_id, title, content, created_at, updated_at`

type postRepository struct {
	db *DB
}

// NewPostRepository creates a new PostgreSQL post repository.
func NewPostRepository(db *DB) repository.PostRepository {
	return &postRepository{db: db}
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	post := &domain.Post{}
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Content,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	return post, err
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (user_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		post.UserID,
		post.Title,
		post.Content,
		post.CreatedAt,
		post.UpdatedAt,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post by ID: %w", err)
	}
	return post, nil
}

func (r *postRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}
	return exists, nil
}

// List returns one page of posts, newest first, with the overall total.
func (r *postRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Post], error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	query := `
		SELECT ` + postColumns + `
		FROM posts
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
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

func (r *postRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	posts, err := r.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts of user: %w", err)
	}
	return posts, nil
}

func (r *postRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Post, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
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

func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	post.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE posts SET title = $2, content = $3, updated_at = $4 WHERE id = $1`,
		post.ID,
		post.Title,
		post.Content,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

var _ repository.PostRepository = (*postRepository)(nil)
