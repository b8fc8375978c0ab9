package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/inkwell/blog/domain"
	"github.com/dfryer1193/inkwell/shared/db"
)

var _ domain.PostRepository = (*SQLitePostRepository)(nil)

// SQLitePostRepository implements domain.PostRepository using SQL database (SQLite)
type SQLitePostRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostRepository creates a new SQLitePostRepository from a standard sql.DB
func NewPostRepository(conn *sql.DB) *SQLitePostRepository {
	return &SQLitePostRepository{
		db:  conn,
		now: utcNow,
	}
}

const selectPostQuery = `
	SELECT p.id, p.author_id, a.username, p.title, p.slug, p.text,
		p.created_at, p.updated_at, p.published_at
	FROM posts p
	JOIN authors a ON a.id = p.author_id
`

const getPostBySlugQuery = selectPostQuery + `WHERE p.slug = ?`

// GetBySlug retrieves a single post by its slug
func (r *SQLitePostRepository) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	if slug == "" {
		return nil, domain.ErrPostNotFound
	}

	row := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getPostBySlugQuery, slug)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPostNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// Insertion order is creation order; created_at alone can tie.
const listPostsQuery = selectPostQuery + `ORDER BY p.id ASC`

// List retrieves every post, drafts included, oldest first
func (r *SQLitePostRepository) List(ctx context.Context) ([]*domain.Post, error) {
	rows, err := db.GetExecutor(ctx, r.db).QueryContext(ctx, listPostsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

const insertPostQuery = `
	INSERT INTO posts (author_id, title, slug, text, created_at, updated_at, published_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
`

// author_id and created_at are fixed at insert.
const updatePostQuery = `
	UPDATE posts
	SET title = ?, slug = ?, text = ?, updated_at = ?, published_at = ?
	WHERE id = ?
`

const authorExistsQuery = `SELECT 1 FROM authors WHERE id = ?`

const slugOwnerQuery = `SELECT id FROM posts WHERE slug = ?`

// Save validates the post and inserts or updates it within a transaction.
// On success p carries the stored ID and timestamps.
func (r *SQLitePostRepository) Save(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	if err := p.Validate(); err != nil {
		return err
	}

	saved := *p
	saved.Touch(r.now())
	if saved.ID == 0 && saved.CreatedAt.IsZero() {
		saved.CreatedAt = saved.UpdatedAt
	}

	err := db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)

		var exists int
		err := executor.QueryRowContext(txCtx, authorExistsQuery, saved.AuthorID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FieldError("author", "Select a valid author.")
		}
		if err != nil {
			return fmt.Errorf("failed to look up author: %w", err)
		}

		var ownerID int64
		err = executor.QueryRowContext(txCtx, slugOwnerQuery, saved.Slug).Scan(&ownerID)
		switch {
		case err == nil && ownerID != saved.ID:
			return slugTakenError()
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to check slug: %w", err)
		}

		if saved.ID == 0 {
			return r.insert(txCtx, executor, &saved)
		}
		return r.update(txCtx, executor, &saved)
	})
	if err != nil {
		return err
	}

	*p = saved
	return nil
}

func (r *SQLitePostRepository) insert(ctx context.Context, executor db.Executor, p *domain.Post) error {
	res, err := executor.ExecContext(ctx, insertPostQuery,
		p.AuthorID,
		p.Title,
		p.Slug,
		p.Text,
		p.CreatedAt,
		p.UpdatedAt,
		nullTime(p.PublishedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return slugTakenError()
		}
		if isForeignKeyViolation(err) {
			return domain.FieldError("author", "Select a valid author.")
		}
		return fmt.Errorf("failed to insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted post id: %w", err)
	}
	p.ID = id

	return nil
}

func (r *SQLitePostRepository) update(ctx context.Context, executor db.Executor, p *domain.Post) error {
	res, err := executor.ExecContext(ctx, updatePostQuery,
		p.Title,
		p.Slug,
		p.Text,
		p.UpdatedAt,
		nullTime(p.PublishedAt),
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return slugTakenError()
		}
		return fmt.Errorf("failed to update post: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrPostNotFound, p.ID)
	}

	return nil
}

const deletePostQuery = `DELETE FROM posts WHERE id = ?`

// Delete removes a post permanently
func (r *SQLitePostRepository) Delete(ctx context.Context, id int64) error {
	res, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, deletePostQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrPostNotFound, id)
	}

	return nil
}

func (r *SQLitePostRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

func (r *SQLitePostRepository) CountByAuthor(ctx context.Context, authorID int64) (int, error) {
	var count int
	err := db.GetExecutor(ctx, r.db).
		QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE author_id = ?`, authorID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts for author %d: %w", authorID, err)
	}
	return count, nil
}

func slugTakenError() error {
	return domain.FieldError("slug", "Post with this slug already exists.")
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

type rowScanner interface {
	Scan(dest ...any) error
}

// postRow is a private struct used to scan database rows
// It uses sql.NullTime for the nullable published_at column
// and provides a method to convert to the domain.Post model
type postRow struct {
	ID          int64        `db:"id"`
	AuthorID    int64        `db:"author_id"`
	Author      string       `db:"username"`
	Title       string       `db:"title"`
	Slug        string       `db:"slug"`
	Text        string       `db:"text"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	PublishedAt sql.NullTime `db:"published_at"`
}

func scanPost(s rowScanner) (*domain.Post, error) {
	var row postRow
	err := s.Scan(
		&row.ID,
		&row.AuthorID,
		&row.Author,
		&row.Title,
		&row.Slug,
		&row.Text,
		&row.CreatedAt,
		&row.UpdatedAt,
		&row.PublishedAt,
	)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// toDomain converts a postRow to a domain.Post, handling the nullable publish time
func (pr *postRow) toDomain() *domain.Post {
	post := &domain.Post{
		ID:        pr.ID,
		AuthorID:  pr.AuthorID,
		Author:    pr.Author,
		Title:     pr.Title,
		Slug:      pr.Slug,
		Text:      pr.Text,
		CreatedAt: pr.CreatedAt,
		UpdatedAt: pr.UpdatedAt,
	}

	if pr.PublishedAt.Valid {
		published := pr.PublishedAt.Time
		post.PublishedAt = &published
	}

	return post
}
