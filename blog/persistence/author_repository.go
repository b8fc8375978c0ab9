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

var _ domain.AuthorRepository = (*SQLiteAuthorRepository)(nil)

// SQLiteAuthorRepository implements domain.AuthorRepository using SQLite
type SQLiteAuthorRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewAuthorRepository(conn *sql.DB) *SQLiteAuthorRepository {
	return &SQLiteAuthorRepository{
		db:  conn,
		now: utcNow,
	}
}

const insertAuthorQuery = `
	INSERT INTO authors (username, email, password_hash, is_superuser, created_at)
	VALUES (?, ?, ?, ?, ?)
`

// Create inserts a new author and sets its ID and CreatedAt
func (r *SQLiteAuthorRepository) Create(ctx context.Context, a *domain.Author) error {
	if a == nil {
		return fmt.Errorf("author cannot be nil")
	}
	if a.Username == "" {
		return fmt.Errorf("author username cannot be empty")
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	res, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, insertAuthorQuery,
		a.Username,
		a.Email,
		a.PasswordHash,
		a.Superuser,
		createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrUsernameTaken, a.Username)
		}
		return fmt.Errorf("failed to insert author: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted author id: %w", err)
	}

	a.ID = id
	a.CreatedAt = createdAt
	return nil
}

const selectAuthorQuery = `
	SELECT id, username, email, password_hash, is_superuser, created_at
	FROM authors
`

func (r *SQLiteAuthorRepository) GetByID(ctx context.Context, id int64) (*domain.Author, error) {
	row := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, selectAuthorQuery+`WHERE id = ?`, id)
	return r.scanOne(row, fmt.Sprintf("id %d", id))
}

func (r *SQLiteAuthorRepository) GetByUsername(ctx context.Context, username string) (*domain.Author, error) {
	row := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, selectAuthorQuery+`WHERE username = ?`, username)
	return r.scanOne(row, username)
}

func (r *SQLiteAuthorRepository) scanOne(row *sql.Row, key string) (*domain.Author, error) {
	a, err := scanAuthor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthorNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return a, nil
}

func (r *SQLiteAuthorRepository) List(ctx context.Context) ([]*domain.Author, error) {
	rows, err := db.GetExecutor(ctx, r.db).QueryContext(ctx, selectAuthorQuery+`ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	defer rows.Close()

	authors := make([]*domain.Author, 0)
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan author row: %w", err)
		}
		authors = append(authors, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating author rows: %w", err)
	}

	return authors, nil
}

// Delete removes an author that owns no posts.
// The foreign key on posts enforces the same rule; the explicit count gives
// callers a domain error instead of a driver one.
func (r *SQLiteAuthorRepository) Delete(ctx context.Context, id int64) error {
	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)

		var posts int
		err := executor.QueryRowContext(txCtx, `SELECT COUNT(*) FROM posts WHERE author_id = ?`, id).Scan(&posts)
		if err != nil {
			return fmt.Errorf("failed to count posts for author %d: %w", id, err)
		}
		if posts > 0 {
			return fmt.Errorf("%w: %d post(s)", domain.ErrAuthorHasPosts, posts)
		}

		res, err := executor.ExecContext(txCtx, `DELETE FROM authors WHERE id = ?`, id)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrAuthorHasPosts
			}
			return fmt.Errorf("failed to delete author: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: id %d", domain.ErrAuthorNotFound, id)
		}

		return nil
	})
}

func scanAuthor(s rowScanner) (*domain.Author, error) {
	var a domain.Author
	err := s.Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.PasswordHash,
		&a.Superuser,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
