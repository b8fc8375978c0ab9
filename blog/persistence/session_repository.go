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

var _ domain.SessionRepository = (*SQLiteSessionRepository)(nil)

type SQLiteSessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(conn *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: conn}
}

const insertSessionQuery = `
	INSERT INTO sessions (token, author_id, expires_at, created_at)
	VALUES (?, ?, ?, ?)
`

func (r *SQLiteSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	if s == nil || s.Token == "" {
		return fmt.Errorf("session token cannot be empty")
	}

	_, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, insertSessionQuery,
		s.Token,
		s.AuthorID,
		s.ExpiresAt,
		s.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: id %d", domain.ErrAuthorNotFound, s.AuthorID)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

const getSessionQuery = `
	SELECT token, author_id, expires_at, created_at
	FROM sessions
	WHERE token = ?
`

func (r *SQLiteSessionRepository) Get(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getSessionQuery, token).Scan(
		&s.Token,
		&s.AuthorID,
		&s.ExpiresAt,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &s, nil
}

func (r *SQLiteSessionRepository) Delete(ctx context.Context, token string) error {
	res, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

func (r *SQLiteSessionRepository) DeleteByAuthor(ctx context.Context, authorID int64) error {
	_, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM sessions WHERE author_id = ?`, authorID)
	if err != nil {
		return fmt.Errorf("failed to delete sessions for author %d: %w", authorID, err)
	}
	return nil
}

// DeleteExpired removes sessions that expired before now and reports how many.
func (r *SQLiteSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}
