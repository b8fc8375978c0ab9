package domain

import (
	"context"
	"time"
)

// Session binds a random token stored in a cookie to an author.
type Session struct {
	Token     string
	AuthorID  int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByAuthor(ctx context.Context, authorID int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
