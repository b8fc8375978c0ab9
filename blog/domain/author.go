package domain

import (
	"context"
	"time"
)

// Identity is the capability the post lifecycle needs from a caller.
type Identity interface {
	IsAuthenticated() bool
	AuthorID() int64
	IsSuperuser() bool
}

// Author is a user who can log in and write posts.
type Author struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	Superuser    bool
	CreatedAt    time.Time
}

var _ Identity = (*Author)(nil)

func (a *Author) IsAuthenticated() bool { return a != nil && a.ID != 0 }

func (a *Author) AuthorID() int64 {
	if a == nil {
		return 0
	}
	return a.ID
}

func (a *Author) IsSuperuser() bool { return a != nil && a.Superuser }

// Anonymous is the identity of a caller without a session.
type Anonymous struct{}

var _ Identity = Anonymous{}

func (Anonymous) IsAuthenticated() bool { return false }
func (Anonymous) AuthorID() int64       { return 0 }
func (Anonymous) IsSuperuser() bool     { return false }

type AuthorRepository interface {
	Create(ctx context.Context, a *Author) error
	GetByID(ctx context.Context, id int64) (*Author, error)
	GetByUsername(ctx context.Context, username string) (*Author, error)
	List(ctx context.Context) ([]*Author, error)
	// Delete fails with ErrAuthorHasPosts while posts reference the author.
	Delete(ctx context.Context, id int64) error
}
