package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dfryer1193/inkwell/blog/domain"
	"github.com/dfryer1193/inkwell/blog/persistence"
)

func newTestAuthorService(t *testing.T) (*AuthorService, *SessionService) {
	t.Helper()

	conn := setupTestDB(t)
	authors := NewAuthorService(persistence.NewAuthorRepository(conn))
	authors.cost = bcrypt.MinCost

	sessions := NewSessionService(persistence.NewSessionRepository(conn), authors, time.Hour)
	return authors, sessions
}

func TestAuthorService_CreateAuthor(t *testing.T) {
	authors, _ := newTestAuthorService(t)
	ctx := context.Background()

	author, err := authors.CreateAuthor(ctx, AuthorInput{
		Username:  " root ",
		Email:     "root@example.com",
		Password:  "s3cret-pass",
		Superuser: true,
	})
	require.NoError(t, err)
	assert.NotZero(t, author.ID)
	assert.Equal(t, "root", author.Username)
	assert.True(t, author.Superuser)
	assert.NotEqual(t, []byte("s3cret-pass"), author.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(author.PasswordHash, []byte("s3cret-pass")))

	_, err = authors.CreateAuthor(ctx, AuthorInput{Username: "root", Password: "another-pass"})
	verr, ok := domain.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Contains(t, verr.Fields, "username")
}

func TestAuthorService_CreateAuthor_Validation(t *testing.T) {
	authors, _ := newTestAuthorService(t)

	tests := []struct {
		name       string
		in         AuthorInput
		wantFields []string
	}{
		{
			name:       "everything missing",
			in:         AuthorInput{},
			wantFields: []string{"username", "password"},
		},
		{
			name:       "short username",
			in:         AuthorInput{Username: "ab", Password: "password"},
			wantFields: []string{"username"},
		},
		{
			name:       "username with spaces",
			in:         AuthorInput{Username: "two words", Password: "password"},
			wantFields: []string{"username"},
		},
		{
			name:       "bad email",
			in:         AuthorInput{Username: "writer", Email: "not-an-email", Password: "password"},
			wantFields: []string{"email"},
		},
		{
			name:       "short password",
			in:         AuthorInput{Username: "writer", Password: "12345"},
			wantFields: []string{"password"},
		},
		{
			name:       "password over bcrypt limit",
			in:         AuthorInput{Username: "writer", Password: strings.Repeat("é", 40)},
			wantFields: []string{"password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authors.CreateAuthor(context.Background(), tt.in)

			verr, ok := domain.AsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			for _, field := range tt.wantFields {
				assert.Contains(t, verr.Fields, field)
			}
		})
	}

	list, err := authors.ListAuthors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAuthorService_Authenticate(t *testing.T) {
	authors, _ := newTestAuthorService(t)
	ctx := context.Background()

	created, err := authors.CreateAuthor(ctx, AuthorInput{Username: "root", Password: "correct-horse"})
	require.NoError(t, err)

	author, err := authors.Authenticate(ctx, "root", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, created.ID, author.ID)

	_, err = authors.Authenticate(ctx, "root", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = authors.Authenticate(ctx, "nobody", "correct-horse")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthorService_DeleteAuthor(t *testing.T) {
	authors, _ := newTestAuthorService(t)
	ctx := context.Background()

	_, err := authors.CreateAuthor(ctx, AuthorInput{Username: "writer", Password: "password"})
	require.NoError(t, err)

	require.NoError(t, authors.DeleteAuthor(ctx, "writer"))
	assert.ErrorIs(t, authors.DeleteAuthor(ctx, "writer"), domain.ErrAuthorNotFound)
}

func TestAuthorService_DeleteAuthor_WithPosts(t *testing.T) {
	conn := setupTestDB(t)
	authorRepo := persistence.NewAuthorRepository(conn)
	authors := NewAuthorService(authorRepo)
	authors.cost = bcrypt.MinCost
	ctx := context.Background()

	writer, err := authors.CreateAuthor(ctx, AuthorInput{Username: "writer", Password: "password"})
	require.NoError(t, err)

	posts := persistence.NewPostRepository(conn)
	require.NoError(t, posts.Save(ctx, &domain.Post{
		AuthorID: writer.ID,
		Title:    "Kept",
		Slug:     "kept",
		Text:     "Body",
	}))

	assert.ErrorIs(t, authors.DeleteAuthor(ctx, "writer"), domain.ErrAuthorHasPosts)

	_, err = authorRepo.GetByUsername(ctx, "writer")
	assert.NoError(t, err)
}
