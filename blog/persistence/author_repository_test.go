package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfryer1193/inkwell/blog/domain"
)

func TestAuthorRepository_CreateAndGet(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewAuthorRepository(conn)
	ctx := context.Background()

	a := &domain.Author{
		Username:     "root",
		Email:        "root@example.com",
		PasswordHash: []byte("hash"),
		Superuser:    true,
	}
	require.NoError(t, repo.Create(ctx, a))
	assert.NotZero(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	byName, err := repo.GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byName.ID)
	assert.Equal(t, "root@example.com", byName.Email)
	assert.Equal(t, []byte("hash"), byName.PasswordHash)
	assert.True(t, byName.Superuser)

	byID, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "root", byID.Username)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrAuthorNotFound)
	_, err = repo.GetByID(ctx, a.ID+1)
	assert.ErrorIs(t, err, domain.ErrAuthorNotFound)
}

func TestAuthorRepository_CreateDuplicate(t *testing.T) {
	conn := setupTestDB(t)
	createAuthor(t, conn, "root")

	err := NewAuthorRepository(conn).Create(context.Background(), &domain.Author{
		Username:     "root",
		PasswordHash: []byte("hash"),
	})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestAuthorRepository_List(t *testing.T) {
	conn := setupTestDB(t)
	createAuthor(t, conn, "alice")
	createAuthor(t, conn, "bob")

	authors, err := NewAuthorRepository(conn).List(context.Background())
	require.NoError(t, err)
	require.Len(t, authors, 2)
	assert.Equal(t, "alice", authors[0].Username)
	assert.Equal(t, "bob", authors[1].Username)
}

func TestAuthorRepository_Delete(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewAuthorRepository(conn)
	posts := NewPostRepository(conn)
	ctx := context.Background()

	withPosts := createAuthor(t, conn, "writer")
	withoutPosts := createAuthor(t, conn, "lurker")
	require.NoError(t, posts.Save(ctx, newPost(withPosts.ID, "Kept", "kept")))

	err := repo.Delete(ctx, withPosts.ID)
	assert.ErrorIs(t, err, domain.ErrAuthorHasPosts)

	_, err = repo.GetByID(ctx, withPosts.ID)
	assert.NoError(t, err, "author with posts must survive a failed delete")

	require.NoError(t, repo.Delete(ctx, withoutPosts.ID))
	_, err = repo.GetByID(ctx, withoutPosts.ID)
	assert.ErrorIs(t, err, domain.ErrAuthorNotFound)

	err = repo.Delete(ctx, withoutPosts.ID)
	assert.ErrorIs(t, err, domain.ErrAuthorNotFound)
}

func TestSessionRepository(t *testing.T) {
	conn := setupTestDB(t)
	author := createAuthor(t, conn, "root")
	repo := NewSessionRepository(conn)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	live := &domain.Session{Token: "live", AuthorID: author.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := &domain.Session{Token: "stale", AuthorID: author.ID, CreatedAt: now, ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, stale))

	got, err := repo.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.True(t, live.ExpiresAt.Equal(got.ExpiresAt))

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.Get(ctx, "stale")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, repo.Delete(ctx, "live"))
	assert.ErrorIs(t, repo.Delete(ctx, "live"), domain.ErrSessionNotFound)

	require.NoError(t, repo.Create(ctx, &domain.Session{Token: "a", AuthorID: author.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.DeleteByAuthor(ctx, author.ID))
	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	err = repo.Create(ctx, &domain.Session{Token: "orphan", AuthorID: author.ID + 99, CreatedAt: now, ExpiresAt: now})
	assert.ErrorIs(t, err, domain.ErrAuthorNotFound)
}
