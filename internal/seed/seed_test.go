package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfryer1193/inkwell/blog/application"
	"github.com/dfryer1193/inkwell/blog/domain"
	"github.com/dfryer1193/inkwell/blog/persistence"
	"github.com/dfryer1193/inkwell/shared/db/sqlite"
)

const yamlFixture = `
authors:
  - username: root
    email: root@example.com
    password: rootpass
    superuser: true
  - username: writer
    password: writerpass
posts:
  - author: root
    title: Welcome
    slug: welcome
    text: |
      # Welcome

      First post on the blog.
    published: true
  - author: writer
    title: Work in progress
    text: Not done yet.
`

const tomlFixture = `
[[authors]]
username = "root"
email = "root@example.com"
password = "rootpass"
superuser = true

[[authors]]
username = "writer"
password = "writerpass"

[[posts]]
author = "root"
title = "Welcome"
slug = "welcome"
text = """
# Welcome

First post on the blog.
"""
published = true

[[posts]]
author = "writer"
title = "Work in progress"
text = "Not done yet."
`

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "fixtures.yaml", want: FormatYAML},
		{path: "fixtures.YML", want: FormatYAML},
		{path: "dir/fixtures.toml", want: FormatTOML},
		{path: "fixtures.json", wantErr: true},
		{path: "fixtures", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{name: "yaml", data: yamlFixture, format: FormatYAML},
		{name: "toml", data: tomlFixture, format: FormatTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)

			require.Len(t, f.Authors, 2)
			assert.Equal(t, Author{Username: "root", Email: "root@example.com", Password: "rootpass", Superuser: true}, f.Authors[0])
			assert.Equal(t, "writer", f.Authors[1].Username)

			require.Len(t, f.Posts, 2)
			assert.Equal(t, "welcome", f.Posts[0].Slug)
			assert.True(t, f.Posts[0].Published)
			assert.Contains(t, f.Posts[0].Text, "First post on the blog.")
			assert.Equal(t, "", f.Posts[1].Slug)
			assert.False(t, f.Posts[1].Published)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("authors:\n  - username: root\n    nickname: r\n"), FormatYAML)
	assert.Error(t, err, "unknown YAML fields are rejected")

	_, err = Parse([]byte("[[authors]]\nusername = \"root\"\nnickname = \"r\"\n"), FormatTOML)
	assert.Error(t, err, "unknown TOML keys are rejected")

	_, err = Parse([]byte("posts: [unclosed"), FormatYAML)
	assert.Error(t, err)

	_, err = Parse([]byte("x"), Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	f, err := Parse(nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, f.Posts)
}

func newServices(t *testing.T) (*application.AuthorService, *application.PostService) {
	t.Helper()

	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: filepath.Join(t.TempDir(), "blog.db")})
	require.NoError(t, database.Connect())
	t.Cleanup(func() { database.Close() })

	authorRepo := persistence.NewAuthorRepository(database.DB())
	authors := application.NewAuthorService(authorRepo)
	posts := application.NewPostService(
		persistence.NewPostRepository(database.DB()),
		authorRepo,
		application.NewGate(application.AccessPolicy{RequireAuthForMutation: true}),
		application.NewMarkdownRenderer(),
		application.PostServiceConfig{},
	)
	return authors, posts
}

func TestApply(t *testing.T) {
	authors, posts := newServices(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlFixture), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)

	res, err := Apply(ctx, f, authors, posts)
	require.NoError(t, err)
	assert.Equal(t, Result{AuthorsCreated: 2, PostsCreated: 2}, res)

	welcome, err := posts.GetPost(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, "root", welcome.Author)
	assert.True(t, welcome.IsPublished())

	wip, err := posts.GetPost(ctx, "work-in-progress")
	require.NoError(t, err)
	assert.Equal(t, "writer", wip.Author)
	assert.False(t, wip.IsPublished())

	_, err = authors.Authenticate(ctx, "root", "rootpass")
	assert.NoError(t, err)

	// A second run only skips.
	res, err = Apply(ctx, f, authors, posts)
	require.NoError(t, err)
	assert.Equal(t, Result{AuthorsSkipped: 2, PostsSkipped: 2}, res)
}

func TestApply_UnknownAuthor(t *testing.T) {
	authors, posts := newServices(t)

	f := &Fixture{Posts: []Post{{Author: "ghost", Title: "Boo", Text: "Boo"}}}

	_, err := Apply(context.Background(), f, authors, posts)
	assert.ErrorIs(t, err, domain.ErrAuthorNotFound)
}

func TestApply_InvalidAuthor(t *testing.T) {
	authors, posts := newServices(t)

	f := &Fixture{Authors: []Author{{Username: "x", Password: "short"}}}

	_, err := Apply(context.Background(), f, authors, posts)
	_, ok := domain.AsValidationError(err)
	assert.True(t, ok, "expected validation error, got %v", err)
}
