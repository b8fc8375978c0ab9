package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength = 200
	MaxSlugLength  = 255
)

// slugPattern is the character set of a slug; separators may lead or trail.
var slugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Post represents a blog post.
// A post with a nil PublishedAt is a draft; publishing is one-way.
type Post struct {
	ID       int64
	AuthorID int64
	// Author is the username of the author. It is populated on reads only.
	Author      string
	Title       string
	Slug        string
	Text        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
}

// IsPublished reports whether the post has left the draft state.
func (p *Post) IsPublished() bool {
	return p.PublishedAt != nil
}

// Publish marks the post as published at the given time.
func (p *Post) Publish(now time.Time) {
	p.PublishedAt = &now
}

// Touch refreshes UpdatedAt, never moving it backwards.
func (p *Post) Touch(now time.Time) {
	if now.Before(p.UpdatedAt) {
		now = p.UpdatedAt
	}
	p.UpdatedAt = now
}

// Validate checks the fields a post needs before it can be stored.
func (p *Post) Validate() error {
	verr := NewValidationError()

	title := strings.TrimSpace(p.Title)
	switch {
	case title == "":
		verr.Add("title", "This field is required.")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		verr.Add("title", "Ensure this value has at most 200 characters.")
	}

	switch {
	case strings.TrimSpace(p.Slug) == "":
		verr.Add("slug", "This field is required.")
	case len(p.Slug) > MaxSlugLength || !slugPattern.MatchString(p.Slug):
		verr.Add("slug", "Enter a valid slug consisting of lowercase letters, numbers, underscores or hyphens.")
	}

	if strings.TrimSpace(p.Text) == "" {
		verr.Add("text", "This field is required.")
	}

	if p.AuthorID == 0 {
		verr.Add("author", "This field is required.")
	}

	return verr.OrNil()
}

// PostInput carries the user editable fields of a post.
type PostInput struct {
	Title string
	Slug  string
	Text  string
}

type PostRepository interface {
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	// List returns every post, drafts included, in creation order.
	List(ctx context.Context) ([]*Post, error)
	// Save inserts the post when its ID is zero and updates it otherwise.
	// UpdatedAt is refreshed on every call, CreatedAt only on insert.
	Save(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	CountByAuthor(ctx context.Context, authorID int64) (int, error)
}
