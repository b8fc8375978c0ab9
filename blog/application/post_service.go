package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/inkwell/blog/domain"
)

// PostService runs the post lifecycle: create, update, publish and delete,
// plus the read-only list and detail queries.
type PostService struct {
	repo     domain.PostRepository
	authors  domain.AuthorRepository
	gate     *Gate
	markdown MarkdownRenderer

	// defaultAuthor receives posts created by anonymous callers when the
	// gate lets them through.
	defaultAuthor string

	now func() time.Time
}

type PostServiceConfig struct {
	DefaultAuthor string
}

func NewPostService(
	repo domain.PostRepository,
	authors domain.AuthorRepository,
	gate *Gate,
	markdown MarkdownRenderer,
	cfg PostServiceConfig,
) *PostService {
	return &PostService{
		repo:          repo,
		authors:       authors,
		gate:          gate,
		markdown:      markdown,
		defaultAuthor: cfg.DefaultAuthor,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Gate exposes the access policy so transports can pick redirect targets.
func (s *PostService) Gate() *Gate {
	return s.gate
}

// ListPosts returns every post, drafts included, oldest first.
func (s *PostService) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetPost returns the post with the given slug or domain.ErrPostNotFound.
func (s *PostService) GetPost(ctx context.Context, postSlug string) (*domain.Post, error) {
	return s.repo.GetBySlug(ctx, postSlug)
}

// Create stores a new post attributed to the caller. The post starts as a
// draft unless publishImmediately is set.
func (s *PostService) Create(ctx context.Context, caller domain.Identity, in domain.PostInput, publishImmediately bool) (*domain.Post, error) {
	caller, err := s.gate.RequireAuthenticated(caller)
	if err != nil {
		return nil, err
	}

	authorID, err := s.resolveAuthor(ctx, caller)
	if err != nil {
		return nil, err
	}

	in = normalizeInput(in)
	if in.Slug == "" {
		in.Slug = slug.Make(in.Title)
	}

	now := s.now()
	post := &domain.Post{
		AuthorID:  authorID,
		Title:     in.Title,
		Slug:      in.Slug,
		Text:      in.Text,
		CreatedAt: now,
	}
	if publishImmediately {
		post.Publish(now)
	}

	if err := s.repo.Save(ctx, post); err != nil {
		return nil, err
	}

	log.Info().
		Str("slug", post.Slug).
		Int64("authorID", post.AuthorID).
		Bool("published", post.IsPublished()).
		Msg("Post created")

	return post, nil
}

// Update replaces the title and text of a post. A non-empty slug in the input
// renames the post. The publish state is left alone.
func (s *PostService) Update(ctx context.Context, caller domain.Identity, postSlug string, in domain.PostInput) (*domain.Post, error) {
	post, err := s.mutable(ctx, caller, postSlug)
	if err != nil {
		return nil, err
	}

	in = normalizeInput(in)
	post.Title = in.Title
	post.Text = in.Text
	if in.Slug != "" {
		post.Slug = in.Slug
	}

	if err := s.repo.Save(ctx, post); err != nil {
		return nil, err
	}

	log.Info().Str("slug", post.Slug).Msg("Post updated")

	return post, nil
}

// Publish moves a post to the published state. Publishing an already
// published post refreshes its publish date and keeps it published.
func (s *PostService) Publish(ctx context.Context, caller domain.Identity, postSlug string) (*domain.Post, error) {
	post, err := s.mutable(ctx, caller, postSlug)
	if err != nil {
		return nil, err
	}

	post.Publish(s.now())
	if err := s.repo.Save(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to publish post %s: %w", postSlug, err)
	}

	log.Info().Str("slug", post.Slug).Time("publishedAt", *post.PublishedAt).Msg("Post published")

	return post, nil
}

// Delete removes a post permanently.
func (s *PostService) Delete(ctx context.Context, caller domain.Identity, postSlug string) error {
	post, err := s.mutable(ctx, caller, postSlug)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, post.ID); err != nil {
		return fmt.Errorf("failed to delete post %s: %w", postSlug, err)
	}

	log.Info().Str("slug", postSlug).Msg("Post deleted")

	return nil
}

// mutable fetches the post and checks that caller may change it.
func (s *PostService) mutable(ctx context.Context, caller domain.Identity, postSlug string) (*domain.Post, error) {
	post, err := s.repo.GetBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}

	caller, err = s.gate.RequireAuthenticated(caller)
	if err != nil {
		return nil, err
	}

	if !s.gate.CanMutate(caller, post) {
		return nil, domain.ErrPermissionDenied
	}

	return post, nil
}

func (s *PostService) resolveAuthor(ctx context.Context, caller domain.Identity) (int64, error) {
	if caller.IsAuthenticated() {
		return caller.AuthorID(), nil
	}

	if s.defaultAuthor == "" {
		return 0, domain.FieldError("author", "Log in or configure a default author to create posts.")
	}

	author, err := s.authors.GetByUsername(ctx, s.defaultAuthor)
	if errors.Is(err, domain.ErrAuthorNotFound) {
		return 0, domain.FieldError("author", "The default author does not exist.")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve default author: %w", err)
	}

	return author.ID, nil
}

func normalizeInput(in domain.PostInput) domain.PostInput {
	return domain.PostInput{
		Title: strings.TrimSpace(in.Title),
		Slug:  strings.TrimSpace(in.Slug),
		Text:  strings.TrimSpace(in.Text),
	}
}
