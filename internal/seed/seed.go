// Package seed loads authors and posts from a YAML or TOML fixture file.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/dfryer1193/inkwell/blog/application"
	"github.com/dfryer1193/inkwell/blog/domain"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var ErrUnsupportedFormat = errors.New("unsupported fixture format")

type Fixture struct {
	Authors []Author `yaml:"authors" toml:"authors"`
	Posts   []Post   `yaml:"posts" toml:"posts"`
}

type Author struct {
	Username  string `yaml:"username" toml:"username"`
	Email     string `yaml:"email,omitempty" toml:"email,omitempty"`
	Password  string `yaml:"password" toml:"password"`
	Superuser bool   `yaml:"superuser,omitempty" toml:"superuser,omitempty"`
}

type Post struct {
	Author    string `yaml:"author" toml:"author"`
	Title     string `yaml:"title" toml:"title"`
	Slug      string `yaml:"slug,omitempty" toml:"slug,omitempty"`
	Text      string `yaml:"text" toml:"text"`
	Published bool   `yaml:"published,omitempty" toml:"published,omitempty"`
}

// FormatFromPath picks the decoder from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func LoadFile(path string) (*Fixture, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	return Parse(data, format)
}

func Parse(data []byte, format Format) (*Fixture, error) {
	var fixture Fixture

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fixture); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML fixture: %w", err)
		}

	case FormatTOML:
		md, err := toml.Decode(string(data), &fixture)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML fixture: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to parse TOML fixture: unknown keys %v", undecoded)
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return &fixture, nil
}

// Result counts what Apply created and what it left alone because it
// already existed.
type Result struct {
	AuthorsCreated int
	AuthorsSkipped int
	PostsCreated   int
	PostsSkipped   int
}

// Apply creates the fixture's authors, then its posts in file order. Authors
// whose username is taken and posts whose slug exists are skipped, so a
// fixture can be applied repeatedly.
func Apply(ctx context.Context, f *Fixture, authors *application.AuthorService, posts *application.PostService) (Result, error) {
	var res Result

	for _, a := range f.Authors {
		_, err := authors.GetAuthorByUsername(ctx, a.Username)
		if err == nil {
			res.AuthorsSkipped++
			log.Debug().Str("username", a.Username).Msg("Author exists, skipping")
			continue
		}
		if !errors.Is(err, domain.ErrAuthorNotFound) {
			return res, fmt.Errorf("failed to look up author %s: %w", a.Username, err)
		}

		if _, err := authors.CreateAuthor(ctx, application.AuthorInput{
			Username:  a.Username,
			Email:     a.Email,
			Password:  a.Password,
			Superuser: a.Superuser,
		}); err != nil {
			return res, fmt.Errorf("failed to seed author %s: %w", a.Username, err)
		}
		res.AuthorsCreated++
	}

	for i, p := range f.Posts {
		author, err := authors.GetAuthorByUsername(ctx, p.Author)
		if err != nil {
			return res, fmt.Errorf("post %d (%s): failed to find author %q: %w", i, p.Title, p.Author, err)
		}

		postSlug := strings.TrimSpace(p.Slug)
		if postSlug == "" {
			postSlug = slug.Make(p.Title)
		}
		_, err = posts.GetPost(ctx, postSlug)
		if err == nil {
			res.PostsSkipped++
			log.Debug().Str("slug", postSlug).Msg("Post exists, skipping")
			continue
		}
		if !errors.Is(err, domain.ErrPostNotFound) {
			return res, fmt.Errorf("failed to look up post %s: %w", postSlug, err)
		}

		if _, err := posts.Create(ctx, author, domain.PostInput{
			Title: p.Title,
			Slug:  postSlug,
			Text:  p.Text,
		}, p.Published); err != nil {
			return res, fmt.Errorf("failed to seed post %d (%s): %w", i, p.Title, err)
		}
		res.PostsCreated++
	}

	log.Info().
		Int("authorsCreated", res.AuthorsCreated).
		Int("authorsSkipped", res.AuthorsSkipped).
		Int("postsCreated", res.PostsCreated).
		Int("postsSkipped", res.PostsSkipped).
		Msg("Fixture applied")

	return res, nil
}
