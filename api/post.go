// Package api holds the JSON shapes served under /api.
package api

import (
	"time"

	"github.com/dfryer1193/inkwell/blog/application"
)

type Post struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Text        string     `json:"text"`
	HTML        string     `json:"html"`
	Snippet     string     `json:"snippet"`
	Published   bool       `json:"published"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func PostFromRendered(p *application.RenderedPost) Post {
	return Post{
		Slug:        p.Slug,
		Title:       p.Title,
		Author:      p.Author,
		Text:        p.Text,
		HTML:        string(p.HTML),
		Snippet:     p.Snippet,
		Published:   p.IsPublished(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		PublishedAt: p.PublishedAt,
	}
}

type Error struct {
	Error string `json:"error"`
}
