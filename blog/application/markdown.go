package application

import (
	"bytes"
	"fmt"
	"html/template"
	"path"
	"strings"

	"github.com/gosimple/slug"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dfryer1193/inkwell/blog/domain"
)

const snippetLength = 200

// RenderedPost is a post together with its presentation form.
type RenderedPost struct {
	*domain.Post
	HTML    template.HTML
	Snippet string
}

// postLinkTransformer points relative links such as "./other-post" or
// "../drafts/other-post.md" at the detail page of the post with that slug.
type postLinkTransformer struct{}

func (t *postLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}

		dest := string(link.Destination)
		if !isRelativeLink(dest) {
			return ast.WalkContinue, nil
		}

		target := path.Base(dest)
		target = strings.TrimSuffix(target, ".md")
		target = strings.TrimSuffix(target, ".html")
		if target == "" || target == "." || target == "/" {
			return ast.WalkContinue, nil
		}

		link.Destination = []byte("/post/" + slug.Make(target) + "/")
		return ast.WalkContinue, nil
	})
}

// isRelativeLink reports links written as paths relative to the current post.
// Site-absolute paths and anything with a scheme are left alone.
func isRelativeLink(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "#") {
		return false
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	if strings.Contains(dest, ":") || strings.Contains(dest, "?") {
		return false
	}

	return !strings.Contains(dest, ".") || strings.HasSuffix(dest, ".md")
}

// MarkdownRenderer defines the interface for converting post text to HTML.
type MarkdownRenderer interface {
	Render(post *domain.Post) (*RenderedPost, error)
}

type goldmarkRenderer struct {
	md goldmark.Markdown
}

func NewMarkdownRenderer() MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&postLinkTransformer{}, 100),
			),
		),
		// Raw HTML in post text is escaped, not rendered.
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &goldmarkRenderer{md: md}
}

func (r *goldmarkRenderer) Render(post *domain.Post) (*RenderedPost, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(post.Text), &buf); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	return &RenderedPost{
		Post:    post,
		HTML:    template.HTML(buf.String()),
		Snippet: extractSnippet(post.Text),
	}, nil
}

// RenderPosts renders every post, stopping at the first failure.
func RenderPosts(r MarkdownRenderer, posts []*domain.Post) ([]*RenderedPost, error) {
	rendered := make([]*RenderedPost, 0, len(posts))
	for _, p := range posts {
		rp, err := r.Render(p)
		if err != nil {
			return nil, fmt.Errorf("failed to render post %s: %w", p.Slug, err)
		}
		rendered = append(rendered, rp)
	}
	return rendered, nil
}

// extractSnippet returns the first paragraph of plain prose, cut at a word
// boundary near snippetLength.
func extractSnippet(markdown string) string {
	lines := strings.Split(markdown, "\n")
	var paragraphLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Skip headings before we find content
		if strings.HasPrefix(trimmed, "#") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		if trimmed == "" {
			if len(paragraphLines) > 0 {
				break // End of first paragraph
			}
			continue
		}

		// Stop at code blocks, horizontal rules, lists, tables
		if strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, "---") ||
			strings.HasPrefix(trimmed, "***") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "+ ") ||
			strings.HasPrefix(trimmed, "|") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		paragraphLines = append(paragraphLines, trimmed)
	}

	if len(paragraphLines) == 0 {
		return ""
	}

	snippet := strings.Join(paragraphLines, " ")

	runes := []rune(snippet)
	if len(runes) > snippetLength {
		snippet = string(runes[:snippetLength])
		if lastSpace := strings.LastIndexAny(snippet, " \t"); lastSpace > 0 {
			snippet = snippet[:lastSpace]
		}
		snippet += "..."
	}

	return snippet
}
