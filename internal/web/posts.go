package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/inkwell/blog/application"
	"github.com/dfryer1193/inkwell/blog/domain"
	"github.com/dfryer1193/inkwell/internal/middleware"
)

type postForm struct {
	Title   string `form:"title"`
	Slug    string `form:"slug"`
	Text    string `form:"text"`
	Publish string `form:"publish"`
}

func (f postForm) input() domain.PostInput {
	return domain.PostInput{Title: f.Title, Slug: f.Slug, Text: f.Text}
}

func (f postForm) data() map[string]string {
	return map[string]string{
		"title":   f.Title,
		"slug":    f.Slug,
		"text":    f.Text,
		"publish": f.Publish,
	}
}

func formFromPost(p *domain.Post) map[string]string {
	return map[string]string{
		"title": p.Title,
		"slug":  p.Slug,
		"text":  p.Text,
	}
}

func (s *Server) listPosts(c *gin.Context) {
	posts, err := s.posts.ListPosts(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}

	rendered, err := application.RenderPosts(s.markdown, posts)
	if err != nil {
		s.handleError(c, err)
		return
	}

	s.render(c, http.StatusOK, listPage, &HTMLData{Title: "Posts", Posts: rendered})
}

func (s *Server) postDetail(c *gin.Context) {
	post, err := s.posts.GetPost(c.Request.Context(), c.Param("slug"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	rendered, err := s.markdown.Render(post)
	if err != nil {
		s.handleError(c, err)
		return
	}

	caller := middleware.Caller(c)
	gate := s.posts.Gate()
	canMutate := (caller.IsAuthenticated() || !gate.RequiresAuth()) && gate.CanMutate(caller, post)

	s.render(c, http.StatusOK, detailPage, &HTMLData{
		Title:     post.Title,
		Post:      rendered,
		CanMutate: canMutate,
	})
}

func (s *Server) newPostForm(c *gin.Context) {
	s.render(c, http.StatusOK, formPage, &HTMLData{
		Title:  "New post",
		Action: "/post/new/",
		IsNew:  true,
	})
}

func (s *Server) createPost(c *gin.Context) {
	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}

	post, err := s.posts.Create(c.Request.Context(), middleware.Caller(c), form.input(), form.Publish != "")
	if verr, ok := domain.AsValidationError(err); ok {
		s.render(c, http.StatusOK, formPage, &HTMLData{
			Title:    "New post",
			Action:   "/post/new/",
			IsNew:    true,
			FormData: form.data(),
			Errors:   verr.Fields,
		})
		return
	}
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, s.afterSaveURL(post))
}

func (s *Server) editPostForm(c *gin.Context) {
	post, err := s.mutablePost(c)
	if err != nil {
		s.handleError(c, err)
		return
	}

	s.render(c, http.StatusOK, formPage, &HTMLData{
		Title:    "Edit post",
		Action:   "/post/" + post.Slug + "/edit/",
		FormData: formFromPost(post),
	})
}

func (s *Server) updatePost(c *gin.Context) {
	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}

	postSlug := c.Param("slug")
	post, err := s.posts.Update(c.Request.Context(), middleware.Caller(c), postSlug, form.input())
	if verr, ok := domain.AsValidationError(err); ok {
		s.render(c, http.StatusOK, formPage, &HTMLData{
			Title:    "Edit post",
			Action:   "/post/" + postSlug + "/edit/",
			FormData: form.data(),
			Errors:   verr.Fields,
		})
		return
	}
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, s.afterSaveURL(post))
}

func (s *Server) deletePostForm(c *gin.Context) {
	post, err := s.mutablePost(c)
	if err != nil {
		s.handleError(c, err)
		return
	}

	rendered, err := s.markdown.Render(post)
	if err != nil {
		s.handleError(c, err)
		return
	}

	s.render(c, http.StatusOK, deletePage, &HTMLData{Title: "Delete post", Post: rendered})
}

func (s *Server) deletePost(c *gin.Context) {
	if err := s.posts.Delete(c.Request.Context(), middleware.Caller(c), c.Param("slug")); err != nil {
		s.handleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (s *Server) publishPost(c *gin.Context) {
	post, err := s.posts.Publish(c.Request.Context(), middleware.Caller(c), c.Param("slug"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, postURL(post.Slug))
}

// mutablePost loads the post for a form page and applies the same checks a
// submission would, so forms are never shown to callers who cannot submit.
func (s *Server) mutablePost(c *gin.Context) (*domain.Post, error) {
	post, err := s.posts.GetPost(c.Request.Context(), c.Param("slug"))
	if err != nil {
		return nil, err
	}

	caller, err := s.posts.Gate().RequireAuthenticated(middleware.Caller(c))
	if err != nil {
		return nil, err
	}
	if !s.posts.Gate().CanMutate(caller, post) {
		return nil, domain.ErrPermissionDenied
	}

	return post, nil
}

// afterSaveURL sends authenticated deployments back to the list and open
// ones to the post itself.
func (s *Server) afterSaveURL(post *domain.Post) string {
	if s.posts.Gate().RequiresAuth() {
		return "/"
	}
	return postURL(post.Slug)
}

func (s *Server) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrPostNotFound):
		s.renderError(c, http.StatusNotFound)
	case errors.Is(err, domain.ErrPermissionDenied):
		if !middleware.Caller(c).IsAuthenticated() {
			c.Redirect(http.StatusFound, middleware.LoginURL(c.Request.URL.RequestURI()))
			return
		}
		s.renderError(c, http.StatusForbidden)
	default:
		_ = c.Error(err)
		log.Error().
			Err(err).
			Str("requestID", middleware.RequestID(c)).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		s.renderError(c, http.StatusInternalServerError)
	}
}
