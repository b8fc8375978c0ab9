// Package web serves the HTML surface of the blog: the post list, detail
// pages, the create/edit/delete forms and login.
package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dfryer1193/inkwell/blog/application"
	"github.com/dfryer1193/inkwell/internal/middleware"
	"github.com/dfryer1193/inkwell/internal/rest"
	"github.com/dfryer1193/inkwell/shared/db"
)

type Options struct {
	Posts        *application.PostService
	Sessions     *application.SessionService
	Markdown     application.MarkdownRenderer
	DB           db.Database
	SecureCookie bool
}

type Server struct {
	posts        *application.PostService
	sessions     *application.SessionService
	markdown     application.MarkdownRenderer
	secureCookie bool
}

// NewRouter builds the gin engine with middleware, the HTML routes, the JSON
// API and the health check.
func NewRouter(opts Options) (*gin.Engine, error) {
	pages, err := newPageRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		posts:        opts.Posts,
		sessions:     opts.Sessions,
		markdown:     opts.Markdown,
		secureCookie: opts.SecureCookie,
	}

	r := gin.New()
	r.HTMLRender = pages
	r.Use(middleware.LoggingMiddleware())
	r.Use(gin.CustomRecovery(middleware.HandlePanics()))

	if opts.DB != nil {
		rest.NewHealthCheck(r, opts.DB)
	}
	rest.NewApi(r, opts.Posts, opts.Markdown)

	site := r.Group("/")
	site.Use(middleware.Identity(opts.Sessions, opts.SecureCookie))
	s.routes(site)

	r.NoRoute(middleware.Identity(opts.Sessions, opts.SecureCookie), func(c *gin.Context) {
		s.renderError(c, http.StatusNotFound)
	})

	return r, nil
}

func (s *Server) routes(r *gin.RouterGroup) {
	requireAuth := middleware.RequireAuth(s.posts.Gate().RequiresAuth())

	r.GET("/", s.listPosts)

	r.GET("/post/new/", requireAuth, s.newPostForm)
	r.POST("/post/new/", requireAuth, s.createPost)

	r.GET("/post/:slug/", s.postDetail)
	r.GET("/post/:slug/edit/", requireAuth, s.editPostForm)
	r.POST("/post/:slug/edit/", requireAuth, s.updatePost)
	r.GET("/post/:slug/delete", requireAuth, s.deletePostForm)
	r.POST("/post/:slug/delete", requireAuth, s.deletePost)
	r.POST("/post/:slug/publish", requireAuth, s.publishPost)

	r.GET("/login", s.loginForm)
	r.POST("/login", s.login)
	r.POST("/logout", s.logout)
}

// render fills the fields every page needs and writes the page.
func (s *Server) render(c *gin.Context, status int, page string, data *HTMLData) {
	if data == nil {
		data = &HTMLData{}
	}

	data.Path = c.Request.URL.Path
	data.CurrentUser = middleware.CurrentAuthor(c)
	data.RequiresAuth = s.posts.Gate().RequiresAuth()

	c.HTML(status, page, data)
}

func (s *Server) renderError(c *gin.Context, status int) {
	s.render(c, status, errorPage, &HTMLData{
		Title:   http.StatusText(status),
		Status:  status,
		Message: errorMessage(status),
	})
}

func errorMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "The page you asked for does not exist."
	case http.StatusForbidden:
		return "You do not have permission to do that."
	default:
		return "Something went wrong on our side."
	}
}

func postURL(slug string) string {
	return fmt.Sprintf("/post/%s/", slug)
}
