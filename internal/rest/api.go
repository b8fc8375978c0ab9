package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/inkwell/blog/application"
	"github.com/dfryer1193/inkwell/blog/domain"
)

// PostReader is the read side of the post service.
type PostReader interface {
	ListPosts(ctx context.Context) ([]*domain.Post, error)
	GetPost(ctx context.Context, slug string) (*domain.Post, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewApi(router gin.IRouter, posts PostReader, markdown application.MarkdownRenderer) {
	h := &postsHandler{posts: posts, markdown: markdown}

	postsV1 := router.Group("api/posts/v1")
	{
		postsV1.GET("/", h.GetPosts)
		postsV1.GET("/:slug", h.GetPost)
	}
}

// NewHealthCheck answers 200 while the database responds to pings.
func NewHealthCheck(router gin.IRouter, db Pinger) {
	router.GET("/healthz", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
