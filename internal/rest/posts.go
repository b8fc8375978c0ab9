package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/inkwell/api"
	"github.com/dfryer1193/inkwell/blog/application"
	"github.com/dfryer1193/inkwell/blog/domain"
)

type postsHandler struct {
	posts    PostReader
	markdown application.MarkdownRenderer
}

func (h *postsHandler) GetPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}

	rendered, err := application.RenderPosts(h.markdown, posts)
	if err != nil {
		h.internalError(c, err)
		return
	}

	out := make([]api.Post, 0, len(rendered))
	for _, p := range rendered {
		out = append(out, api.PostFromRendered(p))
	}

	c.JSON(http.StatusOK, out)
}

func (h *postsHandler) GetPost(c *gin.Context) {
	post, err := h.posts.GetPost(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, domain.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, api.Error{Error: "post not found"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	rendered, err := h.markdown.Render(post)
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.PostFromRendered(rendered))
}

func (h *postsHandler) internalError(c *gin.Context, err error) {
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("API request failed")
	c.JSON(http.StatusInternalServerError, api.Error{Error: "internal server error"})
}
