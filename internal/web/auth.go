package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/inkwell/blog/domain"
	"github.com/dfryer1193/inkwell/internal/middleware"
)

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

func (s *Server) loginForm(c *gin.Context) {
	s.render(c, http.StatusOK, loginPage, &HTMLData{
		Title: "Log in",
		Next:  safeNext(c.Query("next")),
	})
}

func (s *Server) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}

	session, author, err := s.sessions.Login(c.Request.Context(), form.Username, form.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		s.render(c, http.StatusOK, loginPage, &HTMLData{
			Title:     "Log in",
			Next:      safeNext(form.Next),
			FormError: "Please enter a correct username and password.",
			FormData:  map[string]string{"username": form.Username},
		})
		return
	}
	if err != nil {
		s.handleError(c, err)
		return
	}

	middleware.SetSessionCookie(c, session.Token, int(s.sessions.TTL().Seconds()), s.secureCookie)
	log.Debug().Str("username", author.Username).Str("requestID", middleware.RequestID(c)).Msg("Session cookie set")

	c.Redirect(http.StatusFound, safeNext(form.Next))
}

func (s *Server) logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookie); err == nil {
		if err := s.sessions.Logout(c.Request.Context(), token); err != nil {
			log.Error().Err(err).Msg("Failed to delete session")
		}
	}

	middleware.ClearSessionCookie(c, s.secureCookie)
	c.Redirect(http.StatusFound, "/")
}

// safeNext keeps redirects on this site. Browsers drop tabs and newlines
// from a Location before resolving it, so any control character is refused
// along with scheme-relative and backslash paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	if strings.ContainsFunc(next, isControl) {
		return "/"
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
