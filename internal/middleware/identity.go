package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/inkwell/blog/domain"
)

const (
	SessionCookie = "inkwell_session"
	identityKey   = "identity"
)

// SessionResolver maps a session token to the author who owns it.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Author, error)
}

// Identity loads the caller from the session cookie. Requests without a valid
// session continue as domain.Anonymous. Stale cookies are cleared with the
// same secure attribute they were set with.
func Identity(sessions SessionResolver, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var caller domain.Identity = domain.Anonymous{}

		if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
			author, err := sessions.Resolve(c.Request.Context(), token)
			switch {
			case err == nil:
				caller = author
			case errors.Is(err, domain.ErrSessionNotFound),
				errors.Is(err, domain.ErrSessionExpired),
				errors.Is(err, domain.ErrAuthorNotFound):
				ClearSessionCookie(c, secureCookie)
			default:
				log.Error().Err(err).Str("requestID", RequestID(c)).Msg("Failed to resolve session")
			}
		}

		c.Set(identityKey, caller)
		c.Next()
	}
}

// Caller returns the identity stored by Identity, or domain.Anonymous.
func Caller(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(domain.Identity); ok {
			return id
		}
	}
	return domain.Anonymous{}
}

// CurrentAuthor returns the logged-in author, or nil for anonymous callers.
func CurrentAuthor(c *gin.Context) *domain.Author {
	author, _ := Caller(c).(*domain.Author)
	return author
}

// RequireAuth sends anonymous callers to the login page when enabled is set.
func RequireAuth(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if enabled && !Caller(c).IsAuthenticated() {
			c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

func LoginURL(next string) string {
	return "/login?next=" + url.QueryEscape(next)
}

func SetSessionCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", secure, true)
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}
