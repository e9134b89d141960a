package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quartz-storefront/internal/core/auth"
	resp "quartz-storefront/internal/transport/http/response"
)

// SessionResolver turns a session token into a verified session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Session, error)
}

// TokenFrom reads the session token from the auth cookie, falling back to a
// Bearer header for non-browser clients.
func TokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(auth.TokenCookie); err == nil && v != "" {
		return v
	}
	if ah := c.GetHeader("Authorization"); strings.HasPrefix(ah, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(ah, "Bearer "))
	}
	return ""
}

func attach(c *gin.Context, s *auth.Session) {
	c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), s))
}

// CurrentSession returns the session placed on the request by one of the
// middlewares below.
func CurrentSession(c *gin.Context) (*auth.Session, bool) {
	return auth.SessionFrom(c.Request.Context())
}

// Session resolves a token when one is present and never rejects.
func Session(r SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := TokenFrom(c); tok != "" {
			if s, err := r.Resolve(c.Request.Context(), tok); err == nil {
				attach(c, s)
			}
		}
		c.Next()
	}
}

// RequireAdmin re-derives the caller from the signed token and answers 401
// unless the stored role is ADMIN. The role cookie is ignored.
func RequireAdmin(r SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := r.Resolve(c.Request.Context(), TokenFrom(c))
		if err != nil || !s.IsAdmin() {
			resp.Unauthorized(c)
			return
		}
		attach(c, s)
		c.Next()
	}
}

// AdminGuard protects every path under prefix except the listed public ones.
// The role marker cookie must say ADMIN and the signed token must resolve to
// a user whose stored role is ADMIN; anything else redirects to loginPath.
func AdminGuard(r SessionResolver, prefix, loginPath string, public ...string) gin.HandlerFunc {
	open := map[string]struct{}{loginPath: {}}
	for _, p := range public {
		open[p] = struct{}{}
	}
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if !underPrefix(p, prefix) {
			c.Next()
			return
		}
		if _, ok := open[strings.TrimRight(p, "/")]; ok {
			c.Next()
			return
		}
		role, _ := c.Cookie(auth.RoleCookie)
		tok := TokenFrom(c)
		if tok == "" || role != auth.RoleAdmin {
			redirect(c, loginPath)
			return
		}
		s, err := r.Resolve(c.Request.Context(), tok)
		if err != nil || !s.IsAdmin() {
			redirect(c, loginPath)
			return
		}
		attach(c, s)
		c.Next()
	}
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, strings.TrimRight(prefix, "/")+"/")
}

func redirect(c *gin.Context, to string) {
	c.Redirect(http.StatusFound, to)
	c.Abort()
}
