package auth

import (
	"context"
	"net/http"
	"time"
)

const (
	TokenCookie = "authToken"
	RoleCookie  = "userRole"
)

// Session is the server-side view of an authenticated caller. Role comes from
// the users table, never from the role cookie.
type Session struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func (s *Session) IsAdmin() bool { return s != nil && s.Role == RoleAdmin }

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

type CookieOpts struct {
	Secure bool
	Domain string
	MaxAge time.Duration
}

// SessionCookies returns the signed token cookie and the plain role marker.
// Both share path and lifetime so browsers drop them together.
func SessionCookies(token, role string, o CookieOpts) []*http.Cookie {
	maxAge := int(o.MaxAge / time.Second)
	return []*http.Cookie{
		{
			Name: TokenCookie, Value: token, Path: "/", Domain: o.Domain,
			MaxAge: maxAge, HttpOnly: true, Secure: o.Secure, SameSite: http.SameSiteLaxMode,
		},
		{
			Name: RoleCookie, Value: role, Path: "/", Domain: o.Domain,
			MaxAge: maxAge, Secure: o.Secure, SameSite: http.SameSiteLaxMode,
		},
	}
}

func ClearCookies(o CookieOpts) []*http.Cookie {
	return []*http.Cookie{
		{Name: TokenCookie, Value: "", Path: "/", Domain: o.Domain, MaxAge: -1, Expires: time.Unix(1, 0), HttpOnly: true, Secure: o.Secure, SameSite: http.SameSiteLaxMode},
		{Name: RoleCookie, Value: "", Path: "/", Domain: o.Domain, MaxAge: -1, Expires: time.Unix(1, 0), Secure: o.Secure, SameSite: http.SameSiteLaxMode},
	}
}
