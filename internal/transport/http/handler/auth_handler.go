package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quartz-storefront/internal/core/auth"
	"quartz-storefront/internal/core/errs"
	"quartz-storefront/internal/service"
	httpez "quartz-storefront/internal/transport/http/ez"
	mdw "quartz-storefront/internal/transport/http/middleware"
)

type AuthHandler struct {
	svc     Accounts
	cookies auth.CookieOpts
	submit  []gin.HandlerFunc
	log     *zap.Logger
}

func NewAuthHandler(svc Accounts, cookies auth.CookieOpts, l *zap.Logger, submit ...gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies, submit: submit, log: l}
}

func (h *AuthHandler) Priority() int { return 0 }

type loggedOut struct {
	LoggedOut bool `json:"loggedOut"`
}

type passwordChanged struct {
	Updated bool `json:"updated"`
}

type loginPage struct {
	Authenticated bool                `json:"authenticated"`
	User          *service.PublicUser `json:"user,omitempty"`
}

func (h *AuthHandler) login(c *gin.Context, in *service.LoginInput, adminOnly bool) (*service.AuthResult, error) {
	res, err := h.svc.Login(c.Request.Context(), *in)
	if err == nil && adminOnly && res.User.Role != auth.RoleAdmin {
		err = errs.Forbidden("admin access required")
	}
	if err != nil {
		mdw.Logins.WithLabelValues("failure").Inc()
		return nil, err
	}
	mdw.Logins.WithLabelValues("success").Inc()
	setCookies(c, auth.SessionCookies(res.Token, res.User.Role, h.cookies))
	return res, nil
}

func (h *AuthHandler) logout(c *gin.Context, _ *none) (loggedOut, error) {
	setCookies(c, auth.ClearCookies(h.cookies))
	return loggedOut{LoggedOut: true}, nil
}

func (h *AuthHandler) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g.Group("/auth"), h.log)

	httpez.RegisterAction(ez, httpez.Action[service.LoginInput, *service.AuthResult]{
		Method: http.MethodPost, Path: "/login", Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.LoginInput) (*service.AuthResult, error) {
			return h.login(c, in, false)
		},
	}, h.submit...)
	httpez.RegisterAction(ez, httpez.Action[service.RegisterInput, *service.AuthResult]{
		Method: http.MethodPost, Path: "/register", Binder: httpez.BindJSON, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.RegisterInput) (*service.AuthResult, error) {
			res, err := h.svc.Register(c.Request.Context(), *in)
			if err != nil {
				return nil, err
			}
			mdw.Submissions.WithLabelValues("register").Inc()
			setCookies(c, auth.SessionCookies(res.Token, res.User.Role, h.cookies))
			return res, nil
		},
	}, h.submit...)
	httpez.RegisterAction(ez, httpez.Action[none, loggedOut]{
		Method: http.MethodPost, Path: "/logout", Binder: httpez.BindNone, Handler: h.logout,
	})
	httpez.RegisterAction(ez, httpez.Action[none, *service.PublicUser]{
		Method: http.MethodGet, Path: "/me", Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *none) (*service.PublicUser, error) {
			return h.svc.CurrentUser(c.Request.Context(), mdw.TokenFrom(c))
		},
	})
}

// MountAdmin serves the public login page and the guarded account routes.
func (h *AuthHandler) MountAdmin(g *gin.RouterGroup) {
	ez := httpez.New(g, h.log)

	httpez.RegisterAction(ez, httpez.Action[none, loginPage]{
		Method: http.MethodGet, Path: "/login", Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *none) (loginPage, error) {
			s, err := h.svc.Resolve(c.Request.Context(), mdw.TokenFrom(c))
			if err != nil || !s.IsAdmin() {
				return loginPage{}, nil
			}
			return loginPage{Authenticated: true, User: &service.PublicUser{ID: s.UserID, Email: s.Email, Name: s.Name, Role: s.Role}}, nil
		},
	})
	httpez.RegisterAction(ez, httpez.Action[service.LoginInput, *service.AuthResult]{
		Method: http.MethodPost, Path: "/login", Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.LoginInput) (*service.AuthResult, error) {
			return h.login(c, in, true)
		},
	}, h.submit...)
	httpez.RegisterAction(ez, httpez.Action[none, loggedOut]{
		Method: http.MethodPost, Path: "/logout", Binder: httpez.BindNone, Handler: h.logout,
	})
	httpez.RegisterAction(ez, httpez.Action[none, *auth.Session]{
		Method: http.MethodGet, Path: "/me", Binder: httpez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *none) (*auth.Session, error) {
			s, _ := mdw.CurrentSession(c)
			return s, nil
		},
	})
	httpez.RegisterAction(ez, httpez.Action[service.PasswordInput, passwordChanged]{
		Method: http.MethodPut, Path: "/password", Binder: httpez.BindJSON, Auth: true, Roles: []string{auth.RoleAdmin},
		Handler: func(c *gin.Context, in *service.PasswordInput) (passwordChanged, error) {
			s, _ := mdw.CurrentSession(c)
			if err := h.svc.UpdatePassword(c.Request.Context(), s, *in); err != nil {
				return passwordChanged{}, err
			}
			return passwordChanged{Updated: true}, nil
		},
	})
}
