package ez

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quartz-storefront/internal/core/auth"
	"quartz-storefront/internal/core/errs"
	resp "quartz-storefront/internal/transport/http/response"
	"quartz-storefront/pkg/validate"
)

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none"
)

// EZ wraps a router group so handlers only deal with typed input and output.
type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// Action declares one endpoint. I is bound from the request, O is written as
// the envelope data. Status defaults to 200.
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool     // requires a session on the request context
	Roles   []string // allowed stored roles; empty means any
	Status  int
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction mounts a on the group behind the optional middlewares.
func RegisterAction[I any, O any](e EZ, a Action[I, O], mw ...gin.HandlerFunc) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		if a.Auth {
			s, ok := auth.SessionFrom(c.Request.Context())
			if !ok {
				resp.Unauthorized(c)
				return
			}
			if len(a.Roles) > 0 && !hasRole(s.Role, a.Roles) {
				resp.Abort(c, e.log, errs.Forbidden("forbidden"))
				return
			}
		}

		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp.Fail(resp.CodeTooLarge, "request body too large"))
				return
			}
			resp.Abort(c, e.log, err)
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			resp.Abort(c, e.log, err)
			return
		}
		if status == http.StatusNoContent {
			c.Status(status)
			return
		}
		resp.JSON(c, status, out)
	}

	handlers := append(append([]gin.HandlerFunc{}, mw...), h)
	e.g.Handle(strings.ToUpper(a.Method), a.Path, handlers...)
}

func bind(c *gin.Context, b Binder, in any) error {
	var err error
	switch b {
	case BindJSON:
		err = c.ShouldBindJSON(in)
		if errors.Is(err, io.EOF) {
			return errs.Validation("request body is required")
		}
	case BindQuery:
		err = c.ShouldBindQuery(in)
	default:
		return nil
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return err
	}
	return validate.Translate(err)
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
