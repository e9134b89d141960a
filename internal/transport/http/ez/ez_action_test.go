package ez

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"quartz-storefront/internal/core/auth"
	"quartz-storefront/internal/core/errs"
)

func init() { gin.SetMode(gin.TestMode) }

type echoIn struct {
	Name string `json:"name" binding:"required"`
}

func engine(sess *auth.Session) *gin.Engine {
	r := gin.New()
	if sess != nil {
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), sess))
		})
	}
	e := New(r.Group("/"), nil)
	RegisterAction(e, Action[echoIn, echoIn]{
		Method: http.MethodPost, Path: "/echo", Binder: BindJSON, Status: http.StatusCreated,
		Handler: func(_ *gin.Context, in *echoIn) (echoIn, error) {
			if in.Name == "taken" {
				return echoIn{}, errs.ConflictMsg("name taken")
			}
			return *in, nil
		},
	})
	RegisterAction(e, Action[struct{}, string]{
		Method: http.MethodGet, Path: "/admin-only", Binder: BindNone, Auth: true, Roles: []string{auth.RoleAdmin},
		Handler: func(*gin.Context, *struct{}) (string, error) { return "ok", nil },
	})
	return r
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterActionBindsAndWraps(t *testing.T) {
	r := engine(nil)

	w := send(r, http.MethodPost, "/echo", `{"name":"rose"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"code":"OK","data":{"name":"rose"}}`, w.Body.String())

	w = send(r, http.MethodPost, "/echo", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ValidationFailed")

	w = send(r, http.MethodPost, "/echo", ``)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPost, "/echo", `{"name":"taken"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"success":false,"code":"Conflict","error":"name taken"}`, w.Body.String())
}

func TestRegisterActionAuthAndRoles(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, send(engine(nil), http.MethodGet, "/admin-only", "").Code)
	assert.Equal(t, http.StatusForbidden, send(engine(&auth.Session{UserID: "u", Role: auth.RoleUser}), http.MethodGet, "/admin-only", "").Code)
	assert.Equal(t, http.StatusOK, send(engine(&auth.Session{UserID: "a", Role: auth.RoleAdmin}), http.MethodGet, "/admin-only", "").Code)
}
