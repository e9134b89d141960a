package router

import (
	"github.com/gin-gonic/gin"

	mdw "quartz-storefront/internal/transport/http/middleware"
)

// NewAPIEngine serves the storefront under /api/v1. A valid session is
// attached when present; routes that need one check it themselves.
func NewAPIEngine(d Deps, static ...StaticDir) *gin.Engine {
	r := baseEngine(d)
	for _, s := range static {
		r.Static(s.URLPath, s.Dir)
	}

	api := r.Group("/api/v1")
	api.Use(mdw.Session(d.Resolver))
	d.Modules.MountAllAPI(api)
	return r
}

// StaticDir exposes files written by the local media driver.
type StaticDir struct {
	URLPath string
	Dir     string
}
