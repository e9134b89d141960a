package router

import (
	"github.com/gin-gonic/gin"

	mdw "quartz-storefront/internal/transport/http/middleware"
)

const (
	AdminPrefix = "/admin"
	AdminLogin  = AdminPrefix + "/login"
)

// NewAdminEngine serves the back office. The guard runs on the engine so it
// also covers unknown /admin paths.
func NewAdminEngine(d Deps) *gin.Engine {
	r := baseEngine(d)
	r.Use(mdw.AdminGuard(d.Resolver, AdminPrefix, AdminLogin))

	admin := r.Group(AdminPrefix)
	d.Modules.MountAllAdmin(admin)
	return r
}
