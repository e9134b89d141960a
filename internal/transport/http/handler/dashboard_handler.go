package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quartz-storefront/internal/service"
	httpez "quartz-storefront/internal/transport/http/ez"
)

type DashboardHandler struct {
	svc Dashboards
	log *zap.Logger
}

func NewDashboardHandler(svc Dashboards, l *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, log: l}
}

// MountAdmin serves the landing page of the back office at the group root.
func (h *DashboardHandler) MountAdmin(g *gin.RouterGroup) {
	ez := httpez.New(g, h.log)
	for _, p := range []string{"", "/dashboard"} {
		httpez.RegisterAction(ez, httpez.Action[none, *service.Dashboard]{
			Method: http.MethodGet, Path: p, Binder: httpez.BindNone, Auth: true,
			Handler: func(c *gin.Context, _ *none) (*service.Dashboard, error) {
				return h.svc.Load(c.Request.Context())
			},
		})
	}
}
