package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"quartz-storefront/internal/core/config"
	"quartz-storefront/internal/core/server"
	mdw "quartz-storefront/internal/transport/http/middleware"
	resp "quartz-storefront/internal/transport/http/response"
)

// Deps is what both engines need beyond their handler modules.
type Deps struct {
	Log      *zap.Logger
	Limits   config.Limits
	Server   server.Options
	Resolver mdw.SessionResolver
	Modules  *Registry
}

func baseEngine(d Deps) *gin.Engine {
	r := server.NewRouter(d.Server)

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(d.Limits.RPS), d.Limits.Burst),
		mdw.ConcurrencyLimit(d.Limits.Concurrency),
		mdw.MaxBodyBytes(d.Limits.MaxBodyMB<<20),
		mdw.Timeout(time.Duration(d.Limits.TimeoutSec)*time.Second),
		mdw.Recovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Fail("NotFound", "route not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, resp.Fail("MethodNotAllowed", "method not allowed"))
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", mdw.MetricsHandler())
	return r
}
