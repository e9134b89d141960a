// Package app wires configuration into stores, services and engines for the
// server binaries.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"quartz-storefront/internal/core/auth"
	"quartz-storefront/internal/core/cache"
	"quartz-storefront/internal/core/config"
	"quartz-storefront/internal/core/database"
	"quartz-storefront/internal/core/server"
	"quartz-storefront/internal/media"
	"quartz-storefront/internal/repo"
	"quartz-storefront/internal/service"
	"quartz-storefront/internal/transport/http/handler"
	mdw "quartz-storefront/internal/transport/http/middleware"
	"quartz-storefront/internal/transport/http/router"
	"quartz-storefront/pkg/validate"
)

type App struct {
	Cfg   *config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	Cache *cache.Cache // nil when redis is disabled

	Catalog   *service.CatalogService
	Inquiries *service.InquiryService
	Auth      *service.AuthService
	Dashboard *service.DashboardService
	Uploader  media.Uploader
}

// Open connects the database (and redis when enabled), migrates if asked,
// and builds the services.
func Open(ctx context.Context, cfg *config.Config, l *zap.Logger) (*App, error) {
	db, err := OpenDB(cfg, l)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := repo.Migrate(db); err != nil {
			return nil, err
		}
		l.Info("automigrate done")
	}

	a := &App{Cfg: cfg, Log: l, DB: db}

	// A nil *cache.Cache must not reach the service as a non-nil interface.
	var catalogCache service.CatalogCache
	if cfg.Redis.Enabled {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := c.Ping(ctx); err != nil {
			l.Warn("redis unavailable, catalog reads go to the database", zap.Error(err))
			_ = c.Close()
		} else {
			a.Cache = c
			catalogCache = c
		}
	}

	up, err := media.New(cfg.Media)
	if err != nil {
		return nil, err
	}
	a.Uploader = up

	cats := repo.NewCategoryRepo(db)
	prods := repo.NewProductRepo(db)
	contacts := repo.NewContactRepo(db)
	enquiries := repo.NewEnquiryRepo(db)
	users := repo.NewUserRepo(db)

	jwter := &auth.JWTer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()}
	ttl := time.Duration(cfg.Redis.TTLSec) * time.Second

	a.Catalog = service.NewCatalogService(cats, prods, catalogCache, ttl, l.Named("catalog"))
	a.Inquiries = service.NewInquiryService(contacts, enquiries, prods, cats, l.Named("inquiry"))
	a.Auth = service.NewAuthService(users, jwter, l.Named("auth"))
	a.Dashboard = service.NewDashboardService(cats, prods, contacts, enquiries, a.Inquiries)
	return a, nil
}

func OpenDB(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	return database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		PrepareStmt:        true,
	}, l)
}

func (a *App) Close() error {
	var errsOut []error
	if a.Cache != nil {
		errsOut = append(errsOut, a.Cache.Close())
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		errsOut = append(errsOut, sqlDB.Close())
	}
	return errors.Join(errsOut...)
}

func (a *App) cookies() auth.CookieOpts {
	return auth.CookieOpts{Secure: a.Cfg.Cookie.Secure, Domain: a.Cfg.Cookie.Domain, MaxAge: a.Cfg.JWT.TTL()}
}

func (a *App) deps(mods *router.Registry) router.Deps {
	mode := gin.DebugMode
	if a.Cfg.App.Env == "prod" || a.Cfg.App.Env == "production" {
		mode = gin.ReleaseMode
	}
	return router.Deps{
		Log:    a.Log,
		Limits: a.Cfg.Limits,
		Server: server.Options{
			Name:           a.Cfg.App.Name,
			Mode:           mode,
			AllowOrigins:   a.Cfg.App.HTTP.AllowOrigins,
			TrustedProxies: a.Cfg.App.TrustedProxies,
		},
		Resolver: a.Auth,
		Modules:  mods,
	}
}

// submitLimiter returns a fresh per-IP limiter; every call has its own buckets.
func (a *App) submitLimiter() gin.HandlerFunc {
	return mdw.RateLimitPerIP(rate.Limit(a.Cfg.Limits.SubmitRPS), a.Cfg.Limits.SubmitBurst)
}

func (a *App) maxUpload() int64 { return int64(a.Cfg.Media.MaxUploadMB) << 20 }

// APIEngine builds the storefront engine.
func (a *App) APIEngine() *gin.Engine {
	validate.InstallGin()
	mods := router.NewRegistry(
		handler.NewAuthHandler(a.Auth, a.cookies(), a.Log, a.submitLimiter()),
		handler.NewCatalogHandler(a.Catalog, a.Log),
		handler.NewInquiryHandler(a.Inquiries, a.Log, a.submitLimiter()),
		handler.NewUploadHandler(a.Uploader, a.Cfg.Media.DefaultFolder, a.maxUpload(), a.Log, mdw.RequireAdmin(a.Auth)),
	)
	var static []router.StaticDir
	if a.Cfg.Media.Driver == "local" {
		static = append(static, router.StaticDir{URLPath: "/uploads", Dir: a.Cfg.Media.LocalDir})
	}
	return router.NewAPIEngine(a.deps(mods), static...)
}

// AdminEngine builds the back-office engine.
func (a *App) AdminEngine() *gin.Engine {
	validate.InstallGin()
	mods := router.NewRegistry(
		handler.NewAuthHandler(a.Auth, a.cookies(), a.Log, a.submitLimiter()),
		handler.NewDashboardHandler(a.Dashboard, a.Log),
		handler.NewCatalogHandler(a.Catalog, a.Log),
		handler.NewInquiryHandler(a.Inquiries, a.Log),
		handler.NewUploadHandler(a.Uploader, a.Cfg.Media.DefaultFolder, a.maxUpload(), a.Log),
	)
	return router.NewAdminEngine(a.deps(mods))
}
