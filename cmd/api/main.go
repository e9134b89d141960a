package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"quartz-storefront/internal/app"
	"quartz-storefront/internal/core/config"
	"quartz-storefront/internal/core/logger"
	"quartz-storefront/internal/core/server"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	restore := logger.RedirectStdLog(log)
	defer restore()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer func() { _ = a.Close() }()
	log.Info("database connected", zap.String("driver", cfg.DB.Driver), zap.Bool("cache", a.Cache != nil))

	h := cfg.App.HTTP
	addr := server.Addr(h.Host, h.Port)
	srv := server.BuildServer(addr, a.APIEngine(),
		time.Duration(h.ReadTimeoutSec)*time.Second,
		time.Duration(h.WriteTimeoutSec)*time.Second,
		time.Duration(h.IdleTimeoutSec)*time.Second,
	)

	base := server.BaseURL(h.Host, h.Port)
	log.Info("storefront api starting",
		zap.String("addr", addr),
		zap.String("health", base+"/health"),
		zap.String("api_v1", base+"/api/v1"),
	)
	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Fatal("storefront api FAILED", zap.Error(err))
	}
}
