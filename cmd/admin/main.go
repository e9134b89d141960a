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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, a.AdminEngine(), 5*time.Second, 30*time.Second, 60*time.Second)

	base := server.BaseURL(cfg.App.Admin.Host, cfg.App.Admin.Port)
	log.Info("admin starting",
		zap.String("addr", addr),
		zap.String("login", base+"/admin/login"),
		zap.String("health", base+"/health"),
	)
	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Fatal("admin FAILED", zap.Error(err))
	}
}
