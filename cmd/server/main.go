package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/dharmasatrya/pointsmaxxer/internal/config"
	"github.com/dharmasatrya/pointsmaxxer/internal/handler"
	"github.com/dharmasatrya/pointsmaxxer/internal/observability"
)

func main() {
	configFlag := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	path := config.ConfigPath(*configFlag)
	cfg, err := loadConfig(path)
	if err != nil {
		// No logger yet; the level lives in the config we failed to read.
		observability.NewLogger(config.DefaultLogLevel).Fatal("failed to load config", zap.String("path", path), zap.Error(err))
	}

	logger := observability.NewLogger(cfg.Log.Level)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := newApp(ctx, cfg, path, logger)
	if err != nil {
		logger.Fatal("failed to start engine", zap.Error(err))
	}
	defer engine.close()

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(observability.RequestLogger(logger))

	handler.Register(e, engine.handlers())

	if cfg.Server.Daemon {
		engine.scheduler.Start(ctx)
	}

	go func() {
		logger.Info("starting pointsmaxxer server", zap.String("port", cfg.Server.Port), zap.Bool("daemon", cfg.Server.Daemon))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if cfg.Server.Daemon {
		if err := engine.scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("scheduler shutdown", zap.Error(err))
		}
	}
}
