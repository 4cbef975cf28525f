package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bykirken/bykirken/internal/config"
	"github.com/bykirken/bykirken/internal/database"
	"github.com/bykirken/bykirken/internal/logging"
	"github.com/bykirken/bykirken/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, os.Getenv("BYKIRKEN_LOG_FORMAT"))

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, cfg, logger)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SyncCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := srv.SyncJob().Run(ctx); err != nil {
			logger.Error("scheduled calendar sync failed", "error", err)
		}
	}); err != nil {
		logger.Error("invalid sync cron expression", "error", err, "cron", cfg.SyncCron)
		os.Exit(1)
	}
	scheduler.AddFunc("*/15 * * * *", func() {
		if sent, err := srv.Reminder().Run(); err != nil {
			logger.Error("push reminders failed", "error", err)
		} else if sent > 0 {
			logger.Info("push reminders sent", "count", sent)
		}
	})
	scheduler.AddFunc("@hourly", func() {
		if n, err := srv.SessionStore().DeleteExpired(); err != nil {
			logger.Warn("session cleanup failed", "error", err)
		} else if n > 0 {
			logger.Debug("expired sessions removed", "count", n)
		}
		if _, err := srv.MagicLinkStore().DeleteExpired(); err != nil {
			logger.Warn("magic link cleanup failed", "error", err)
		}
		srv.RateLimiter().Cleanup()
	})
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("bykirken running", "addr", "http://localhost:"+cfg.Port, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
