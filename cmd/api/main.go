package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/ticketpulse/internal/api"
	"github.com/timmy/ticketpulse/internal/api/handler"
	"github.com/timmy/ticketpulse/internal/app"
	"github.com/timmy/ticketpulse/internal/config"
	"github.com/timmy/ticketpulse/internal/logger"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewFromEnv(logger.LoadFromEnv("ticketpulse-api"))
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize application")
	}
	defer a.Close()

	adminHandler := handler.NewAdminHandler(a.Scrape, a.Jobs, a.Guard, a.Clock, appLogger)
	router := api.SetupRouter(api.Handlers{
		Health:    handler.NewHealthHandler(a.Ping, a.Clock),
		Analytics: handler.NewAnalyticsHandler(a.Analytics),
		Admin:     adminHandler,
	}, &cfg.Server, appLogger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sched := a.Scheduler()
	schedDone := make(chan error, 1)
	go func() {
		appLogger.WithField("tasks", sched.Tasks()).Info("Starting scheduler")
		schedDone <- sched.Start(ctx)
	}()

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	// In-flight scrape runs see the cancelled context and stop at the next
	// quantity or event boundary.
	if err := <-schedDone; err != nil && !errors.Is(err, context.Canceled) {
		appLogger.WithError(err).Error("Scheduler stopped with error")
	}
	adminHandler.Wait()

	appLogger.Info("Server exited")
}
