package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/oculusai/console/internal/pkg/constants"
	"github.com/oculusai/console/internal/pkg/factory"
	"github.com/oculusai/console/internal/pkg/httputil"
	"github.com/oculusai/console/internal/pkg/logutil"
	"github.com/oculusai/console/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (defaults to config.yaml lookup)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logutil.Fatal("Failed to load configuration", logutil.Fields{"error": err.Error()})
	}

	logger := factory.NewLogger(cfg.Logging)
	logutil.SetGlobalLogger(logger)

	if cfg.Logging.Level == constants.LogLevelDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := factory.NewServiceFactory(logger).Initialize(ctx, factory.InitializationOptions{
		Config:                *cfg,
		ValidateConfiguration: true,
		EnableHealthChecks:    true,
		StartServices:         true,
	})
	if err != nil {
		logger.Fatal("Failed to initialize services", logutil.Fields{"error": err.Error()})
	}

	server := &http.Server{
		Addr:    cfg.Address(),
		Handler: container.Router(),
	}

	go func() {
		logger.Info("Server starting", logutil.Fields{
			"address":   cfg.Address(),
			"messaging": cfg.NATS.Enabled,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", logutil.Fields{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("Shutting down server...")

	// Give outstanding requests time to complete
	shutdownCtx, cancel := httputil.WithCustomTimeout(context.Background(), httputil.OperationShutdown, httputil.DefaultTimeouts)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logutil.Fields{"error": err.Error()})
	}

	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error("Service shutdown failed", logutil.Fields{"error": err.Error()})
		os.Exit(1)
	}

	logger.Info("Server exited")
}
