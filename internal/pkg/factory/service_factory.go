package factory

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	httpapi "github.com/oculusai/console/internal/adapters/api/http"
	"github.com/oculusai/console/internal/adapters/api/websocket"
	"github.com/oculusai/console/internal/adapters/messaging/memory"
	"github.com/oculusai/console/internal/adapters/messaging/nats"
	"github.com/oculusai/console/internal/domain/metrics"
	"github.com/oculusai/console/internal/domain/ports"
	"github.com/oculusai/console/internal/domain/services"
	"github.com/oculusai/console/internal/pkg/constants"
	"github.com/oculusai/console/internal/pkg/httputil"
	"github.com/oculusai/console/internal/pkg/logutil"
	"github.com/oculusai/console/pkg/config"
	"github.com/oculusai/console/pkg/tokenizer"
)

// ServiceContainer holds all initialized services
type ServiceContainer struct {
	Config       config.Config
	Messaging    ports.MessagingPort
	TokenCounter ports.TokenCounter
	Metrics      *metrics.Collector
	Registry     *services.SessionRegistry
	Forms        *services.FormValidator
	Hub          *websocket.Hub
	Handlers     *httpapi.APIHandlers
	Logger       *logutil.Logger

	stopBackground context.CancelFunc
}

// InitializationOptions holds options for service initialization
type InitializationOptions struct {
	Config                config.Config
	ValidateConfiguration bool
	EnableHealthChecks    bool
	StartServices         bool
	Logger                *logutil.Logger

	// Messaging overrides the configured bus, mainly for tests
	Messaging ports.MessagingPort
}

// ServiceFactory provides methods for creating and initializing services
type ServiceFactory struct {
	logger *logutil.Logger
}

// NewServiceFactory creates a new service factory
func NewServiceFactory(logger *logutil.Logger) *ServiceFactory {
	if logger == nil {
		logger = logutil.NewDefaultLogger()
	}

	return &ServiceFactory{
		logger: logger,
	}
}

// NewLogger builds the process logger from the logging section
func NewLogger(cfg config.LoggingConfig) *logutil.Logger {
	return logutil.NewLogger(logutil.LogConfig{
		Level:       logutil.ParseLevel(cfg.Level),
		Format:      cfg.Format,
		ServiceName: constants.ServiceName,
	})
}

// Initialize creates and initializes all services based on configuration
func (sf *ServiceFactory) Initialize(ctx context.Context, opts InitializationOptions) (*ServiceContainer, error) {
	if opts.Logger != nil {
		sf.logger = opts.Logger
	}

	sf.logger.Info("Starting service initialization", logutil.Fields{
		"validate_config":      opts.ValidateConfiguration,
		"enable_health_checks": opts.EnableHealthChecks,
		"start_services":       opts.StartServices,
	})

	if opts.ValidateConfiguration {
		if err := opts.Config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		sf.logger.Info("Configuration validation passed")
	}

	container := &ServiceContainer{
		Config:  opts.Config,
		Logger:  sf.logger,
		Metrics: metrics.NewCollector(),
		Forms:   services.NewFormValidator(),
	}

	if err := sf.initializeAdapters(&opts, container); err != nil {
		return nil, fmt.Errorf("failed to initialize adapters: %w", err)
	}

	sf.initializeDomainServices(&opts.Config, container)

	if opts.EnableHealthChecks {
		if err := sf.performHealthChecks(container); err != nil {
			container.Messaging.Close()
			return nil, fmt.Errorf("health checks failed: %w", err)
		}
		sf.logger.Info("All health checks passed")
	}

	if opts.StartServices {
		if err := container.StartServices(ctx); err != nil {
			container.Messaging.Close()
			return nil, fmt.Errorf("failed to start services: %w", err)
		}
		sf.logger.Info("All services started successfully")
	}

	sf.logger.Info("Service initialization completed successfully")
	return container, nil
}

// initializeAdapters creates the messaging and token counting adapters
func (sf *ServiceFactory) initializeAdapters(opts *InitializationOptions, container *ServiceContainer) error {
	cfg := &opts.Config

	switch {
	case opts.Messaging != nil:
		container.Messaging = opts.Messaging
	case cfg.NATS.Enabled:
		sf.logger.Info("Initializing messaging adapter", logutil.Fields{
			"type":      "nats",
			"url":       cfg.NATS.URL,
			"jetstream": cfg.NATS.JetStream.Enabled,
		})
		adapter, err := nats.NewAdapter(cfg.NATS.URL, cfg.NATS.JetStream.Enabled, cfg.NATS.JetStream.RetentionDays, sf.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		container.Messaging = adapter
	default:
		sf.logger.Info("Initializing messaging adapter", logutil.Fields{"type": "memory"})
		container.Messaging = memory.NewBus(sf.logger)
	}

	container.TokenCounter = tokenizer.NewCounter(cfg.Tokenizer.Encoding, cfg.Tokenizer.Offline, sf.logger)
	return nil
}

// initializeDomainServices creates the session registry and its delivery surfaces
func (sf *ServiceFactory) initializeDomainServices(cfg *config.Config, container *ServiceContainer) {
	sf.logger.Info("Initializing session registry", logutil.Fields{
		"default_model": cfg.Session.DefaultModel,
		"idle_ttl":      cfg.Session.IdleTTL.String(),
		"max_sessions":  cfg.Session.MaxSessions,
	})

	container.Registry = services.NewSessionRegistry(services.RegistryOptions{
		Session: services.SessionOptions{
			Messaging:           container.Messaging,
			TokenCounter:        container.TokenCounter,
			Metrics:             container.Metrics,
			Logger:              sf.logger,
			DefaultModelID:      cfg.Session.DefaultModel,
			ConversationLatency: cfg.Session.ConversationLatency,
			DeepThinkLatency:    cfg.Session.DeepThinkLatency,
			UnlockThreshold:     cfg.Session.UnlockThreshold,
			TitleMaxLength:      cfg.Session.TitleMaxLength,
			SearchContextChars:  cfg.Session.SearchContextChars,
			EnforceRateLimits:   cfg.Session.EnforceRateLimits,
		},
		IdleTTL:     cfg.Session.IdleTTL,
		MaxSessions: cfg.Session.MaxSessions,
	})

	container.Hub = websocket.NewHub(container.Messaging, container.Registry, sf.logger)

	middleware := httputil.DefaultMiddlewareConfig
	middleware.EnableCORS = cfg.Server.CORSEnabled
	container.Handlers = httpapi.NewAPIHandlers(
		container.Registry,
		container.Messaging,
		container.Forms,
		container.Metrics,
		container.Hub,
		sf.logger,
		middleware,
	)
}

// performHealthChecks verifies the event bus answers
func (sf *ServiceFactory) performHealthChecks(container *ServiceContainer) error {
	sf.logger.Info("Performing health checks")

	if err := container.Messaging.Ping(); err != nil {
		return fmt.Errorf("messaging health check failed: %w", err)
	}
	sf.logger.Debug("Messaging health check passed")
	return nil
}

// StartServices starts the websocket fan-out and the idle session reaper
func (container *ServiceContainer) StartServices(ctx context.Context) error {
	if container.stopBackground != nil {
		return nil
	}

	bgCtx, cancel := context.WithCancel(ctx)
	if err := container.Hub.Start(bgCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to start websocket hub: %w", err)
	}

	container.Registry.StartReaper(bgCtx, container.Config.Session.ReapInterval)
	container.stopBackground = cancel
	return nil
}

// Router builds the gin engine serving every route
func (container *ServiceContainer) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	container.Handlers.SetupRoutes(router)
	return router
}

// Shutdown closes every session and then the event bus
func (container *ServiceContainer) Shutdown(ctx context.Context) error {
	container.Logger.Info("Shutting down services", logutil.Fields{"sessions": container.Registry.Count()})

	if container.stopBackground != nil {
		container.stopBackground()
	}

	// sessions publish their closed events before the bus goes away
	container.Registry.CloseAll(ctx)

	if err := container.Messaging.Close(); err != nil {
		container.Logger.Warn("Error closing messaging", logutil.Fields{"error": err.Error()})
		return err
	}

	container.Logger.Info("Service shutdown completed")
	return nil
}
