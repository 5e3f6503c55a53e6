package factory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculusai/console/internal/adapters/messaging/memory"
	"github.com/oculusai/console/internal/domain/services"
	"github.com/oculusai/console/internal/pkg/logutil"
	"github.com/oculusai/console/pkg/config"
	"github.com/oculusai/console/pkg/tokenizer"
)

func offlineConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Tokenizer.Offline = true
	return *cfg
}

func TestInitialize_DefaultsToMemoryBus(t *testing.T) {
	ctx := context.Background()
	sf := NewServiceFactory(logutil.NewNopLogger())

	container, err := sf.Initialize(ctx, InitializationOptions{
		Config:                offlineConfig(),
		ValidateConfiguration: true,
		EnableHealthChecks:    true,
		StartServices:         true,
	})
	require.NoError(t, err)

	assert.IsType(t, &memory.Bus{}, container.Messaging)
	assert.IsType(t, tokenizer.HeuristicCounter{}, container.TokenCounter)
	require.NotNil(t, container.Registry)
	require.NotNil(t, container.Hub)

	session, err := container.Registry.Create(ctx, services.CreateSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "oculus-1.5-0503", session.SelectedModel().ID)

	w := httptest.NewRecorder()
	container.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, container.Shutdown(ctx))
	assert.True(t, session.IsClosed())
	assert.Error(t, container.Messaging.Ping())
}

func TestInitialize_RejectsInvalidConfig(t *testing.T) {
	cfg := offlineConfig()
	cfg.Server.Port = 0

	_, err := NewServiceFactory(logutil.NewNopLogger()).Initialize(context.Background(), InitializationOptions{
		Config:                cfg,
		ValidateConfiguration: true,
	})
	assert.ErrorContains(t, err, "server.port")
}

func TestInitialize_HealthCheckFailure(t *testing.T) {
	bus := memory.NewBus(logutil.NewNopLogger())
	require.NoError(t, bus.Close())

	_, err := NewServiceFactory(logutil.NewNopLogger()).Initialize(context.Background(), InitializationOptions{
		Config:             offlineConfig(),
		EnableHealthChecks: true,
		Messaging:          bus,
	})
	assert.ErrorContains(t, err, "messaging health check failed")
}

func TestInitialize_SessionSettingsFlowThrough(t *testing.T) {
	cfg := offlineConfig()
	cfg.Session.DefaultModel = "oculus-mini-1.0"
	cfg.Session.MaxSessions = 1

	container, err := NewServiceFactory(logutil.NewNopLogger()).Initialize(context.Background(), InitializationOptions{Config: cfg})
	require.NoError(t, err)
	ctx := context.Background()

	session, err := container.Registry.Create(ctx, services.CreateSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "oculus-mini-1.0", session.SelectedModel().ID)

	_, err = container.Registry.Create(ctx, services.CreateSessionRequest{})
	assert.ErrorIs(t, err, services.ErrTooManySessions)

	require.NoError(t, container.Shutdown(ctx))
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(config.LoggingConfig{Level: "warn", Format: "json"})
	assert.Equal(t, logutil.WARN, logger.Level())
}
