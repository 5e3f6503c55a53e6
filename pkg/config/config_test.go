package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculusai/console/internal/pkg/configutil"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 900*time.Millisecond, cfg.Session.ConversationLatency)
	assert.Equal(t, 2*time.Second, cfg.Session.DeepThinkLatency)
	assert.Equal(t, 3, cfg.Session.UnlockThreshold)
	assert.Equal(t, 48, cfg.Session.TitleMaxLength)
	assert.Equal(t, 60, cfg.Session.SearchContextChars)
	assert.False(t, cfg.NATS.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
session:
  default_model: oculus-mini-1.0
  deepthink_latency: 3s
nats:
  enabled: true
  url: nats://bus:4222
logging:
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("OCULUS_SESSION_UNLOCK_THRESHOLD", "5")
	t.Setenv("OCULUS_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "oculus-mini-1.0", cfg.Session.DefaultModel)
	assert.Equal(t, 3*time.Second, cfg.Session.DeepThinkLatency)
	assert.Equal(t, 900*time.Millisecond, cfg.Session.ConversationLatency)
	assert.Equal(t, 5, cfg.Session.UnlockThreshold)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	cfg.Session.ConversationLatency = 0
	cfg.Logging.Format = "xml"
	cfg.NATS.Enabled = true
	cfg.NATS.URL = "http://bus:4222"

	err := cfg.Validate()
	require.Error(t, err)

	var validationErrors configutil.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)

	fields := make([]string, len(validationErrors))
	for i, ve := range validationErrors {
		fields[i] = ve.Field
	}
	assert.ElementsMatch(t, []string{"server.port", "session.conversation_latency", "logging.format", "nats.url"}, fields)
}

func TestValidate_ReplyLatencyBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.DeepThinkLatency = 2 * time.Minute
	require.Error(t, cfg.Validate())

	cfg.Session.DeepThinkLatency = time.Minute
	assert.NoError(t, cfg.Validate())
}

func TestValidate_SearchContextMustBePositive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.SearchContextChars = 0

	var validationErrors configutil.ValidationErrors
	require.ErrorAs(t, cfg.Validate(), &validationErrors)
	require.Len(t, validationErrors, 1)
	assert.Equal(t, "session.search_context_chars", validationErrors[0].Field)
}

func TestValidate_ReapIntervalWithinIdleTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.IdleTTL = time.Minute
	cfg.Session.ReapInterval = 5 * time.Minute

	var validationErrors configutil.ValidationErrors
	require.ErrorAs(t, cfg.Validate(), &validationErrors)
	require.Len(t, validationErrors, 1)
	assert.Equal(t, "session.reap_interval", validationErrors[0].Field)

	// reaping disabled skips the interval checks
	cfg.Session.IdleTTL = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidate_OfflineTokenizerNeedsNoEncoding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tokenizer.Encoding = ""
	assert.Error(t, cfg.Validate())

	cfg.Tokenizer.Offline = true
	assert.NoError(t, cfg.Validate())
}
