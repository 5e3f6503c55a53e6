package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/oculusai/console/internal/pkg/configutil"
	"github.com/oculusai/console/internal/pkg/constants"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Host        string `mapstructure:"host"`
	CORSEnabled bool   `mapstructure:"cors_enabled"`
}

// SessionConfig holds console session behaviour
type SessionConfig struct {
	DefaultModel        string        `mapstructure:"default_model"`
	ConversationLatency time.Duration `mapstructure:"conversation_latency"`
	DeepThinkLatency    time.Duration `mapstructure:"deepthink_latency"`
	UnlockThreshold     int           `mapstructure:"unlock_threshold"`
	TitleMaxLength      int           `mapstructure:"title_max_length"`
	SearchContextChars  int           `mapstructure:"search_context_chars"`
	IdleTTL             time.Duration `mapstructure:"idle_ttl"`
	ReapInterval        time.Duration `mapstructure:"reap_interval"`
	MaxSessions         int           `mapstructure:"max_sessions"`
	EnforceRateLimits   bool          `mapstructure:"enforce_rate_limits"`
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	Enabled   bool            `mapstructure:"enabled"`
	URL       string          `mapstructure:"url"`
	JetStream JetStreamConfig `mapstructure:"jetstream"`
}

// JetStreamConfig holds JetStream-specific configuration
type JetStreamConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	RetentionDays int  `mapstructure:"retention_days"`
}

// TokenizerConfig selects how message tokens are counted
type TokenizerConfig struct {
	Encoding string `mapstructure:"encoding"`
	// Offline skips the BPE download and uses the character heuristic
	Offline bool `mapstructure:"offline"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			CORSEnabled: true,
		},
		Session: SessionConfig{
			DefaultModel:        "oculus-1.5-0503",
			ConversationLatency: 900 * time.Millisecond,
			DeepThinkLatency:    2000 * time.Millisecond,
			UnlockThreshold:     3,
			TitleMaxLength:      48,
			SearchContextChars:  constants.DefaultSearchContextChars,
			IdleTTL:             constants.DefaultSessionIdleTTL,
			ReapInterval:        constants.DefaultSessionReapPeriod,
			MaxSessions:         constants.DefaultMaxSessions,
		},
		NATS: NATSConfig{
			Enabled: false,
			URL:     "nats://localhost:4222",
			JetStream: JetStreamConfig{
				Enabled:       true,
				RetentionDays: 7,
			},
		},
		Tokenizer: TokenizerConfig{
			Encoding: "cl100k_base",
		},
		Logging: LoggingConfig{
			Level:  constants.LogLevelInfo,
			Format: constants.LogFormatJSON,
		},
	}
}

// Load loads configuration from files and environment variables
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./deployments/config")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// OCULUS_SESSION_IDLE_TTL overrides session.idle_ttl
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay, we'll use defaults + env vars
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// AutomaticEnv only resolves keys viper already knows, so every key is bound up front
func bindEnv(v *viper.Viper) {
	keys := []string{
		"server.port", "server.host", "server.cors_enabled",
		"session.default_model", "session.conversation_latency", "session.deepthink_latency",
		"session.unlock_threshold", "session.title_max_length", "session.search_context_chars",
		"session.idle_ttl", "session.reap_interval", "session.max_sessions", "session.enforce_rate_limits",
		"nats.enabled", "nats.url", "nats.jetstream.enabled", "nats.jetstream.retention_days",
		"tokenizer.encoding", "tokenizer.offline",
		"logging.level", "logging.format",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	v := configutil.NewValidator().
		IntRange("server.port", c.Server.Port, 1, 65535).
		RequiredString("server.host", c.Server.Host).
		RequiredString("session.default_model", c.Session.DefaultModel).
		DurationRange("session.conversation_latency", c.Session.ConversationLatency, time.Millisecond, constants.MaxReplyLatency).
		DurationRange("session.deepthink_latency", c.Session.DeepThinkLatency, time.Millisecond, constants.MaxReplyLatency).
		IntRange("session.unlock_threshold", c.Session.UnlockThreshold, 1, 100).
		IntRange("session.title_max_length", c.Session.TitleMaxLength, 1, 500).
		IntRange("session.search_context_chars", c.Session.SearchContextChars, 1, 1000).
		RequiredInt("session.max_sessions", c.Session.MaxSessions).
		OneOf("logging.level", strings.ToLower(c.Logging.Level), []string{
			constants.LogLevelDebug, constants.LogLevelInfo, constants.LogLevelWarn,
			constants.LogLevelError, constants.LogLevelFatal,
		}).
		OneOf("logging.format", c.Logging.Format, []string{constants.LogFormatText, constants.LogFormatJSON})

	if c.Session.IdleTTL > 0 {
		v.RequiredDuration("session.reap_interval", c.Session.ReapInterval).
			Check(c.Session.ReapInterval <= c.Session.IdleTTL, "session.reap_interval", "must not exceed session.idle_ttl")
	}

	if c.NATS.Enabled {
		v.RequiredString("nats.url", c.NATS.URL).
			ValidateURL("nats.url", c.NATS.URL, "nats", "tls", "ws", "wss")
		if c.NATS.JetStream.Enabled {
			v.RequiredInt("nats.jetstream.retention_days", c.NATS.JetStream.RetentionDays)
		}
	}

	if !c.Tokenizer.Offline {
		v.RequiredString("tokenizer.encoding", c.Tokenizer.Encoding)
	}

	return v.Result()
}

// Address returns the host:port the HTTP server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
