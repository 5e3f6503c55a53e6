package httputil

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oculusai/console/internal/pkg/constants"
	"github.com/oculusai/console/internal/pkg/logutil"
)

// ContextKey represents a context key type to avoid collisions
type ContextKey string

const (
	// TimeoutConfigKey is the context key for timeout configuration
	TimeoutConfigKey ContextKey = "timeout_config"
)

// MiddlewareConfig holds middleware configuration
type MiddlewareConfig struct {
	Timeouts       TimeoutConfig
	EnableCORS     bool
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// DefaultMiddlewareConfig provides sensible defaults
var DefaultMiddlewareConfig = MiddlewareConfig{
	Timeouts:       DefaultTimeouts,
	EnableCORS:     true,
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	AllowedHeaders: []string{constants.HeaderContentType, constants.HeaderAuthorization, constants.HeaderRequestID},
}

// TimeoutMiddleware injects timeout configuration into the gin context
func TimeoutMiddleware(config TimeoutConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(TimeoutConfigKey), config)
		c.Next()
	}
}

// CORSMiddleware creates a configurable CORS middleware
func CORSMiddleware(config MiddlewareConfig) gin.HandlerFunc {
	methods := "GET, POST, PUT, DELETE, OPTIONS"
	if len(config.AllowedMethods) > 0 {
		methods = strings.Join(config.AllowedMethods, ", ")
	}
	headers := "Content-Type, Authorization"
	if len(config.AllowedHeaders) > 0 {
		headers = strings.Join(config.AllowedHeaders, ", ")
	}

	return func(c *gin.Context) {
		if config.EnableCORS {
			for _, origin := range config.AllowedOrigins {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)

			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
		}
		c.Next()
	}
}

// RequestIDMiddleware propagates or assigns an X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequestID, id)
		c.Header(constants.HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger logs every request and reports its latency to observe when set
func RequestLogger(logger *logutil.Logger, observe func(time.Duration)) gin.HandlerFunc {
	if logger == nil {
		logger = logutil.NewDefaultLogger()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		if observe != nil {
			observe(elapsed)
		}

		fields := logutil.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": elapsed.Milliseconds(),
			"request_id": c.GetString(constants.ContextKeyRequestID),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("Request failed", fields)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("Request rejected", fields)
		default:
			logger.Debug("Request served", fields)
		}
	}
}

// GetTimeoutForOperation retrieves the timeout for an operation from the gin context
func GetTimeoutForOperation(c *gin.Context, operationType string) time.Duration {
	value, exists := c.Get(string(TimeoutConfigKey))
	if !exists {
		return DefaultTimeouts.For(operationType)
	}

	config, ok := value.(TimeoutConfig)
	if !ok {
		return DefaultTimeouts.For(operationType)
	}
	return config.For(operationType)
}

// WithOperationContext derives a request-scoped context bounded by the operation timeout
func WithOperationContext(c *gin.Context, operationType string) (context.Context, context.CancelFunc) {
	return WithTimeout(c.Request.Context(), GetTimeoutForOperation(c, operationType))
}
