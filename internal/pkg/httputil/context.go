package httputil

import (
	"context"
	"time"

	"github.com/oculusai/console/internal/pkg/constants"
)

// Operation types for timeout selection
const (
	OperationSession   = "session"
	OperationMessaging = "messaging"
	OperationShutdown  = "shutdown"
)

// TimeoutConfig holds timeout configurations for different operations
type TimeoutConfig struct {
	Default time.Duration
	Short   time.Duration
	Long    time.Duration
}

// DefaultTimeouts provides sensible default timeout values
var DefaultTimeouts = TimeoutConfig{
	Default: constants.DefaultHTTPTimeout,
	Short:   constants.ShortHTTPTimeout,
	Long:    constants.GracefulShutdownTimeout,
}

// For returns the timeout of an operation type
func (tc TimeoutConfig) For(operationType string) time.Duration {
	switch operationType {
	case OperationMessaging:
		return tc.Short
	case OperationShutdown:
		return tc.Long
	default:
		return tc.Default
	}
}

// WithTimeout derives a context with the specified timeout duration
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

// WithCustomTimeout creates a context with a timeout based on operation type
func WithCustomTimeout(parent context.Context, operationType string, config TimeoutConfig) (context.Context, context.CancelFunc) {
	return WithTimeout(parent, config.For(operationType))
}
