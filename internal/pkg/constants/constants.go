package constants

import "time"

// Application constants
const (
	// Service identification
	ServiceName    = "oculus-console"
	ServiceVersion = "v1.0.0"
	APIVersion     = "v1"
)

// Default timeouts
const (
	DefaultHTTPTimeout      = 10 * time.Second
	ShortHTTPTimeout        = 5 * time.Second
	MessagingTimeout        = 5 * time.Second
	GracefulShutdownTimeout = 30 * time.Second
)

// Session lifecycle defaults
const (
	DefaultSessionIdleTTL     = 30 * time.Minute
	DefaultSessionReapPeriod  = time.Minute
	DefaultMaxSessions        = 1000
	DefaultSearchContextChars = 60
	MaxReplyLatency           = time.Minute
)

// Health status values
const (
	StatusOK       = "ok"
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

// Error messages
const (
	ErrMsgSessionNotFound      = "session not found"
	ErrMsgConversationNotFound = "conversation not found"
	ErrMsgModelNotFound        = "model not found"
	ErrMsgMetricsDisabled      = "metrics collection is disabled"
)

// Success messages
const (
	MsgSessionClosed        = "session closed"
	MsgConversationDeleted  = "conversation deleted"
	MsgSearchCleared        = "search cleared"
	MsgRegistrationReceived = "registration received"
	MsgCheckoutReceived     = "checkout received"
)

// Context keys
const (
	ContextKeySessionID = "session_id"
	ContextKeyRequestID = "request_id"
)

// Log levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// HTTP headers
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderSessionID     = "X-Session-ID"
)

// WebSocket configuration
const (
	WebSocketWriteWait      = 10 * time.Second
	WebSocketPongWait       = 60 * time.Second
	WebSocketPingPeriod     = (WebSocketPongWait * 9) / 10
	WebSocketMaxMessageSize = 512
	WebSocketSendBuffer     = 256
)

// Environment
const (
	EnvPrefix = "OCULUS"
)

// Validation constraints
const (
	MaxInputLength = 10000
	MaxQueryLength = 500
)
