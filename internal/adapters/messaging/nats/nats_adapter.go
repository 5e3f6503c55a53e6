package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/oculusai/console/internal/domain/ports"
	"github.com/oculusai/console/internal/pkg/constants"
	"github.com/oculusai/console/internal/pkg/logutil"
)

// SessionEventsStream captures every session event when JetStream is enabled
const SessionEventsStream = "SESSION_EVENTS"

// Adapter implements the MessagingPort interface using NATS
type Adapter struct {
	conn      *nats.Conn
	js        nats.JetStreamContext
	subs      map[string]*nats.Subscription
	subsMutex sync.RWMutex
	logger    *logutil.Logger
}

// NewAdapter creates a new NATS messaging adapter
func NewAdapter(url string, jsEnabled bool, retentionDays int, logger *logutil.Logger) (*Adapter, error) {
	if logger == nil {
		logger = logutil.NewDefaultLogger()
	}

	conn, err := nats.Connect(url,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectBufSize(5*1024*1024),
		nats.Name(constants.ServiceName),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", logutil.Fields{"error": err.Error()})
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", logutil.Fields{"url": c.ConnectedUrl()})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	adapter := &Adapter{
		conn:   conn,
		subs:   make(map[string]*nats.Subscription),
		logger: logger,
	}

	if jsEnabled {
		js, err := conn.JetStream(nats.PublishAsyncMaxPending(constants.WebSocketSendBuffer))
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to get JetStream context: %w", err)
		}
		adapter.js = js

		if err := adapter.setupStream(retentionDays); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to setup JetStream stream: %w", err)
		}
	}

	return adapter, nil
}

// setupStream creates or updates the session event stream
func (a *Adapter) setupStream(retentionDays int) error {
	cfg := &nats.StreamConfig{
		Name:        SessionEventsStream,
		Subjects:    []string{ports.SubjectAllSessionEvents},
		Retention:   nats.LimitsPolicy,
		MaxAge:      time.Duration(retentionDays) * 24 * time.Hour,
		MaxMsgs:     100000,
		MaxBytes:    256 * 1024 * 1024,
		Storage:     nats.FileStorage,
		Compression: nats.S2Compression,
	}

	info, err := a.js.StreamInfo(cfg.Name)
	switch {
	case errors.Is(err, nats.ErrStreamNotFound):
		if _, err := a.js.AddStream(cfg); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
		}
	case err != nil:
		return fmt.Errorf("failed to get stream info for %s: %w", cfg.Name, err)
	case needsUpdate(info.Config, *cfg):
		if _, err := a.js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("failed to update stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// needsUpdate checks if a stream configuration needs updating
func needsUpdate(existing, desired nats.StreamConfig) bool {
	return existing.MaxAge != desired.MaxAge ||
		existing.MaxMsgs != desired.MaxMsgs ||
		existing.MaxBytes != desired.MaxBytes ||
		existing.Compression != desired.Compression
}

// Publish sends a message to the specified subject
func (a *Adapter) Publish(ctx context.Context, subject string, data []byte) error {
	if a.js != nil {
		if _, err := a.js.Publish(subject, data, nats.Context(ctx)); err != nil {
			return fmt.Errorf("failed to publish to JetStream subject %s: %w", subject, err)
		}
		return nil
	}

	if err := a.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// PublishJSON publishes a JSON-serializable object to the subject
func (a *Adapter) PublishJSON(ctx context.Context, subject string, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal object for subject %s: %w", subject, err)
	}

	return a.Publish(ctx, subject, data)
}

// Subscribe listens for messages on the specified subject.
// Subscriptions are live only; the stream keeps history for replay tools.
func (a *Adapter) Subscribe(ctx context.Context, subject string, handler ports.MessageHandler) error {
	a.subsMutex.Lock()
	defer a.subsMutex.Unlock()

	if _, exists := a.subs[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	sub, err := a.conn.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(ctx, msg.Subject, msg.Data); err != nil {
			a.logger.Warn("Message handler failed", logutil.Fields{
				"subject": msg.Subject,
				"error":   err.Error(),
			})
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	a.subs[subject] = sub
	return nil
}

// Unsubscribe stops listening to a subject
func (a *Adapter) Unsubscribe(ctx context.Context, subject string) error {
	a.subsMutex.Lock()
	defer a.subsMutex.Unlock()

	sub, exists := a.subs[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}

	delete(a.subs, subject)
	return nil
}

// Close drains subscriptions and closes the connection
func (a *Adapter) Close() error {
	a.subsMutex.Lock()
	defer a.subsMutex.Unlock()

	for subject, sub := range a.subs {
		if err := sub.Unsubscribe(); err != nil {
			a.logger.Warn("Failed to unsubscribe", logutil.Fields{"subject": subject, "error": err.Error()})
		}
	}
	a.subs = make(map[string]*nats.Subscription)

	if a.conn != nil {
		a.conn.Close()
	}
	return nil
}

// Ping checks messaging connectivity
func (a *Adapter) Ping() error {
	if a.conn == nil {
		return fmt.Errorf("connection is nil")
	}

	if !a.conn.IsConnected() {
		return fmt.Errorf("NATS connection is not active")
	}

	rtt, err := a.conn.RTT()
	if err != nil {
		return fmt.Errorf("failed to get RTT: %w", err)
	}

	if rtt > constants.MessagingTimeout {
		return fmt.Errorf("high latency detected: %v", rtt)
	}

	return nil
}

// Status returns detailed connection information
func (a *Adapter) Status() map[string]interface{} {
	status := make(map[string]interface{})
	status["backend"] = "nats"

	if a.conn == nil {
		status["connected"] = false
		status["error"] = "connection is nil"
		return status
	}

	status["connected"] = a.conn.IsConnected()
	status["url"] = a.conn.ConnectedUrl()
	status["server_id"] = a.conn.ConnectedServerId()

	stats := a.conn.Stats()
	status["messages_in"] = stats.InMsgs
	status["messages_out"] = stats.OutMsgs
	status["reconnects"] = stats.Reconnects
	status["jetstream_enabled"] = a.js != nil

	a.subsMutex.RLock()
	status["active_subscriptions"] = len(a.subs)
	a.subsMutex.RUnlock()

	return status
}
