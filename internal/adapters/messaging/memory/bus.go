// Package memory is an in-process event bus used when NATS is disabled.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/oculusai/console/internal/domain/ports"
	"github.com/oculusai/console/internal/pkg/logutil"
)

// ErrClosed is returned by every operation after Close
var ErrClosed = errors.New("memory bus is closed")

// Bus delivers messages synchronously to every matching subscription
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]subscription
	closed bool
	logger *logutil.Logger

	published int64
}

type subscription struct {
	ctx     context.Context
	handler ports.MessageHandler
}

// NewBus creates an empty bus
func NewBus(logger *logutil.Logger) *Bus {
	if logger == nil {
		logger = logutil.NewDefaultLogger()
	}
	return &Bus{
		subs:   make(map[string]subscription),
		logger: logger,
	}
}

// Publish hands data to every subscription whose pattern matches subject
func (b *Bus) Publish(ctx context.Context, subject string, data []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.published++
	matched := make(map[string]subscription)
	for pattern, sub := range b.subs {
		if ports.SubjectMatches(pattern, subject) {
			matched[pattern] = sub
		}
	}
	b.mu.Unlock()

	// handlers run unlocked so they may publish or subscribe themselves
	for pattern, sub := range matched {
		if err := sub.handler(sub.ctx, subject, data); err != nil {
			b.logger.Warn("Message handler failed", logutil.Fields{
				"pattern": pattern,
				"subject": subject,
				"error":   err.Error(),
			})
		}
	}
	return nil
}

// PublishJSON publishes a JSON-serializable object to the subject
func (b *Bus) PublishJSON(ctx context.Context, subject string, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal object for subject %s: %w", subject, err)
	}
	return b.Publish(ctx, subject, data)
}

// Subscribe registers handler for subject, which may carry wildcards
func (b *Bus) Subscribe(ctx context.Context, subject string, handler ports.MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if _, exists := b.subs[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}
	b.subs[subject] = subscription{ctx: ctx, handler: handler}
	return nil
}

// Unsubscribe stops listening to a subject
func (b *Bus) Unsubscribe(ctx context.Context, subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subs[subject]; !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	delete(b.subs, subject)
	return nil
}

// Close drops all subscriptions
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.subs = make(map[string]subscription)
	return nil
}

// Ping reports whether the bus still accepts messages
func (b *Bus) Ping() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}
	return nil
}

// Status mirrors the NATS adapter's connection report
func (b *Bus) Status() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return map[string]interface{}{
		"backend":              "memory",
		"connected":            !b.closed,
		"messages_out":         b.published,
		"active_subscriptions": len(b.subs),
	}
}
