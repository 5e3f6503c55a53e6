package services

import (
	"context"
	"time"

	"github.com/oculusai/console/internal/domain/ports"
	"github.com/oculusai/console/internal/pkg/constants"
	"github.com/oculusai/console/internal/pkg/logutil"
)

// SessionEvent is the payload published for every session state change.
// Seq increases by one per event within a session; delivery may reorder events
// raised on different goroutines, so consumers order by Seq.
type SessionEvent struct {
	SessionID string      `json:"session_id"`
	Seq       uint64      `json:"seq"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type pendingEvent struct {
	subject string
	event   SessionEvent
}

// eventPublisher fans session events out to the messaging port.
// Publish failures are logged and never surface to the caller.
type eventPublisher struct {
	messaging ports.MessagingPort
	logger    *logutil.FieldLogger
}

func (p *eventPublisher) publish(ctx context.Context, events []pendingEvent) {
	if p.messaging == nil || len(events) == 0 {
		return
	}

	if ctx == nil || ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), constants.MessagingTimeout)
		defer cancel()
	}

	for _, ev := range events {
		if err := p.messaging.PublishJSON(ctx, ev.subject, ev.event); err != nil {
			p.logger.Warn("Failed to publish session event", logutil.Fields{
				"subject": ev.subject,
				"error":   err.Error(),
			})
		}
	}
}

// eventBatch collects events while the session lock is held
type eventBatch struct {
	sessionID string
	now       time.Time
	seq       *uint64 // the session's counter, guarded by its lock
	events    []pendingEvent
}

func (b *eventBatch) add(template, eventType string, data interface{}) {
	*b.seq++
	b.events = append(b.events, pendingEvent{
		subject: ports.FormatSubject(template, b.sessionID),
		event: SessionEvent{
			SessionID: b.sessionID,
			Seq:       *b.seq,
			Type:      eventType,
			Data:      data,
			Timestamp: b.now,
		},
	})
}
