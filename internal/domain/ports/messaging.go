package ports

import (
	"context"
	"fmt"
	"strings"
)

// MessageHandler defines a function type for handling incoming messages
type MessageHandler func(ctx context.Context, subject string, data []byte) error

// MessagingPort defines the interface for event bus operations
type MessagingPort interface {
	// Publish sends a message to the specified subject
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishJSON publishes a JSON-serializable object to the subject
	PublishJSON(ctx context.Context, subject string, obj interface{}) error

	// Subscribe listens for messages on the specified subject.
	// Subjects may end in the ">" wildcard.
	Subscribe(ctx context.Context, subject string, handler MessageHandler) error

	// Unsubscribe stops listening to a subject
	Unsubscribe(ctx context.Context, subject string) error

	// Close closes the messaging connection
	Close() error

	// Health check
	Ping() error
}

// Session event subjects, formatted with the session id
const (
	SubjectAllSessionEvents = "session.>"

	SubjectConversationCreated  = "session.%s.conversation.created"
	SubjectConversationSelected = "session.%s.conversation.selected"
	SubjectConversationDeleted  = "session.%s.conversation.deleted"
	SubjectMessageNew           = "session.%s.message.new"
	SubjectReplyPending         = "session.%s.reply.pending"
	SubjectReplyReady           = "session.%s.reply.ready"
	SubjectReplyCancelled       = "session.%s.reply.cancelled"
	SubjectModelSelected        = "session.%s.model.selected"
	SubjectModeChanged          = "session.%s.mode.changed"
	SubjectSearchCompleted      = "session.%s.search.completed"
	SubjectSecretProgress       = "session.%s.secret.progress"
	SubjectSecretUnlocked       = "session.%s.secret.unlocked"
	SubjectSessionClosed        = "session.%s.closed"
)

// FormatSubject fills a subject template
func FormatSubject(template string, params ...interface{}) string {
	return fmt.Sprintf(template, params...)
}

// SessionIDFromSubject extracts the session id from a "session.<id>.<event>" subject
func SessionIDFromSubject(subject string) (sessionID, event string, ok bool) {
	parts := strings.SplitN(subject, ".", 3)
	if len(parts) != 3 || parts[0] != "session" || parts[1] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// SubjectMatches reports whether subject is covered by pattern.
// "*" matches one token and a trailing ">" matches one or more tokens.
func SubjectMatches(pattern, subject string) bool {
	pTokens := strings.Split(pattern, ".")
	sTokens := strings.Split(subject, ".")

	for i, p := range pTokens {
		if p == ">" {
			return len(sTokens) > i
		}
		if i >= len(sTokens) {
			return false
		}
		if p != "*" && p != sTokens[i] {
			return false
		}
	}
	return len(pTokens) == len(sTokens)
}
