package entities

import (
	"fmt"
	"strings"
	"time"
)

// MessageRole represents the author of a message in a conversation
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Mode is the interaction context controlling how submitted text is interpreted
type Mode string

const (
	ModeConversation Mode = "conversation"
	ModeSearch       Mode = "search"
	ModeDeepThink    Mode = "deepthink"
)

// ParseMode converts a wire value into a Mode
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeConversation:
		return ModeConversation, nil
	case ModeSearch:
		return ModeSearch, nil
	case ModeDeepThink:
		return ModeDeepThink, nil
	default:
		return "", fmt.Errorf("unknown mode %q", value)
	}
}

// Message represents a single message in a conversation.
// Messages are immutable once appended to a conversation.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	Mode           Mode        `json:"mode,omitempty"`
	TokenCount     int         `json:"token_count"`
	Timestamp      time.Time   `json:"timestamp"`
}

// NewMessage creates a new message with generated ID and the given timestamp
func NewMessage(conversationID string, role MessageRole, content string, timestamp time.Time) *Message {
	return &Message{
		ID:             generateID(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Timestamp:      timestamp,
	}
}

// WithMode tags the message with the mode it was produced in
func (m *Message) WithMode(mode Mode) *Message {
	m.Mode = mode
	return m
}

// IsFromUser returns true if the message is from a user
func (m *Message) IsFromUser() bool {
	return m.Role == RoleUser
}

// IsFromAssistant returns true if the message is from an assistant
func (m *Message) IsFromAssistant() bool {
	return m.Role == RoleAssistant
}
