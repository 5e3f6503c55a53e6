package entities

import (
	"time"
	"unicode/utf8"
)

// DefaultConversationTitle is the title of a conversation before its first user turn
const DefaultConversationTitle = "New Conversation"

// Conversation represents an ordered thread of messages bound to one model
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"` // insertion order is chronological
	ModelID   string     `json:"model_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewConversation creates a conversation seeded with one assistant greeting
func NewConversation(modelID, greeting string, now time.Time) *Conversation {
	c := &Conversation{
		ID:        generateID(),
		Title:     DefaultConversationTitle,
		ModelID:   modelID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.Messages = []*Message{NewMessage(c.ID, RoleAssistant, greeting, now)}
	return c
}

// AppendMessage adds a message to the end of the conversation
func (c *Conversation) AppendMessage(message *Message, now time.Time) {
	message.ConversationID = c.ID
	c.Messages = append(c.Messages, message)
	c.UpdatedAt = now
}

// HasOnlyGreeting reports whether the conversation still holds only its seed greeting
func (c *Conversation) HasOnlyGreeting() bool {
	return len(c.Messages) == 1 && c.Messages[0].IsFromAssistant()
}

// ReplaceGreeting regenerates the seed greeting while no one has spoken yet
func (c *Conversation) ReplaceGreeting(greeting string, now time.Time) bool {
	if !c.HasOnlyGreeting() {
		return false
	}
	seed := *c.Messages[0]
	seed.Content = greeting
	seed.Timestamp = now
	c.Messages[0] = &seed
	c.UpdatedAt = now
	return true
}

// SetModel updates the model bound to this conversation
func (c *Conversation) SetModel(modelID string) {
	c.ModelID = modelID
}

// SetTitleFromPrompt rewrites the title from the first user prompt
func (c *Conversation) SetTitleFromPrompt(prompt string, maxLength int) {
	c.Title = Ellipsize(prompt, maxLength)
}

// LastMessage returns the most recent message
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageCount returns the number of messages in the conversation
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// TokenUsage sums the token counts of every message
func (c *Conversation) TokenUsage() int {
	total := 0
	for _, m := range c.Messages {
		total += m.TokenCount
	}
	return total
}

// Snapshot returns a copy safe to hand out beyond the owner's lock
func (c *Conversation) Snapshot() *Conversation {
	cp := *c
	cp.Messages = make([]*Message, len(c.Messages))
	for i, m := range c.Messages {
		msg := *m
		cp.Messages[i] = &msg
	}
	return &cp
}

// Ellipsize truncates text to length characters, appending an ellipsis when cut
func Ellipsize(text string, length int) string {
	if length <= 0 || utf8.RuneCountInString(text) <= length {
		return text
	}
	runes := []rune(text)
	return string(runes[:length]) + "…"
}
