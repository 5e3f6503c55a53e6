package entities

import (
	"github.com/google/uuid"
)

// generateID creates a random identifier for conversations and messages
func generateID() string {
	return uuid.NewString()
}
