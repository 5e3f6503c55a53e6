package entities

import "time"

// SearchResult is one excerpt produced by a local text search
type SearchResult struct {
	ConversationID    string    `json:"conversation_id"`
	ConversationTitle string    `json:"conversation_title"`
	MessageID         string    `json:"message_id"`
	Before            string    `json:"before"`
	Match             string    `json:"match"`
	After             string    `json:"after"`
	Timestamp         time.Time `json:"timestamp"`
	PrefixEllipsis    bool      `json:"prefix_ellipsis"`
	SuffixEllipsis    bool      `json:"suffix_ellipsis"`
}
