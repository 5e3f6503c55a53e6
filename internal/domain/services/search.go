package services

import (
	"sort"
	"strings"
	"unicode"

	"github.com/oculusai/console/internal/domain/entities"
)

// DefaultSearchContext is how many characters of context surround a match on each side
const DefaultSearchContext = 60

// SearchConversations finds the first case-insensitive occurrence of query in every
// message of every conversation. Results are ordered by message timestamp, newest first.
func SearchConversations(conversations []*entities.Conversation, query string, contextChars int) []entities.SearchResult {
	if contextChars < 0 {
		contextChars = DefaultSearchContext
	}

	needle := foldRunes([]rune(query))
	results := make([]entities.SearchResult, 0)
	if len(needle) == 0 {
		return results
	}

	for _, conversation := range conversations {
		for _, message := range conversation.Messages {
			content := []rune(message.Content)
			matchIndex := indexRunes(foldRunes(content), needle)
			if matchIndex < 0 {
				continue
			}

			matchEnd := matchIndex + len(needle)
			beforeStart := max(0, matchIndex-contextChars)
			afterEnd := min(len(content), matchEnd+contextChars)

			results = append(results, entities.SearchResult{
				ConversationID:    conversation.ID,
				ConversationTitle: conversation.Title,
				MessageID:         message.ID,
				Before:            strings.TrimLeftFunc(string(content[beforeStart:matchIndex]), unicode.IsSpace),
				Match:             string(content[matchIndex:matchEnd]),
				After:             strings.TrimRightFunc(string(content[matchEnd:afterEnd]), unicode.IsSpace),
				Timestamp:         message.Timestamp,
				PrefixEllipsis:    beforeStart > 0,
				SuffixEllipsis:    afterEnd < len(content),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	return results
}

// foldRunes lower-cases rune by rune so indexes line up with the source text
func foldRunes(in []rune) []rune {
	out := make([]rune, len(in))
	for i, r := range in {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func indexRunes(haystack, needle []rune) int {
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		match := true
		for j := 0; j < n; j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
