package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/oculusai/console/internal/domain/ports"
	"github.com/oculusai/console/internal/pkg/logutil"
)

// DefaultEncoding is the BPE encoding used to size conversation context
const DefaultEncoding = "cl100k_base"

// Tokenizer counts tokens with a tiktoken BPE encoding
type Tokenizer struct {
	encoding     *tiktoken.Tiktoken
	encodingName string
}

// NewTokenizer loads the named encoding. Loading may download the BPE ranks on first use.
func NewTokenizer(encodingName string) (*Tokenizer, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encodingName, err)
	}

	return &Tokenizer{
		encoding:     encoding,
		encodingName: encodingName,
	}, nil
}

// CountTokens counts tokens in a text string
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// Encoding returns the encoding name
func (t *Tokenizer) Encoding() string {
	return t.encodingName
}

// HeuristicCounter estimates roughly four characters per token
type HeuristicCounter struct{}

// CountTokens approximates the token count of text
func (HeuristicCounter) CountTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	return max(utf8.RuneCountInString(text)/4, 1)
}

// NewCounter returns a tiktoken counter, or the heuristic when offline or when the
// encoding cannot be loaded
func NewCounter(encodingName string, offline bool, logger *logutil.Logger) ports.TokenCounter {
	if logger == nil {
		logger = logutil.NewDefaultLogger()
	}

	if offline {
		logger.Info("Using heuristic token counter", logutil.Fields{"reason": "offline"})
		return HeuristicCounter{}
	}

	tok, err := NewTokenizer(encodingName)
	if err != nil {
		logger.Warn("Falling back to heuristic token counter", logutil.Fields{"error": err.Error()})
		return HeuristicCounter{}
	}

	logger.Info("Token counter ready", logutil.Fields{"encoding": tok.Encoding()})
	return tok
}
