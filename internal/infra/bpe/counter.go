package bpe

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding matches the tokenizer used by current OpenAI chat models.
const DefaultEncoding = "cl100k_base"

// Counter measures sentence length in BPE tokens.
type Counter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewCounter loads the named encoding. Loading may fetch the ranks file on
// first use, so callers should fall back to word counts when it fails.
func NewCounter(encoding string) (*Counter, error) {
	encoding = strings.TrimSpace(encoding)
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", encoding, err)
	}
	return &Counter{enc: enc}, nil
}

// CountTokens returns the number of BPE tokens in text.
func (c *Counter) CountTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}
