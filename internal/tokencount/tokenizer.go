// Package tokencount wraps tiktoken-go to give the context-overflow
// strategy a token-accurate way to size filler text, rather than
// approximating with a word or byte count.
package tokencount

import (
	"fmt"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens for one tiktoken encoding, caching the loaded
// BPE ranks across calls since tiktoken.GetEncoding hits the filesystem
// (or its embedded data) on every invocation otherwise.
type Counter struct {
	mu       sync.Mutex
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewCounter builds a Counter for encoding, validating it eagerly so a
// typo in plan config fails at load time rather than on first use.
func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("invalid tiktoken encoding %q: %w", encoding, err)
	}
	return &Counter{encoding: encoding, enc: enc}, nil
}

// Count returns the number of tokens text encodes to.
func (c *Counter) Count(text string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}

// Filler builds a string that encodes to exactly tokenCount tokens (or
// as close as a whole-word granularity allows, rounding up), by growing
// a repeated filler word and re-measuring. Used by the context-overflow
// strategy to inflate a conversation by a caller-specified token budget.
func (c *Counter) Filler(tokenCount int) string {
	if tokenCount <= 0 {
		return ""
	}
	const word = "lorem "
	var b strings.Builder
	for c.Count(b.String()) < tokenCount {
		b.WriteString(word)
	}
	return strings.TrimSpace(b.String())
}
