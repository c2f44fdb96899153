// Package tokenizer abstracts the token model used by the chunker.
// Tokens are carried as strings so windows can be decoded back to text
// without holding tokenizer state next to every chunk.
package tokenizer

import (
	"fmt"
	"strings"
)

type Tokenizer interface {
	Encode(text string) []string
	Decode(tokens []string) string
	Name() string
}

// New returns the tokenizer selected by kind: "word" (default,
// offline) or "tiktoken" (cl100k_base BPE).
func New(kind string) (Tokenizer, error) {
	switch kind {
	case "", "word":
		return Word{}, nil
	case "tiktoken":
		return newTiktoken()
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", kind)
	}
}

// Word splits on whitespace and rejoins with single spaces. Exact
// whitespace is not preserved, but the token sequence round-trips,
// which is the property chunking depends on.
type Word struct{}

func (Word) Encode(text string) []string   { return strings.Fields(text) }
func (Word) Decode(tokens []string) string { return strings.Join(tokens, " ") }
func (Word) Name() string                  { return "word" }
