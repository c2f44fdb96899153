package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Tiktoken tokenizes with the cl100k_base BPE encoding. Each token is
// carried as its decoded byte string; a token may not be valid UTF-8
// on its own, but concatenating a run of tokens restores the text.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

func newTiktoken() (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load cl100k_base encoding: %w", err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Encode(text string) []string {
	ids := t.enc.Encode(text, nil, nil)
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = t.enc.Decode([]int{id})
	}
	return tokens
}

func (t *Tiktoken) Decode(tokens []string) string { return strings.Join(tokens, "") }

func (t *Tiktoken) Name() string { return "tiktoken-cl100k_base" }
