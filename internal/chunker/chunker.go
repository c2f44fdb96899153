// Package chunker splits extracted document text into overlapping
// fixed-size token windows.
package chunker

import (
	"fmt"

	"nudge/internal/models"
	"nudge/internal/tokenizer"
)

const (
	DefaultMaxTokens = 512
	DefaultOverlap   = 50
)

// Split tokenizes text and walks the token sequence in windows of
// maxTokens, advancing by maxTokens-overlap so consecutive chunks
// share overlap tokens. Chunk ids count up from 0 for the source. The
// terminal window may be shorter than maxTokens. Whitespace-only text
// yields no chunks.
func Split(tok tokenizer.Tokenizer, text, source string, maxTokens, overlap int) ([]models.Chunk, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max_tokens must be positive, got %d", maxTokens)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxTokens {
		return nil, fmt.Errorf("overlap (%d) must be smaller than max_tokens (%d)", overlap, maxTokens)
	}

	tokens := tok.Encode(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	step := maxTokens - overlap
	var chunks []models.Chunk
	for start := 0; start < len(tokens); start += step {
		end := start + maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[start:end]
		chunks = append(chunks, models.Chunk{
			ChunkID:    len(chunks),
			Text:       tok.Decode(window),
			TokenCount: len(window),
			SourceFile: source,
		})
		if end == len(tokens) {
			break
		}
	}
	return chunks, nil
}
