package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"nudge/internal/tokenizer"
)

func tokens(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSplit1000Tokens(t *testing.T) {
	tok := tokenizer.Word{}
	chunks, err := Split(tok, tokens(1000), "book.pdf", 512, 50)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	require.Equal(t, 512, chunks[0].TokenCount)
	require.Equal(t, 512, chunks[1].TokenCount)
	require.Equal(t, 76, chunks[2].TokenCount) // 1000 - 2*462

	// chunk 2 shares exactly 50 tokens with chunk 1's tail
	tail := tok.Encode(chunks[1].Text)
	head := tok.Encode(chunks[2].Text)
	require.Equal(t, tail[len(tail)-50:], head[:50])
}

func TestSplitIDsAndSource(t *testing.T) {
	tok := tokenizer.Word{}
	chunks, err := Split(tok, tokens(100), "notes.txt", 10, 2)
	require.NoError(t, err)
	for i, c := range chunks {
		require.Equal(t, i, c.ChunkID)
		require.Equal(t, "notes.txt", c.SourceFile)
	}
}

func TestSplitReconstruction(t *testing.T) {
	tok := tokenizer.Word{}
	original := tok.Encode(tokens(317))
	for _, tc := range []struct{ max, overlap int }{{10, 3}, {64, 0}, {50, 49}, {512, 50}} {
		chunks, err := Split(tok, tokens(317), "doc", tc.max, tc.overlap)
		require.NoError(t, err)

		// Concatenating each chunk's non-overlapping portion restores
		// the original token sequence.
		var rebuilt []string
		for i, c := range chunks {
			ts := tok.Encode(c.Text)
			if i > 0 {
				ts = ts[tc.overlap:]
			}
			rebuilt = append(rebuilt, ts...)
		}
		require.Equal(t, original, rebuilt, "max=%d overlap=%d", tc.max, tc.overlap)
	}
}

func TestSplitValidation(t *testing.T) {
	tok := tokenizer.Word{}
	_, err := Split(tok, "a b c", "doc", 10, 10)
	require.Error(t, err)
	_, err = Split(tok, "a b c", "doc", 10, 20)
	require.Error(t, err)
	_, err = Split(tok, "a b c", "doc", 0, 0)
	require.Error(t, err)
	_, err = Split(tok, "a b c", "doc", 10, -1)
	require.Error(t, err)
}

func TestSplitShortAndEmpty(t *testing.T) {
	tok := tokenizer.Word{}
	chunks, err := Split(tok, "just a few words", "doc", 512, 50)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, 4, chunks[0].TokenCount)

	chunks, err = Split(tok, "   ", "doc", 512, 50)
	require.NoError(t, err)
	require.Empty(t, chunks)
}
