package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"nudge/internal/models"
)

func TestSQLiteArtifactRoundTrip(t *testing.T) {
	a := NewSQLiteArtifact(t.TempDir())

	_, _, err := a.Load()
	require.True(t, errors.Is(err, ErrNoArtifact))

	in := &Index{
		Records: []Record{
			{Chunk: models.Chunk{ChunkID: 0, Text: "alpha", TokenCount: 1, SourceFile: "a.pdf"}, Vector: []float32{0.1, 0.2}},
			{Chunk: models.Chunk{ChunkID: 1, Text: "beta", TokenCount: 1, SourceFile: "a.pdf"}, Vector: []float32{0.3, 0.4}},
		},
		Dimension: 2,
		Model:     "simple-hash-v1",
	}
	require.NoError(t, a.Save(in))

	out, mod, err := a.Load()
	require.NoError(t, err)
	require.False(t, mod.IsZero())
	require.Equal(t, in.Model, out.Model)
	require.Equal(t, in.Dimension, out.Dimension)
	require.Equal(t, in.Records, out.Records)
}

func TestSQLiteArtifactOverwrite(t *testing.T) {
	a := NewSQLiteArtifact(t.TempDir())
	first := &Index{
		Records:   []Record{{Chunk: models.Chunk{ChunkID: 0, Text: "old", TokenCount: 1, SourceFile: "s"}, Vector: []float32{1}}},
		Dimension: 1,
		Model:     "m1",
	}
	require.NoError(t, a.Save(first))

	second := &Index{
		Records: []Record{
			{Chunk: models.Chunk{ChunkID: 0, Text: "new", TokenCount: 1, SourceFile: "s"}, Vector: []float32{1}},
			{Chunk: models.Chunk{ChunkID: 1, Text: "newer", TokenCount: 1, SourceFile: "s"}, Vector: []float32{2}},
		},
		Dimension: 1,
		Model:     "m2",
	}
	require.NoError(t, a.Save(second))

	out, _, err := a.Load()
	require.NoError(t, err)
	require.Len(t, out.Records, 2)
	require.Equal(t, "m2", out.Model)
	require.Equal(t, "new", out.Records[0].Chunk.Text)
}
