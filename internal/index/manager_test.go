package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nudge/internal/llm/embed"
	"nudge/internal/models"
	"nudge/internal/store"
)

// countingEmbedder wraps the deterministic embedder and counts batch
// calls so tests can tell a load from a rebuild.
type countingEmbedder struct {
	*embed.Simple
	batches int
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batches++
	return c.Simple.EmbedBatch(ctx, texts)
}

func seedStore(t *testing.T, dir string) *store.Store {
	t.Helper()
	s := store.New(dir)
	err := s.WriteSource("patterns.pdf", []models.Chunk{
		{ChunkID: 0, Text: "use Redis for caching", TokenCount: 4, SourceFile: "patterns.pdf"},
		{ChunkID: 1, Text: "shard the database", TokenCount: 3, SourceFile: "patterns.pdf"},
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return s
}

func TestManagerGetBeforeBuild(t *testing.T) {
	m := NewManager(store.New(t.TempDir()), embed.NewSimple(16), NewGobArtifact(t.TempDir()), nil)
	if _, err := m.Get(); !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("err = %v, want ErrNotBuilt", err)
	}
	if m.Loaded() {
		t.Fatal("Loaded before build")
	}
}

func TestManagerBuildEmptyStore(t *testing.T) {
	m := NewManager(store.New(t.TempDir()), embed.NewSimple(16), NewGobArtifact(t.TempDir()), nil)
	if err := m.BuildOrLoad(context.Background()); !errors.Is(err, ErrNoChunks) {
		t.Fatalf("err = %v, want ErrNoChunks", err)
	}
}

func TestManagerBuildThenLoad(t *testing.T) {
	chunksDir, indexDir := t.TempDir(), t.TempDir()
	s := seedStore(t, chunksDir)

	emb := &countingEmbedder{Simple: embed.NewSimple(16)}
	m := NewManager(s, emb, NewGobArtifact(indexDir), nil)
	if err := m.BuildOrLoad(context.Background()); err != nil {
		t.Fatalf("build: %v", err)
	}
	if emb.batches != 1 {
		t.Fatalf("batches = %d, want 1", emb.batches)
	}
	ix, err := m.Get()
	if err != nil || len(ix.Records) != 2 {
		t.Fatalf("index after build: %v %v", ix, err)
	}

	// A fresh manager over the same dirs loads without embedding.
	emb2 := &countingEmbedder{Simple: embed.NewSimple(16)}
	m2 := NewManager(s, emb2, NewGobArtifact(indexDir), nil)
	if err := m2.BuildOrLoad(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if emb2.batches != 0 {
		t.Fatalf("fresh artifact should load, embedded %d batches", emb2.batches)
	}
}

func TestManagerStaleArtifactRebuilds(t *testing.T) {
	chunksDir, indexDir := t.TempDir(), t.TempDir()
	s := seedStore(t, chunksDir)

	emb := &countingEmbedder{Simple: embed.NewSimple(16)}
	m := NewManager(s, emb, NewGobArtifact(indexDir), nil)
	if err := m.BuildOrLoad(context.Background()); err != nil {
		t.Fatalf("build: %v", err)
	}

	// Make a chunk file newer than the artifact.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(chunksDir, "patterns.jsonl"), future, future); err != nil {
		t.Fatal(err)
	}
	emb2 := &countingEmbedder{Simple: embed.NewSimple(16)}
	m2 := NewManager(s, emb2, NewGobArtifact(indexDir), nil)
	if err := m2.BuildOrLoad(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if emb2.batches != 1 {
		t.Fatalf("stale artifact should rebuild, batches = %d", emb2.batches)
	}
}

func TestRebuildKeepsChunkIDSet(t *testing.T) {
	chunksDir, indexDir := t.TempDir(), t.TempDir()
	s := seedStore(t, chunksDir)
	m := NewManager(s, embed.NewSimple(16), NewGobArtifact(indexDir), nil)

	ids := func() []int {
		ix, err := m.Get()
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		out := make([]int, len(ix.Records))
		for i, r := range ix.Records {
			out[i] = r.Chunk.ChunkID
		}
		return out
	}
	if err := m.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	before := ids()
	if err := m.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	after := ids()
	if len(before) != len(after) {
		t.Fatalf("record count changed: %v -> %v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("chunk id set changed: %v -> %v", before, after)
		}
	}
}

func TestRebuildUnwritableIndexDir(t *testing.T) {
	chunksDir := t.TempDir()
	s := seedStore(t, chunksDir)
	m := NewManager(s, embed.NewSimple(16), NewGobArtifact(filepath.Join(os.DevNull, "nope")), nil)
	if err := m.Rebuild(context.Background()); err == nil {
		t.Fatal("expected persist error")
	}
	// The in-memory index still serves requests.
	if !m.Loaded() {
		t.Fatal("index should remain usable after persist failure")
	}
}
