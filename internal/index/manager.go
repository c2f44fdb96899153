package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nudge/internal/llm"
	"nudge/internal/log"
	"nudge/internal/store"
)

var (
	// ErrNoChunks means the chunk store was empty at build time.
	ErrNoChunks = errors.New("no chunks found in chunk store")
	// ErrNotBuilt means no index has been built or loaded yet.
	ErrNotBuilt = errors.New("index not built")
)

// Manager owns the process-wide index. Reads take the current index
// under RLock; Rebuild constructs a fresh index off-lock and swaps the
// pointer, so concurrent readers see either the old or the new index,
// never a partially built one.
type Manager struct {
	mu      sync.RWMutex
	current *Index

	chunks  *store.Store
	emb     llm.Embedder
	persist Persister
	lg      *log.Logger
}

// Persister stores and restores the index artifact. Load reports the
// artifact's modification time so staleness against chunk files can be
// checked.
type Persister interface {
	Load() (*Index, time.Time, error)
	Save(*Index) error
}

func NewManager(chunks *store.Store, emb llm.Embedder, persist Persister, lg *log.Logger) *Manager {
	if lg == nil {
		lg = log.New()
	}
	return &Manager{chunks: chunks, emb: emb, persist: persist, lg: lg}
}

// Get returns the current index, or ErrNotBuilt before the first
// successful BuildOrLoad/Rebuild.
func (m *Manager) Get() (*Index, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, ErrNotBuilt
	}
	return m.current, nil
}

// Loaded reports whether an index is available.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

// BuildOrLoad loads the persisted index when it exists and is not
// older than any chunk file; otherwise it embeds all stored chunks,
// builds a fresh index and persists it.
func (m *Manager) BuildOrLoad(ctx context.Context) error {
	latest, err := m.chunks.LatestModTime()
	if err != nil {
		return err
	}
	if ix, mod, err := m.persist.Load(); err == nil && !mod.Before(latest) {
		m.lg.Info("index.loaded", "records", len(ix.Records), "dim", ix.Dimension, "model", ix.Model)
		m.swap(ix)
		return nil
	} else if err != nil && !errors.Is(err, ErrNoArtifact) {
		m.lg.Warn("index.load_failed", "err", err.Error())
	}
	return m.Rebuild(ctx)
}

// Rebuild reconstructs the index from the chunk store unconditionally
// and overwrites the persisted artifact.
func (m *Manager) Rebuild(ctx context.Context) error {
	ix, err := m.build(ctx)
	if err != nil {
		return err
	}
	if err := m.persist.Save(ix); err != nil {
		// The in-memory index is still usable; persisting again is a
		// matter of the next rebuild.
		m.lg.Error("index.persist_failed", "err", err.Error())
		m.swap(ix)
		return fmt.Errorf("persist index: %w", err)
	}
	m.lg.Info("index.built", "records", len(ix.Records), "dim", ix.Dimension, "model", ix.Model)
	m.swap(ix)
	return nil
}

func (m *Manager) build(ctx context.Context) (*Index, error) {
	chunks, err := m.chunks.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := m.emb.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}
	ix := &Index{
		Records: make([]Record, len(chunks)),
		Model:   m.emb.ModelInfo(),
	}
	for i := range chunks {
		ix.Records[i] = Record{Chunk: chunks[i], Vector: vecs[i]}
	}
	if len(vecs) > 0 {
		ix.Dimension = len(vecs[0])
	}
	return ix, nil
}

func (m *Manager) swap(ix *Index) {
	m.mu.Lock()
	m.current = ix
	m.mu.Unlock()
}
