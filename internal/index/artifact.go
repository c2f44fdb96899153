package index

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNoArtifact means no persisted index exists yet.
var ErrNoArtifact = errors.New("no index artifact")

// NewPersister returns the persistence backend selected by name.
func NewPersister(backend, dir string) (Persister, error) {
	switch backend {
	case "", "gob":
		return NewGobArtifact(dir), nil
	case "sqlite":
		return NewSQLiteArtifact(dir), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", backend)
	}
}

const artifactName = "index.gob"

// GobArtifact persists the index as a single gob file in dir. The
// file's modification time is the staleness reference.
type GobArtifact struct {
	dir string
}

func NewGobArtifact(dir string) *GobArtifact { return &GobArtifact{dir: dir} }

func (a *GobArtifact) path() string { return filepath.Join(a.dir, artifactName) }

func (a *GobArtifact) Load() (*Index, time.Time, error) {
	fi, err := os.Stat(a.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, time.Time{}, ErrNoArtifact
		}
		return nil, time.Time{}, fmt.Errorf("stat index artifact: %w", err)
	}
	f, err := os.Open(a.path())
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("open index artifact: %w", err)
	}
	defer f.Close()
	var ix Index
	if err := gob.NewDecoder(f).Decode(&ix); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode index artifact: %w", err)
	}
	return &ix, fi.ModTime(), nil
}

// Save writes atomically via a temp file rename so a crashed write
// never leaves a truncated artifact behind.
func (a *GobArtifact) Save(ix *Index) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(a.dir, artifactName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create index artifact: %w", err)
	}
	if err := gob.NewEncoder(tmp).Encode(ix); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode index artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close index artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), a.path()); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace index artifact: %w", err)
	}
	return nil
}
