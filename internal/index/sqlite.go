package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"nudge/internal/models"
)

const sqliteName = "index.db"

// SQLiteArtifact persists the index in a sqlite database. The whole
// table is replaced on save and read back fully on load; search stays
// in memory either way.
type SQLiteArtifact struct {
	dir string
}

func NewSQLiteArtifact(dir string) *SQLiteArtifact { return &SQLiteArtifact{dir: dir} }

func (a *SQLiteArtifact) path() string { return filepath.Join(a.dir, sqliteName) }

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
  pos         INTEGER PRIMARY KEY,
  chunk_id    INTEGER NOT NULL,
  source_file TEXT NOT NULL,
  text        TEXT NOT NULL,
  token_count INTEGER NOT NULL,
  vector      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS index_meta (
  id    INTEGER PRIMARY KEY CHECK (id = 1),
  model TEXT NOT NULL,
  dim   INTEGER NOT NULL
);`

func (a *SQLiteArtifact) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", a.path())
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init index db schema: %w", err)
	}
	return db, nil
}

func (a *SQLiteArtifact) Load() (*Index, time.Time, error) {
	fi, err := os.Stat(a.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, time.Time{}, ErrNoArtifact
		}
		return nil, time.Time{}, fmt.Errorf("stat index db: %w", err)
	}
	db, err := a.open()
	if err != nil {
		return nil, time.Time{}, err
	}
	defer db.Close()

	ix := &Index{}
	row := db.QueryRow(`SELECT model, dim FROM index_meta WHERE id = 1`)
	if err := row.Scan(&ix.Model, &ix.Dimension); err != nil {
		if err == sql.ErrNoRows {
			return nil, time.Time{}, ErrNoArtifact
		}
		return nil, time.Time{}, fmt.Errorf("read index meta: %w", err)
	}
	rows, err := db.Query(`SELECT chunk_id, source_file, text, token_count, vector FROM embeddings ORDER BY pos`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read embeddings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c models.Chunk
		var vecJSON string
		if err := rows.Scan(&c.ChunkID, &c.SourceFile, &c.Text, &c.TokenCount, &vecJSON); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan embedding row: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(vecJSON), &vec); err != nil {
			return nil, time.Time{}, fmt.Errorf("decode embedding vector: %w", err)
		}
		ix.Records = append(ix.Records, Record{Chunk: c, Vector: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("read embeddings: %w", err)
	}
	return ix, fi.ModTime(), nil
}

func (a *SQLiteArtifact) Save(ix *Index) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	db, err := a.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin index save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM index_meta`); err != nil {
		return fmt.Errorf("clear index meta: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO index_meta(id, model, dim) VALUES(1, ?, ?)`, ix.Model, ix.Dimension); err != nil {
		return fmt.Errorf("write index meta: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO embeddings(pos, chunk_id, source_file, text, token_count, vector) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare embedding insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range ix.Records {
		vecJSON, err := json.Marshal(r.Vector)
		if err != nil {
			return fmt.Errorf("encode embedding vector: %w", err)
		}
		if _, err := stmt.Exec(i, r.Chunk.ChunkID, r.Chunk.SourceFile, r.Chunk.Text, r.Chunk.TokenCount, string(vecJSON)); err != nil {
			return fmt.Errorf("write embedding %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index save: %w", err)
	}
	return nil
}
