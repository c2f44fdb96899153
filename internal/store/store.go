// Package store persists chunks as line-delimited JSON, one file per
// source document, under a configured directory.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"nudge/internal/models"
)

type Store struct {
	dir string
}

func New(dir string) *Store { return &Store{dir: dir} }

func (s *Store) Dir() string { return s.dir }

// WriteSource writes the chunks of one source document to
// <sanitized-source>.jsonl, replacing any previous file for that
// source.
func (s *Store) WriteSource(source string, chunks []models.Chunk) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create chunks dir: %w", err)
	}
	path := filepath.Join(s.dir, sanitize(source)+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chunk file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, c := range chunks {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("write chunk %d of %s: %w", c.ChunkID, source, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush chunk file: %w", err)
	}
	return f.Sync()
}

// ReadAll loads every chunk from every *.jsonl file in the store, in
// filename order so index insertion order is deterministic. Blank
// lines are skipped; a malformed line is a storage error.
func (s *Store) ReadAll() ([]models.Chunk, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	var chunks []models.Chunk
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open chunk file: %w", err)
		}
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		line := 0
		for sc.Scan() {
			line++
			text := strings.TrimSpace(sc.Text())
			if text == "" {
				continue
			}
			var c models.Chunk
			if err := json.Unmarshal([]byte(text), &c); err != nil {
				f.Close()
				return nil, fmt.Errorf("corrupt chunk record %s:%d: %w", filepath.Base(path), line, err)
			}
			chunks = append(chunks, c)
		}
		err = sc.Err()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
	}
	return chunks, nil
}

// LatestModTime returns the newest modification time across chunk
// files, or the zero time when the store is empty.
func (s *Store) LatestModTime() (time.Time, error) {
	files, err := s.files()
	if err != nil {
		return time.Time{}, err
	}
	var latest time.Time
	for _, path := range files {
		fi, err := os.Stat(path)
		if err != nil {
			return time.Time{}, fmt.Errorf("stat chunk file: %w", err)
		}
		if fi.ModTime().After(latest) {
			latest = fi.ModTime()
		}
	}
	return latest, nil
}

func (s *Store) files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read chunks dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		files = append(files, filepath.Join(s.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// sanitize maps a source identifier to a safe file stem.
func sanitize(source string) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "source"
	}
	return b.String()
}
