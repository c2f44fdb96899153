package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTextPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("design notes here"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Text(path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != "design notes here" {
		t.Fatalf("text = %q", got)
	}
}

func TestTextMissingFile(t *testing.T) {
	if _, err := Text(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTextBadPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Text(path); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}
