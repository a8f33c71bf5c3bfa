// Package testutil provides shared test helpers for setting up content
// roots and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/vitrine/internal/index"
	"github.com/starford/vitrine/internal/storage"
)

// CatalogJSON is a small catalog in source order (oldest first).
const CatalogJSON = `[
  {"id": 1, "fileName": "sunset", "title": "Sunset Beach", "image": "sunset.png", "description": "Warm evening light", "category": "Landscape"},
  {"id": 2, "fileName": "robot", "title": "Tin Robot", "image": "robot.png", "description": "Retro toy", "category": "scifi"},
  {"id": "p-3", "fileName": "forest", "title": "Misty Forest", "image": "missing.png", "description": "Fog between pines", "category": "landscape"},
  {"id": 4, "fileName": "note", "title": "Plain Note", "description": "No picture here", "category": ""}
]`

// PNG is the header of a 1x1 PNG image; enough to pass content sniffing.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// Logger returns a logger that discards everything below error level.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "vitrine-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSite creates a temporary content root holding prompt.json and the
// images referenced by CatalogJSON (except missing.png).
func TestSite(t *testing.T) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "prompt.json"), []byte(CatalogJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"sunset.png", "robot.png"} {
		if err := os.WriteFile(filepath.Join(root, "images", name), PNG, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}
