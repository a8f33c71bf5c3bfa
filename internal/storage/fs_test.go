package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempRoot(t *testing.T) (string, *FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return dir, fs
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRead(t *testing.T) {
	dir, s := tempRoot(t)
	writeFile(t, dir, "prompt.json", "[]")
	got, err := s.Read("prompt.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissing(t *testing.T) {
	_, s := tempRoot(t)
	_, err := s.Read("nope.json")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestStat(t *testing.T) {
	dir, s := tempRoot(t)
	writeFile(t, dir, "images/a.png", "12345")
	info, err := s.Stat("images/a.png")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size != 5 {
		t.Errorf("size = %d, want 5", info.Size)
	}
	if _, err := s.Stat("images"); err == nil {
		t.Error("stat of a directory should fail")
	}
}

func TestList(t *testing.T) {
	dir, s := tempRoot(t)
	writeFile(t, dir, "images/a.png", "a")
	writeFile(t, dir, "images/sub/b.png", "b")
	writeFile(t, dir, "prompt.json", "[]")

	files, err := s.List("images")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len = %d, want 2", len(files))
	}
	for _, f := range files {
		if f.Path != "images/a.png" && f.Path != "images/sub/b.png" {
			t.Errorf("unexpected path %q", f.Path)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	_, s := tempRoot(t)
	for _, p := range []string{"../escape.txt", "a/../../escape.txt", "/etc/passwd"} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("Read(%q) should fail", p)
		}
	}
}

func TestNewFS_NotDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	_ = os.WriteFile(file, []byte("x"), 0o644)
	if _, err := NewFS(file); err == nil {
		t.Error("expected error for non-directory root")
	}
}
