// Package storage defines the read-only content root abstraction.
package storage

import "time"

// FileInfo is the metadata returned by Stat and List.
type FileInfo struct {
	Path      string
	Size      int64
	UpdatedAt time.Time
}

// Provider is the interface for content-root file access.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Stat returns metadata for the file at path (relative to the root).
	Stat(path string) (FileInfo, error)
	// List returns metadata for every regular file under dir (relative to the root).
	List(dir string) ([]FileInfo, error)
	// Abs resolves path to an absolute location inside the root.
	Abs(path string) (string, error)
}
