// Package catalog holds the loaded record collection and the sources it
// is loaded from.
package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/checksum"
	"github.com/starford/vitrine/internal/models"
)

// Snapshot is an immutable, newest-first view of the catalog.
type Snapshot struct {
	Records  []models.Record
	Checksum string
	Source   string
	LoadedAt time.Time
}

// Listener observes successful loads.
type Listener func(Snapshot)

// Store holds the current snapshot. Readers must not modify the returned
// record slices.
type Store struct {
	logger *slog.Logger

	mu        sync.RWMutex
	snap      Snapshot
	listeners []Listener
}

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// Subscribe registers a listener for successful loads.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Load fetches and parses the catalog from src. On success the snapshot
// is replaced and listeners are notified; on failure the previous
// snapshot is kept and a *apperr.LoadError is returned.
func (s *Store) Load(ctx context.Context, src Source) error {
	data, err := src.Fetch(ctx)
	if err != nil {
		s.logger.Error("catalog: fetch failed", slog.String("source", src.Name()), slog.String("error", err.Error()))
		return &apperr.LoadError{Source: src.Name(), Err: err}
	}
	records, err := Decode(data)
	if err != nil {
		s.logger.Error("catalog: parse failed", slog.String("source", src.Name()), slog.String("error", err.Error()))
		return &apperr.LoadError{Source: src.Name(), Err: err}
	}

	snap := Snapshot{
		Records:  newestFirst(records),
		Checksum: checksum.Sum(data),
		Source:   src.Name(),
		LoadedAt: time.Now(),
	}

	s.mu.Lock()
	s.snap = snap
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.logger.Info("catalog: loaded",
		slog.String("source", src.Name()),
		slog.Int("records", len(snap.Records)),
		slog.String("checksum", checksum.Short(snap.Checksum)))

	for _, fn := range listeners {
		fn(snap)
	}
	return nil
}

// All returns the current newest-first records; empty before the first
// successful load.
func (s *Store) All() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Records
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Loaded reports whether any load has succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Checksum != ""
}
