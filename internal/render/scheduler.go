package render

import (
	"sync"

	"github.com/starford/vitrine/internal/models"
)

// Starter begins loading passes for a freshly built view.
type Starter interface {
	Start(v *View)
}

// Scheduler owns the current view. Every rebuild discards the previous
// generation without cancelling work in flight for it.
type Scheduler struct {
	starter Starter

	mu      sync.RWMutex
	current *View
}

// NewScheduler creates a scheduler handing new views to starter.
func NewScheduler(starter Starter) *Scheduler {
	return &Scheduler{starter: starter}
}

// Rebuild replaces the current view with Pending units for records.
// An empty result yields an empty view, the "no results" signal.
func (s *Scheduler) Rebuild(records []models.Record) *View {
	v := NewView(records)

	s.mu.Lock()
	old := s.current
	s.current = v
	s.mu.Unlock()

	if old != nil {
		old.Discard()
	}
	if s.starter != nil {
		s.starter.Start(v)
	}
	return v
}

// Current returns the displayed view, or nil before the first rebuild.
func (s *Scheduler) Current() *View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
