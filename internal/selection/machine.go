package selection

import (
	"sync"

	"github.com/starford/vitrine/internal/apperr"
)

// Surface names a selector presentation holding its own draft.
type Surface string

// The two selector surfaces of the catalog page.
const (
	Compact  Surface = "compact"
	Expanded Surface = "expanded"
)

// CommitFunc observes a new committed selection.
type CommitFunc func(committed Selection)

// Machine owns one committed selection and an independent draft per
// surface. Whichever surface commits last wins.
type Machine struct {
	mu        sync.Mutex
	committed Selection
	drafts    map[Surface]Selection
	onCommit  CommitFunc
}

// NewMachine creates a machine with the given surfaces, all starting at All.
func NewMachine(surfaces ...Surface) *Machine {
	if len(surfaces) == 0 {
		surfaces = []Surface{Compact, Expanded}
	}
	m := &Machine{drafts: make(map[Surface]Selection, len(surfaces))}
	for _, s := range surfaces {
		m.drafts[s] = All()
	}
	return m
}

// OnCommit registers the observer called after every commit. It runs
// outside the machine lock.
func (m *Machine) OnCommit(fn CommitFunc) {
	m.mu.Lock()
	m.onCommit = fn
	m.mu.Unlock()
}

// has reports whether name is a registered surface.
func (m *Machine) has(name Surface) bool {
	_, ok := m.drafts[name]
	return ok
}

// Toggle applies key to the surface draft and returns the new draft.
func (m *Machine) Toggle(name Surface, key string) (Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has(name) {
		return Selection{}, apperr.ErrUnknownSurface
	}
	next := m.drafts[name].Toggle(key)
	m.drafts[name] = next
	return next, nil
}

// Commit copies the surface draft into the committed selection and
// notifies the commit observer.
func (m *Machine) Commit(name Surface) (Selection, error) {
	m.mu.Lock()
	if !m.has(name) {
		m.mu.Unlock()
		return Selection{}, apperr.ErrUnknownSurface
	}
	m.committed = m.drafts[name]
	committed, fn := m.committed, m.onCommit
	m.mu.Unlock()

	if fn != nil {
		fn(committed)
	}
	return committed, nil
}

// ResetDraft sets the surface draft to All. The committed selection is
// untouched until Commit.
func (m *Machine) ResetDraft(name Surface) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has(name) {
		return apperr.ErrUnknownSurface
	}
	m.drafts[name] = All()
	return nil
}

// SyncDraftFromCommitted starts an editing session on the surface from
// the last applied selection.
func (m *Machine) SyncDraftFromCommitted(name Surface) (Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has(name) {
		return Selection{}, apperr.ErrUnknownSurface
	}
	m.drafts[name] = m.committed
	return m.committed, nil
}

// Draft returns the current draft of a surface.
func (m *Machine) Draft(name Surface) (Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has(name) {
		return Selection{}, apperr.ErrUnknownSurface
	}
	return m.drafts[name], nil
}

// Committed returns the selection used for filtering.
func (m *Machine) Committed() Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committed
}
