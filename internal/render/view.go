package render

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/vitrine/internal/media"
	"github.com/starford/vitrine/internal/models"
)

// View is one generation of card units built from a filtered sequence.
// A view is discarded, never reused, when the scheduler rebuilds.
type View struct {
	ID string

	mu        sync.RWMutex
	cards     []*card
	byID      map[string]*card
	discarded bool
}

// NewView creates Pending units for records, in order.
func NewView(records []models.Record) *View {
	v := &View{
		ID:    uuid.New().String(),
		cards: make([]*card, len(records)),
		byID:  make(map[string]*card, len(records)),
	}
	for i, r := range records {
		c := &card{id: fmt.Sprintf("%s-%d", v.ID[:8], i), slot: i, record: r}
		v.cards[i] = c
		v.byID[c.id] = c
	}
	return v
}

// Len returns the number of units.
func (v *View) Len() int { return len(v.cards) }

// Empty reports the "no results" signal.
func (v *View) Empty() bool { return len(v.cards) == 0 }

// Units returns a copy of every unit in scan order.
func (v *View) Units() []Unit {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Unit, len(v.cards))
	for i, c := range v.cards {
		out[i] = c.snapshot()
	}
	return out
}

// Unit returns one unit by id.
func (v *View) Unit(id string) (Unit, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c, ok := v.byID[id]
	if !ok {
		return Unit{}, false
	}
	return c.snapshot(), true
}

// Counts tallies units per state.
func (v *View) Counts() map[State]int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[State]int, 4)
	for _, c := range v.cards {
		out[c.state]++
	}
	return out
}

// Unsettled returns how many units are still Pending or Loading.
func (v *View) Unsettled() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n := 0
	for _, c := range v.cards {
		if !c.state.Terminal() {
			n++
		}
	}
	return n
}

// MarkLoading moves a Pending unit to Loading.
func (v *View) MarkLoading(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.byID[id]
	if !ok || c.state != Pending {
		return false
	}
	c.state = Loading
	return true
}

// Resolve records a successful resolution on a Pending or Loading unit.
func (v *View) Resolve(id string, d media.Descriptor) (Unit, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.byID[id]
	if !ok || c.state.Terminal() {
		return Unit{}, false
	}
	c.state = Loaded
	c.media = &d
	return c.snapshot(), true
}

// Fail records a terminal failure on a Pending or Loading unit.
func (v *View) Fail(id, reason string) (Unit, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.byID[id]
	if !ok || c.state.Terminal() {
		return Unit{}, false
	}
	c.state = Failed
	c.reason = reason
	return c.snapshot(), true
}

// Discard marks the view as replaced. Late resolutions may still update
// its units; nothing observes them anymore.
func (v *View) Discard() {
	v.mu.Lock()
	v.discarded = true
	v.mu.Unlock()
}

// Discarded reports whether the view has been replaced.
func (v *View) Discarded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.discarded
}
