// Package render turns a filtered record sequence into card units and
// tracks their loading state.
package render

import (
	"github.com/starford/vitrine/internal/media"
	"github.com/starford/vitrine/internal/models"
)

// State is the presentation state of a card unit.
type State int

// Card unit states. Loaded and Failed are terminal.
const (
	Pending State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool { return s == Loaded || s == Failed }

// Unit is a point-in-time copy of one card unit.
type Unit struct {
	ID     string            `json:"id"`
	Slot   int               `json:"slot"`
	State  State             `json:"state"`
	Reason string            `json:"reason,omitempty"`
	Media  *media.Descriptor `json:"media,omitempty"`
	Record models.Record     `json:"record"`
}

// card is the live, view-owned state behind a Unit.
type card struct {
	id     string
	slot   int
	record models.Record
	state  State
	reason string
	media  *media.Descriptor
}

func (c *card) snapshot() Unit {
	return Unit{
		ID:     c.id,
		Slot:   c.slot,
		State:  c.state,
		Reason: c.reason,
		Media:  c.media,
		Record: c.record,
	}
}
