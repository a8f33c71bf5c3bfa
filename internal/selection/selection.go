// Package selection implements the category selection state machine:
// per-surface drafts that converge on one committed selection.
package selection

import (
	"sort"
	"strings"
)

// AllSentinel is the category key meaning "no category restriction".
const AllSentinel = "all"

// Selection is either All or a non-empty set of lower-cased category keys.
// The zero value is All. Values are immutable; transitions return copies.
type Selection struct {
	keys map[string]struct{}
}

// All returns the unrestricted selection.
func All() Selection { return Selection{} }

// Specific builds a selection from keys. Empty keys and the ALL sentinel
// are ignored; an empty result collapses to All.
func Specific(keys ...string) Selection {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		k = normalize(k)
		if k == "" || k == AllSentinel {
			continue
		}
		set[k] = struct{}{}
	}
	if len(set) == 0 {
		return All()
	}
	return Selection{keys: set}
}

// normalize cleans keys arriving from user input.
func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// IsAll reports whether the selection is unrestricted.
func (s Selection) IsAll() bool { return len(s.keys) == 0 }

// Contains reports whether key, compared case-insensitively, is a member
// of a Specific selection. It is always false for All.
func (s Selection) Contains(key string) bool {
	_, ok := s.keys[strings.ToLower(key)]
	return ok
}

// Matches reports whether a record category passes the selection.
func (s Selection) Matches(category string) bool {
	return s.IsAll() || s.Contains(category)
}

// Keys returns the members in sorted order, or [AllSentinel] for All.
func (s Selection) Keys() []string {
	if s.IsAll() {
		return []string{AllSentinel}
	}
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both selections hold the same state.
func (s Selection) Equal(o Selection) bool {
	if len(s.keys) != len(o.keys) {
		return false
	}
	for k := range s.keys {
		if _, ok := o.keys[k]; !ok {
			return false
		}
	}
	return true
}

// Toggle applies one button press to the selection.
func (s Selection) Toggle(key string) Selection {
	key = normalize(key)
	if key == AllSentinel {
		return All()
	}
	if key == "" {
		return s
	}
	next := make(map[string]struct{}, len(s.keys)+1)
	for k := range s.keys {
		next[k] = struct{}{}
	}
	if _, ok := next[key]; ok {
		delete(next, key)
	} else {
		next[key] = struct{}{}
	}
	if len(next) == 0 {
		return All()
	}
	return Selection{keys: next}
}

// String renders the selection for logs.
func (s Selection) String() string {
	return strings.Join(s.Keys(), ",")
}

// MarshalText encodes the selection as its comma-joined keys.
func (s Selection) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
