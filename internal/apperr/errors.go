// Package apperr holds the error taxonomy shared across Vitrine components.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownSurface = errors.New("unknown selection surface")
	ErrNotNavigable   = errors.New("unit is not navigable")
	// ErrEmptyResult signals a filter with zero matches. It is a state, not a failure.
	ErrEmptyResult = errors.New("no results")
)

// LoadError reports a catalog fetch or parse failure.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog load from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// MediaResolutionError reports a per-unit media failure. Reason is the
// user-facing text shown on the fallback card.
type MediaResolutionError struct {
	Ref    string
	Reason string
	Err    error
}

func (e *MediaResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("media %q: %s: %v", e.Ref, e.Reason, e.Err)
	}
	return fmt.Sprintf("media %q: %s", e.Ref, e.Reason)
}

func (e *MediaResolutionError) Unwrap() error { return e.Err }
