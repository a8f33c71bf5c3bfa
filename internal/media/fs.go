package media

import (
	"context"
	"errors"
	"io/fs"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/storage"
)

// FSResolver resolves media from the images directory of a content root.
type FSResolver struct {
	store storage.Provider
}

// NewFSResolver creates a resolver reading from store.
func NewFSResolver(store storage.Provider) *FSResolver {
	return &FSResolver{store: store}
}

// Resolve reads images/<ref> and checks that it decodes as the declared format.
func (r *FSResolver) Resolve(ctx context.Context, ref string) (Descriptor, error) {
	if ref == "" {
		return Descriptor{}, &apperr.MediaResolutionError{Ref: ref, Reason: "missing media reference"}
	}
	if err := ctx.Err(); err != nil {
		return Descriptor{}, &apperr.MediaResolutionError{Ref: ref, Reason: "Image failed to load", Err: err}
	}
	p := Path(ref)
	data, err := r.store.Read(p)
	if err != nil {
		reason := "Image failed to load"
		if errors.Is(err, fs.ErrNotExist) {
			reason = "Image not found"
		}
		return Descriptor{}, &apperr.MediaResolutionError{Ref: ref, Reason: reason, Err: err}
	}
	ct, err := sniff(data, p)
	if err != nil {
		return Descriptor{}, &apperr.MediaResolutionError{Ref: ref, Reason: "Image failed to load", Err: err}
	}
	return Descriptor{Path: p, ContentType: ct, Size: int64(len(data))}, nil
}
