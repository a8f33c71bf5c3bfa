package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vitrine/internal/media"
)

// MediaHandler serves catalog images from the content root.
type MediaHandler struct {
	root string
}

// NewMediaHandler creates a handler rooted at the content directory.
func NewMediaHandler(root string) *MediaHandler {
	return &MediaHandler{root: root}
}

// imagesPath returns the absolute path to the images directory.
func (h *MediaHandler) imagesPath() string {
	return filepath.Join(h.root, media.Dir)
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the images dir.
func (h *MediaHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.imagesPath(), cleaned)
	if !strings.HasPrefix(abs, h.imagesPath()+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes images directory")
	}
	return abs, nil
}

// ServeFile handles GET /images/{name}.
func (h *MediaHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.safeName(chi.URLParam(r, "name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	info, statErr := os.Stat(abs)
	if statErr != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	if ct := media.ContentTypeFor(abs); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, abs)
}
