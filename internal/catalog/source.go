package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starford/vitrine/internal/storage"
)

const maxPayloadBytes = 32 << 20 // 32 MB

// Source fetches the raw catalog document.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

// FileSource reads the catalog from a file under a content root.
type FileSource struct {
	store storage.Provider
	path  string
}

// NewFileSource creates a source reading path from store.
func NewFileSource(store storage.Provider, path string) *FileSource {
	return &FileSource{store: store, path: path}
}

// Name identifies the source in logs and errors.
func (s *FileSource) Name() string { return "file:" + s.path }

// Path returns the catalog path relative to the content root.
func (s *FileSource) Path() string { return s.path }

// Fetch reads the catalog file.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.Read(s.path)
}

// HTTPSource downloads the catalog document from a URL.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source fetching url with the given timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{url: url, client: &http.Client{Timeout: timeout}}
}

// Name identifies the source in logs and errors.
func (s *HTTPSource) Name() string { return s.url }

// Fetch performs the GET request. Any non-200 status is a failure.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network response was not ok: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("network response was not ok: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxPayloadBytes {
		return nil, fmt.Errorf("catalog too large: exceeds %d bytes", maxPayloadBytes)
	}
	return data, nil
}
