package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/vitrine/internal/apperr"
)

const maxImageBytes = 10 << 20 // 10 MB

// HTTPResolver fetches media from <baseURL>/images/<ref>.
type HTTPResolver struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPResolver creates a resolver against baseURL. A zero timeout
// leaves requests unbounded.
func NewHTTPResolver(baseURL string, timeout time.Duration) (*HTTPResolver, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("media: invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("media: unsupported scheme: %s (only http/https)", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &HTTPResolver{
		base: u,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (max 5)")
				}
				return nil
			},
		},
	}, nil
}

// Resolve downloads the image and verifies its content type.
func (r *HTTPResolver) Resolve(ctx context.Context, ref string) (Descriptor, error) {
	if ref == "" {
		return Descriptor{}, &apperr.MediaResolutionError{Ref: ref, Reason: "missing media reference"}
	}
	p := Path(ref)
	target := r.base.ResolveReference(&url.URL{Path: p})

	fail := func(err error) (Descriptor, error) {
		return Descriptor{}, &apperr.MediaResolutionError{Ref: ref, Reason: "Image failed to load", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fail(err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fail(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return fail(fmt.Errorf("read body: %w", err))
	}
	if len(data) > maxImageBytes {
		return fail(fmt.Errorf("image too large: exceeds %d bytes", maxImageBytes))
	}
	ct, err := sniff(data, p)
	if err != nil {
		return fail(err)
	}
	return Descriptor{Path: p, ContentType: ct, Size: int64(len(data))}, nil
}
