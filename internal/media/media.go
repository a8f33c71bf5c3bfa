// Package media resolves the image behind a record's media reference.
package media

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Dir is the relative directory holding catalog images.
const Dir = "images"

// Descriptor describes a resolved media item.
type Descriptor struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Resolver resolves a media reference. Failures are reported as
// *apperr.MediaResolutionError.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (Descriptor, error)
}

// Path returns the relative reference for a media ref: images/<ref>.
func Path(ref string) string {
	return Dir + "/" + ref
}

var mimeToExt = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

var extToMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// ContentTypeFor returns the image MIME type for a file name, or "" when
// the extension is not a supported image format.
func ContentTypeFor(name string) string {
	return extToMIME[strings.ToLower(filepath.Ext(name))]
}

// sniff verifies that data looks like the image format its name declares
// and returns the detected content type. Names without a known extension
// are accepted when the content sniffs as an image, or when the sniffer is
// inconclusive and the extension maps to an image type (e.g. .avif).
func sniff(data []byte, name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	declared, ok := extToMIME[ext]
	if !ok {
		return sniffUnknown(data, ext)
	}
	if ext == ".svg" {
		prefix := data
		if len(prefix) > 1024 {
			prefix = prefix[:1024]
		}
		if !bytes.Contains(prefix, []byte("<svg")) {
			return "", fmt.Errorf("content does not appear to be a valid SVG")
		}
		return declared, nil
	}

	detected := strings.Split(http.DetectContentType(data), ";")[0]
	if mimeToExt[detected] != mimeToExt[declared] {
		return "", fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected)
	}
	return detected, nil
}

func sniffUnknown(data []byte, ext string) (string, error) {
	detected := strings.Split(http.DetectContentType(data), ";")[0]
	if strings.HasPrefix(detected, "image/") {
		return detected, nil
	}
	if detected == "application/octet-stream" && ext != "" {
		if byExt := strings.Split(mime.TypeByExtension(ext), ";")[0]; strings.HasPrefix(byExt, "image/") {
			return byExt, nil
		}
	}
	return "", fmt.Errorf("content is not an image (extension %q, detected: %s)", ext, detected)
}
