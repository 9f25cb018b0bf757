package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/yaroph/connect/internal/domain"
)

// ImageStore persists binary image payloads addressed by filename.
type ImageStore interface {
	Put(ctx context.Context, filename string, data []byte, contentType string) error
	Fetch(ctx context.Context, filename string) ([]byte, string, error)
}

var dataURLPattern = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)

// IsInlineImage reports whether a string is a base64 data URL rather than a
// served image path.
func IsInlineImage(s string) bool {
	return strings.HasPrefix(s, "data:")
}

var extByContentType = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/jpg":     "jpg",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

var contentTypeByExt = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
}

// ContentTypeForFilename resolves a served filename back to its MIME type,
// defaulting to application/octet-stream for unknown extensions.
func ContentTypeForFilename(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return "application/octet-stream"
	}
	if ct, ok := contentTypeByExt[strings.ToLower(filename[i+1:])]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Images externalizes inline base64 images out of catalog documents into the
// image store, replacing them with stable served URLs.
type Images struct {
	store ImageStore
}

func NewImages(store ImageStore) *Images {
	return &Images{store: store}
}

// Store decodes a data URL and persists it under the given id, returning the
// public URL the document should carry instead.
func (im *Images) Store(ctx context.Context, dataURL, id string) (string, error) {
	m := dataURLPattern.FindStringSubmatch(dataURL)
	if m == nil {
		return "", domain.ErrInvalidImage
	}
	contentType := m[1]
	payload, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return "", fmt.Errorf("decode image payload: %w", err)
	}
	ext, ok := extByContentType[contentType]
	if !ok {
		ext = "bin"
	}
	filename := id + "." + ext
	if err := im.store.Put(ctx, filename, payload, contentType); err != nil {
		return "", fmt.Errorf("store image %s: %w", filename, err)
	}
	return "/api/images/" + filename, nil
}

// Fetch returns the raw bytes and content type for a served filename.
func (im *Images) Fetch(ctx context.Context, filename string) ([]byte, string, error) {
	data, contentType, err := im.store.Fetch(ctx, filename)
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = ContentTypeForFilename(filename)
	}
	return data, contentType, nil
}
