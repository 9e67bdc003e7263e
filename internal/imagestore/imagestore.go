// Package imagestore saves product images to a configurable backend and
// produces the references stored alongside products.
package imagestore

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"textile-store/internal/model"

	"golang.org/x/sync/errgroup"
)

// Store persists image uploads and removes stored images.
type Store interface {
	// Save stores the upload and returns a reference to it.
	Save(ctx context.Context, upload model.ImageUpload) (model.Image, error)

	// Delete removes a stored image. Deleting an image that no longer
	// exists is not an error.
	Delete(ctx context.Context, image model.Image) error

	// Name identifies the backend and is recorded in each image reference.
	Name() string
}

// Sweeper is implemented by stores that can find and remove files which
// no product references.
type Sweeper interface {
	// Sweep removes stored objects not listed in referenced that were last
	// modified before cutoff. It returns the number of objects removed.
	Sweep(ctx context.Context, referenced []string, cutoff time.Time) (int, error)
}

// SaveAll saves uploads concurrently and returns their references in input
// order. If any save fails, images already saved are deleted.
func SaveAll(ctx context.Context, store Store, uploads []model.ImageUpload) ([]model.Image, error) {
	images := make([]model.Image, len(uploads))
	saved := make([]bool, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range uploads {
		g.Go(func() error {
			image, err := store.Save(gctx, uploads[i])
			if err != nil {
				return err
			}
			images[i] = image
			saved[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		cleanup := context.WithoutCancel(ctx)
		for i, ok := range saved {
			if ok {
				_ = store.Delete(cleanup, images[i])
			}
		}
		return nil, err
	}

	return images, nil
}

// DeleteAll deletes each image and returns how many deletions failed.
func DeleteAll(ctx context.Context, store Store, images []model.Image) int {
	failed := 0
	for _, image := range images {
		if err := store.Delete(ctx, image); err != nil {
			failed++
		}
	}
	return failed
}

func invalidImage(format string, args ...any) *model.DomainError {
	return model.NewDomainError(model.ErrCodeInvalidImage, fmt.Sprintf(format, args...))
}

// NewUpload builds an upload from raw bytes. The content type is taken from
// declaredType when given and sniffed from the data otherwise; either way it
// must be an image type.
func NewUpload(data []byte, declaredType, filename string) (model.ImageUpload, error) {
	if len(data) == 0 {
		return model.ImageUpload{}, invalidImage("image is empty")
	}

	contentType := normaliseContentType(declaredType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = normaliseContentType(http.DetectContentType(data))
	}
	if !acceptedType(contentType) {
		return model.ImageUpload{}, invalidImage("unsupported content type %q", contentType)
	}

	return model.ImageUpload{
		Data:        data,
		ContentType: contentType,
		Filename:    filepath.Base(filename),
	}, nil
}

// DecodeUpload parses a base64 payload, which may also be a complete data
// URI, into an upload.
func DecodeUpload(payload, declaredType string) (model.ImageUpload, error) {
	payload = strings.TrimSpace(payload)

	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		header, encoded, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return model.ImageUpload{}, invalidImage("malformed data URI")
		}
		if declaredType == "" {
			declaredType = strings.TrimSuffix(header, ";base64")
		}
		payload = encoded
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return model.ImageUpload{}, invalidImage("image data is not valid base64")
		}
	}

	return NewUpload(data, declaredType, "")
}

// Validate checks an upload against the configured size limit.
func Validate(upload model.ImageUpload, maxBytes int64) error {
	if len(upload.Data) == 0 {
		return invalidImage("image is empty")
	}
	if maxBytes > 0 && int64(len(upload.Data)) > maxBytes {
		return invalidImage("image exceeds %d bytes", maxBytes)
	}
	if !acceptedType(upload.ContentType) {
		return invalidImage("unsupported content type %q", upload.ContentType)
	}
	return nil
}

// acceptedType reports whether uploads of contentType may be stored. SVG
// documents can carry script and are refused.
func acceptedType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") && contentType != "image/svg+xml"
}

func normaliseContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

var extensions = map[string]string{
	"image/jpeg":   ".jpg",
	"image/png":    ".png",
	"image/gif":    ".gif",
	"image/webp":   ".webp",
	"image/bmp":    ".bmp",
	"image/avif":   ".avif",
	"image/tiff":   ".tiff",
	"image/x-icon": ".ico",
}

// extensionFor picks a file extension implied by the upload's content type.
// The client's filename is not consulted.
func extensionFor(upload model.ImageUpload) string {
	if ext, ok := extensions[upload.ContentType]; ok {
		return ext
	}
	return ".img"
}
