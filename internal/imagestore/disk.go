package imagestore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"textile-store/internal/config"
	"textile-store/internal/model"

	"github.com/rs/zerolog"
)

// productsDir is the sub-directory of the upload root holding product images.
const productsDir = "products"

// URLPrefix is the path under which the upload root is served.
const URLPrefix = "/uploads/"

// UploadsHandler serves the upload root below URLPrefix. Responses are
// sandboxed so a stored file cannot run script on the store's origin.
func UploadsHandler(root string) http.Handler {
	files := http.StripPrefix(URLPrefix, http.FileServer(http.Dir(root)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "sandbox; default-src 'none'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}

// DiskStore writes images below an upload directory that is served over HTTP.
type DiskStore struct {
	root   string
	logger zerolog.Logger
}

// NewDiskStore creates root/products if needed and returns a store writing
// into it.
func NewDiskStore(root string, logger zerolog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(root, productsDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{
		root:   root,
		logger: logger.With().Str("component", "disk-image-store").Logger(),
	}, nil
}

// Root returns the upload directory.
func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) Name() string {
	return config.ImageBackendDisk
}

// Save writes the upload under a name made of the current time and a random
// suffix so concurrent uploads never collide.
func (s *DiskStore) Save(ctx context.Context, upload model.ImageUpload) (model.Image, error) {
	if err := ctx.Err(); err != nil {
		return model.Image{}, err
	}

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return model.Image{}, fmt.Errorf("failed to generate file name: %w", err)
	}
	name := strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + hex.EncodeToString(suffix) + extensionFor(upload)
	key := path.Join(productsDir, name)

	file, err := os.OpenFile(filepath.Join(s.root, filepath.FromSlash(key)), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to create image file")
		return model.Image{}, fmt.Errorf("failed to create image file: %w", err)
	}
	if _, err := file.Write(upload.Data); err != nil {
		file.Close()
		_ = os.Remove(file.Name())
		return model.Image{}, fmt.Errorf("failed to write image file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return model.Image{}, fmt.Errorf("failed to close image file: %w", err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(upload.Data)).Msg("image saved")

	return model.Image{
		URL:         URLPrefix + key,
		ContentType: upload.ContentType,
		Backend:     config.ImageBackendDisk,
		Key:         key,
	}, nil
}

// Delete removes the image file. Images from other backends are ignored.
func (s *DiskStore) Delete(_ context.Context, image model.Image) error {
	if image.Backend != config.ImageBackendDisk || image.Key == "" {
		return nil
	}

	fullPath, err := s.resolve(image.Key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn().Err(err).Str("key", image.Key).Msg("failed to delete image file")
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// resolve maps a key to a path, rejecting keys outside the products directory.
func (s *DiskStore) resolve(key string) (string, error) {
	clean := path.Clean(key)
	if !strings.HasPrefix(clean, productsDir+"/") || strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid image key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Sweep removes files under the products directory that are not referenced
// and were modified before cutoff.
func (s *DiskStore) Sweep(ctx context.Context, referenced []string, cutoff time.Time) (int, error) {
	keep := make(map[string]struct{}, len(referenced))
	for _, key := range referenced {
		keep[path.Clean(key)] = struct{}{}
	}

	entries, err := os.ReadDir(filepath.Join(s.root, productsDir))
	if err != nil {
		return 0, fmt.Errorf("failed to list upload directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() {
			continue
		}

		key := path.Join(productsDir, entry.Name())
		if _, ok := keep[key]; ok {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(s.root, productsDir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to remove orphaned image")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("orphaned images removed")
	}
	return removed, nil
}
