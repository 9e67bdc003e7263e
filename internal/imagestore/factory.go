package imagestore

import (
	"context"
	"fmt"

	"textile-store/internal/config"

	"github.com/rs/zerolog"
)

// New builds the store selected by cfg.Images.Backend. The S3 backend falls
// back to local disk when an upload directory is configured.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Images.Backend {
	case config.ImageBackendInline:
		return NewInlineStore(), nil
	case config.ImageBackendDisk:
		disk, err := NewDiskStore(cfg.Images.UploadDir, logger)
		if err != nil {
			return nil, err
		}
		return disk, nil
	case config.ImageBackendS3:
		primary, err := NewS3Store(ctx, cfg.S3, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Images.UploadDir == "" {
			return primary, nil
		}
		disk, err := NewDiskStore(cfg.Images.UploadDir, logger)
		if err != nil {
			return nil, err
		}
		return NewFallbackStore(primary, disk, logger), nil
	default:
		return nil, fmt.Errorf("unknown image backend %q", cfg.Images.Backend)
	}
}
