package imagestore

import (
	"context"
	"time"

	"textile-store/internal/model"

	"github.com/rs/zerolog"
)

// fallbackStore saves to a primary store and falls back to a secondary one
// when the primary fails. Deletes are routed by the backend recorded in the
// image reference.
type fallbackStore struct {
	primary   Store
	secondary Store
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that tries primary first, then secondary.
// If secondary is nil the primary is returned unchanged.
func NewFallbackStore(primary, secondary Store, logger zerolog.Logger) Store {
	if secondary == nil {
		return primary
	}
	return &fallbackStore{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-image-store").Logger(),
	}
}

func (s *fallbackStore) Name() string {
	return s.primary.Name()
}

func (s *fallbackStore) Save(ctx context.Context, upload model.ImageUpload) (model.Image, error) {
	image, err := s.primary.Save(ctx, upload)
	if err == nil {
		return image, nil
	}
	if ctx.Err() != nil {
		return model.Image{}, err
	}

	s.logger.Warn().
		Err(err).
		Str("primary", s.primary.Name()).
		Str("secondary", s.secondary.Name()).
		Msg("failed to save image to primary store, falling back")

	return s.secondary.Save(ctx, upload)
}

func (s *fallbackStore) Delete(ctx context.Context, image model.Image) error {
	if image.Backend == s.secondary.Name() {
		return s.secondary.Delete(ctx, image)
	}
	return s.primary.Delete(ctx, image)
}

// Sweep delegates to whichever underlying store can sweep.
func (s *fallbackStore) Sweep(ctx context.Context, referenced []string, cutoff time.Time) (int, error) {
	for _, store := range []Store{s.primary, s.secondary} {
		if sweeper, ok := store.(Sweeper); ok {
			return sweeper.Sweep(ctx, referenced, cutoff)
		}
	}
	return 0, nil
}
