package imagestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"textile-store/internal/config"
	"textile-store/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFallbackStore_PrimarySuccess(t *testing.T) {
	primary := &MockStore{name: config.ImageBackendS3}
	secondary := &MockStore{name: config.ImageBackendDisk}
	upload := model.ImageUpload{Data: pngHeader, ContentType: "image/png"}

	primary.On("Save", mock.Anything, upload).Return(model.Image{Backend: config.ImageBackendS3, Key: "products/a.png"}, nil)

	store := NewFallbackStore(primary, secondary, zerolog.Nop())
	image, err := store.Save(context.Background(), upload)

	require.NoError(t, err)
	assert.Equal(t, config.ImageBackendS3, image.Backend)
	assert.Equal(t, config.ImageBackendS3, store.Name())
	secondary.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestFallbackStore_PrimaryFailsFallsBack(t *testing.T) {
	primary := &MockStore{name: config.ImageBackendS3}
	secondary := &MockStore{name: config.ImageBackendDisk}
	upload := model.ImageUpload{Data: pngHeader, ContentType: "image/png"}

	primary.On("Save", mock.Anything, upload).Return(model.Image{}, errors.New("S3 connection failed"))
	secondary.On("Save", mock.Anything, upload).Return(model.Image{Backend: config.ImageBackendDisk, Key: "products/a.png"}, nil)

	store := NewFallbackStore(primary, secondary, zerolog.Nop())
	image, err := store.Save(context.Background(), upload)

	require.NoError(t, err)
	assert.Equal(t, config.ImageBackendDisk, image.Backend)
}

func TestFallbackStore_BothFail(t *testing.T) {
	primary := &MockStore{name: config.ImageBackendS3}
	secondary := &MockStore{name: config.ImageBackendDisk}

	primary.On("Save", mock.Anything, mock.Anything).Return(model.Image{}, errors.New("S3 connection failed"))
	secondary.On("Save", mock.Anything, mock.Anything).Return(model.Image{}, errors.New("disk full"))

	store := NewFallbackStore(primary, secondary, zerolog.Nop())
	_, err := store.Save(context.Background(), model.ImageUpload{Data: pngHeader, ContentType: "image/png"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestFallbackStore_DeleteRoutesByBackend(t *testing.T) {
	primary := &MockStore{name: config.ImageBackendS3}
	secondary := &MockStore{name: config.ImageBackendDisk}
	s3Image := model.Image{Backend: config.ImageBackendS3, Key: "products/a.png"}
	diskImage := model.Image{Backend: config.ImageBackendDisk, Key: "products/b.png"}

	primary.On("Delete", mock.Anything, s3Image).Return(nil).Once()
	secondary.On("Delete", mock.Anything, diskImage).Return(nil).Once()

	store := NewFallbackStore(primary, secondary, zerolog.Nop())
	require.NoError(t, store.Delete(context.Background(), s3Image))
	require.NoError(t, store.Delete(context.Background(), diskImage))

	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
}

func TestFallbackStore_SweepDelegatesToDisk(t *testing.T) {
	disk := newTestDiskStore(t)
	store := NewFallbackStore(&MockStore{name: config.ImageBackendS3}, disk, zerolog.Nop())

	sweeper, ok := store.(Sweeper)
	require.True(t, ok)

	removed, err := sweeper.Sweep(context.Background(), nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestNewFallbackStore_NoSecondary(t *testing.T) {
	primary := &MockStore{name: config.ImageBackendS3}
	assert.Same(t, primary, NewFallbackStore(primary, nil, zerolog.Nop()))
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, &config.Config{Images: config.ImagesConfig{Backend: config.ImageBackendInline}}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, config.ImageBackendInline, store.Name())

	store, err = New(ctx, &config.Config{Images: config.ImagesConfig{Backend: config.ImageBackendDisk, UploadDir: t.TempDir()}}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &DiskStore{}, store)

	_, err = New(ctx, &config.Config{Images: config.ImagesConfig{Backend: "ftp"}}, zerolog.Nop())
	assert.Error(t, err)
}
