package imagestore

import (
	"context"

	"textile-store/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store.
type MockStore struct {
	mock.Mock
	name string
}

func (m *MockStore) Save(ctx context.Context, upload model.ImageUpload) (model.Image, error) {
	args := m.Called(ctx, upload)
	return args.Get(0).(model.Image), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, image model.Image) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *MockStore) Name() string {
	return m.name
}
