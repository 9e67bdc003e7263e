package repository

import (
	"context"
	"time"

	"textile-store/internal/model"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves products newest first with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. It returns nil when the
	// product does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create inserts a new product and fills in its timestamps.
	Create(ctx context.Context, product *model.Product) error

	// Update overwrites every mutable column of the product. It reports
	// false when no product has the given ID.
	Update(ctx context.Context, product *model.Product) (bool, error)

	// Delete removes a product and returns the deleted row, or nil when it
	// did not exist.
	Delete(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Search matches query as a case-insensitive substring of product names.
	Search(ctx context.Context, query string, limit int) ([]model.Product, error)

	// Count returns the number of products.
	Count(ctx context.Context) (int, error)

	// ImageKeys returns the keys of every image stored in the given backend
	// that is still referenced by a product.
	ImageKeys(ctx context.Context, backend string) ([]string, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// Create inserts a new order and fills in its timestamps.
	Create(ctx context.Context, order *model.Order) error

	// GetByID retrieves an order by its ID. It returns nil when the order
	// does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// List returns orders newest first, each joined with the current main
	// image of its product.
	List(ctx context.Context, filter model.OrderFilter) ([]model.OrderView, error)

	// UpdateStatus moves an order from one status to another only if it is
	// still in the from status. It returns the updated order, or nil when
	// the order is missing or its status has changed in the meantime.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error)

	// Stats aggregates counts and revenue for the dashboard.
	Stats(ctx context.Context) (*model.DashboardStats, error)
}

// SessionRepository stores revoked admin session tokens until they expire.
type SessionRepository interface {
	Revoke(ctx context.Context, tokenID uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID uuid.UUID) (bool, error)
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
}
