package service

import (
	"context"
	"io"

	"textile-store/internal/model"
)

// ProductService defines operations for catalogue management.
type ProductService interface {
	// List retrieves products newest first. A limit of zero returns every
	// product up to the listing cap.
	List(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Create validates the input, stores its images and inserts the product.
	Create(ctx context.Context, input *model.ProductInput) (*model.Product, error)

	// Update applies a partial update. Fields absent from the patch are
	// left unchanged; images are replaced only when new ones are supplied.
	Update(ctx context.Context, id string, patch *model.ProductPatch) (*model.Product, error)

	// Delete removes a product and its stored images.
	Delete(ctx context.Context, id string) error

	// Search finds products whose name contains query.
	Search(ctx context.Context, query string) ([]model.Product, error)
}

// OrderService defines operations for order placement and fulfilment.
type OrderService interface {
	// Checkout prices a product selection before the order is placed.
	Checkout(ctx context.Context, productID, size string, quantity int) (*model.Checkout, error)

	// PlaceOrder snapshots the product and records a new pending order.
	PlaceOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error)

	// GetByID retrieves an order by its ID.
	GetByID(ctx context.Context, id string) (*model.Order, error)

	// List retrieves orders newest first, optionally filtered by status.
	List(ctx context.Context, filter model.OrderFilter) ([]model.OrderView, error)

	// UpdateStatus moves an order to status if the workflow allows it.
	UpdateStatus(ctx context.Context, id, status string) (*model.Order, error)

	// DashboardStats aggregates store figures for the admin dashboard.
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)

	// Export writes every order to w as CSV.
	Export(ctx context.Context, w io.Writer) error
}

// Publisher receives order events for the live order feed.
type Publisher interface {
	Publish(eventType string, order *model.Order)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, *model.Order) {}
