package repository

import (
	"context"
	"errors"
	"fmt"

	"textile-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const orderColumns = `o.id, o.product_id, o.product_name, o.size, o.price, o.mrp, o.quantity,
	o.total, o.payment_method, o.status, o.phone, o.street, o.area, o.pincode, o.district,
	o.state, o.ordered_at, o.updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func orderFields(o *model.Order) []any {
	return []any{
		&o.ID, &o.ProductID, &o.ProductName, &o.Size, &o.Price, &o.MRP, &o.Quantity,
		&o.Total, &o.PaymentMethod, &o.Status, &o.Phone, &o.Street, &o.Area, &o.Pincode,
		&o.District, &o.State, &o.OrderedAt, &o.UpdatedAt,
	}
}

// Create inserts a new order.
func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	query := `
		INSERT INTO orders (id, product_id, product_name, size, price, mrp, quantity, total,
			payment_method, status, phone, street, area, pincode, district, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ordered_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		o.ID, o.ProductID, o.ProductName, o.Size, o.Price, o.MRP, o.Quantity, o.Total,
		o.PaymentMethod, o.Status, o.Phone, o.Street, o.Area, o.Pincode, o.District, o.State,
	).Scan(&o.OrderedAt, &o.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", o.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", o.ID.String()).
		Msg("order created successfully")

	return nil
}

// GetByID retrieves an order by its ID.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`

	var order model.Order
	err := r.pool.QueryRow(ctx, query, id).Scan(orderFields(&order)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return &order, nil
}

// List returns orders newest first joined with their product's main image.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.OrderView, error) {
	query := `SELECT ` + orderColumns + `, p.main_image->>'url'
		FROM orders o
		LEFT JOIN products p ON p.id = o.product_id
		WHERE ($1 = '' OR o.status = $1)
		ORDER BY o.ordered_at DESC, o.id
	`

	rows, err := r.pool.Query(ctx, query, string(filter.Status))
	if err != nil {
		r.logger.Error().Err(err).Str("status", string(filter.Status)).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.OrderView{}
	for rows.Next() {
		var (
			view  model.OrderView
			image *string
		)
		if err := rows.Scan(append(orderFields(&view.Order), &image)...); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if image != nil {
			view.ProductImage = *image
		}
		orders = append(orders, view)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus performs a compare-and-set on the order status.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error) {
	query := `
		UPDATE orders o
		SET status = $3, updated_at = now()
		WHERE o.id = $1 AND o.status = $2
		RETURNING ` + orderColumns

	var order model.Order
	err := r.pool.QueryRow(ctx, query, id, from, to).Scan(orderFields(&order)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().
				Str("order_id", id.String()).
				Str("from", from.String()).
				Msg("order status did not match")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	r.logger.Debug().
		Str("order_id", id.String()).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("order status updated")

	return &order, nil
}

// Stats aggregates dashboard figures in a single round trip.
func (r *orderRepository) Stats(ctx context.Context) (*model.DashboardStats, error) {
	batch := &pgx.Batch{}
	batch.Queue(`
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM orders),
			COALESCE((SELECT SUM(total) FROM orders WHERE status = $1), 0)
	`, model.StatusDelivered)
	batch.Queue(`SELECT status, COUNT(*) FROM orders GROUP BY status`)

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	stats := &model.DashboardStats{
		StatusCounts: make(map[model.OrderStatus]int, len(model.OrderStatuses)),
		TotalRevenue: decimal.Zero,
	}
	for _, status := range model.OrderStatuses {
		stats.StatusCounts[status] = 0
	}

	err := results.QueryRow().Scan(&stats.ProductCount, &stats.OrderCount, &stats.TotalRevenue)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query dashboard totals")
		return nil, fmt.Errorf("failed to query dashboard totals: %w", err)
	}

	rows, err := results.Query()
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query status counts")
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	for rows.Next() {
		var (
			status model.OrderStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.StatusCounts[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	stats.PendingOrderCount = stats.StatusCounts[model.StatusPending]
	return stats, nil
}
