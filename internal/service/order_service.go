package service

import (
	"context"
	"fmt"
	"strings"

	"textile-store/internal/model"
	"textile-store/internal/pricing"
	"textile-store/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxOrderTotal is the smallest total a NUMERIC(14,2) column cannot hold.
var maxOrderTotal = decimal.New(1, 12)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	publisher   Publisher
	logger      zerolog.Logger
}

// NewOrderService creates a new order service. A nil publisher disables
// order events.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	publisher Publisher,
	logger zerolog.Logger,
) OrderService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Checkout prices a product selection.
func (s *orderService) Checkout(ctx context.Context, productID, size string, quantity int) (*model.Checkout, error) {
	if quantity < 1 || quantity > model.MaxOrderQuantity {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	size = strings.TrimSpace(size)
	if !product.HasSize(size) {
		return nil, model.InvalidField("size", "not offered for this product")
	}

	total := pricing.LineTotal(product.Price, quantity)
	if total.GreaterThanOrEqual(maxOrderTotal) {
		return nil, model.InvalidField("quantity", "order total is too large")
	}

	return &model.Checkout{
		Product:  product,
		Size:     size,
		Quantity: quantity,
		Total:    total,
	}, nil
}

// PlaceOrder validates req, snapshots the product and stores a pending order.
func (s *orderService) PlaceOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	checkout, err := s.Checkout(ctx, req.ProductID, req.Size, req.Quantity)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("product_id", req.ProductID).
			Msg("order rejected")
		return nil, err
	}
	product := checkout.Product

	order := &model.Order{
		ID:              uuid.New(),
		ProductID:       product.ID,
		ProductName:     product.Name,
		Size:            checkout.Size,
		Price:           product.Price,
		MRP:             product.MRP,
		Quantity:        checkout.Quantity,
		Total:           checkout.Total,
		PaymentMethod:   model.PaymentCOD,
		Status:          model.StatusPending,
		ShippingAddress: trimAddress(req.ShippingAddress),
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("product_id", product.ID.String()).
		Int("quantity", order.Quantity).
		Str("total", order.Total.StringFixed(2)).
		Msg("order placed")

	s.publisher.Publish(model.EventOrderCreated, order)
	return order, nil
}

// GetByID retrieves an order by its ID.
func (s *orderService) GetByID(ctx context.Context, id string) (*model.Order, error) {
	orderID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, model.ErrOrderNotFound
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// List retrieves orders newest first.
func (s *orderService) List(ctx context.Context, filter model.OrderFilter) ([]model.OrderView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("status", filter.Status.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order along the status workflow.
func (s *orderService) UpdateStatus(ctx context.Context, id, status string) (*model.Order, error) {
	next, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	current := order.Status
	if current == next {
		return order, nil
	}
	if !current.CanTransitionTo(next) {
		s.logger.Warn().
			Str("order_id", id).
			Str("from", current.String()).
			Str("to", next.String()).
			Msg("status transition rejected")
		return nil, model.NewDomainError(model.ErrCodeInvalidTransition,
			fmt.Sprintf("Order cannot move from %s to %s", current, next))
	}

	updated, err := s.orderRepo.UpdateStatus(ctx, order.ID, current, next)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if updated == nil {
		s.logger.Warn().Str("order_id", id).Msg("order status changed concurrently")
		return nil, model.ErrConcurrentUpdate
	}

	s.logger.Info().
		Str("order_id", id).
		Str("from", current.String()).
		Str("to", next.String()).
		Msg("order status updated")

	s.publisher.Publish(model.EventOrderStatusChanged, updated)
	return updated, nil
}

// DashboardStats aggregates store figures.
func (s *orderService) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	stats, err := s.orderRepo.Stats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get dashboard stats")
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}
	return stats, nil
}

func (s *orderService) loadProduct(ctx context.Context, id string) (*model.Product, error) {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to load product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.MissingField("productId")
	}

	if strings.TrimSpace(req.ProductID) == "" {
		return model.MissingField("productId")
	}

	if req.Quantity < 1 || req.Quantity > model.MaxOrderQuantity {
		s.logger.Warn().
			Str("product_id", req.ProductID).
			Int("quantity", req.Quantity).
			Msg("invalid quantity")
		return model.ErrInvalidQuantity
	}

	address := req.ShippingAddress
	required := []struct {
		field string
		value string
	}{
		{"phone", address.Phone},
		{"street", address.Street},
		{"area", address.Area},
		{"pincode", address.Pincode},
		{"district", address.District},
		{"state", address.State},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return model.MissingField(r.field)
		}
	}

	method := strings.TrimSpace(req.PaymentMethod)
	if method != "" && !strings.EqualFold(method, model.PaymentCOD) {
		return model.InvalidField("paymentMethod", "only COD is accepted")
	}

	return nil
}

func trimAddress(a model.ShippingAddress) model.ShippingAddress {
	return model.ShippingAddress{
		Phone:    strings.TrimSpace(a.Phone),
		Street:   strings.TrimSpace(a.Street),
		Area:     strings.TrimSpace(a.Area),
		Pincode:  strings.TrimSpace(a.Pincode),
		District: strings.TrimSpace(a.District),
		State:    strings.TrimSpace(a.State),
	}
}
