package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"textile-store/internal/model"

	"github.com/gocarina/gocsv"
)

// orderRecord is one row of the order export.
type orderRecord struct {
	ID            string `csv:"order_id"`
	OrderedAt     string `csv:"ordered_at"`
	Status        string `csv:"status"`
	ProductID     string `csv:"product_id"`
	ProductName   string `csv:"product_name"`
	Size          string `csv:"size"`
	Quantity      int    `csv:"quantity"`
	Price         string `csv:"price"`
	MRP           string `csv:"mrp"`
	Total         string `csv:"total"`
	PaymentMethod string `csv:"payment_method"`
	Phone         string `csv:"phone"`
	Street        string `csv:"street"`
	Area          string `csv:"area"`
	Pincode       string `csv:"pincode"`
	District      string `csv:"district"`
	State         string `csv:"state"`
}

func newOrderRecord(o *model.Order) orderRecord {
	return orderRecord{
		ID:            o.ID.String(),
		OrderedAt:     o.OrderedAt.UTC().Format(time.RFC3339),
		Status:        o.Status.String(),
		ProductID:     o.ProductID.String(),
		ProductName:   o.ProductName,
		Size:          o.Size,
		Quantity:      o.Quantity,
		Price:         o.Price.StringFixed(2),
		MRP:           o.MRP.StringFixed(2),
		Total:         o.Total.StringFixed(2),
		PaymentMethod: o.PaymentMethod,
		Phone:         o.Phone,
		Street:        o.Street,
		Area:          o.Area,
		Pincode:       o.Pincode,
		District:      o.District,
		State:         o.State,
	}
}

// Export writes every order to w as CSV, newest first.
func (s *orderService) Export(ctx context.Context, w io.Writer) error {
	orders, err := s.List(ctx, model.OrderFilter{})
	if err != nil {
		return err
	}

	records := make([]orderRecord, 0, len(orders))
	for i := range orders {
		records = append(records, newOrderRecord(&orders[i].Order))
	}

	if err := gocsv.Marshal(records, w); err != nil {
		s.logger.Error().Err(err).Msg("failed to write order export")
		return fmt.Errorf("failed to write order export: %w", err)
	}

	s.logger.Info().Int("orders", len(records)).Msg("orders exported")
	return nil
}
