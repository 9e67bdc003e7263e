package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentCOD is cash on delivery, the only payment method offered.
const PaymentCOD = "COD"

// MaxOrderQuantity is the largest quantity a single order may carry.
const MaxOrderQuantity = 10000

// ShippingAddress is where an order is delivered.
type ShippingAddress struct {
	Phone    string `json:"phone" db:"phone"`
	Street   string `json:"street" db:"street"`
	Area     string `json:"area" db:"area"`
	Pincode  string `json:"pincode" db:"pincode"`
	District string `json:"district" db:"district"`
	State    string `json:"state" db:"state"`
}

// Order represents a customer order. Product fields are a snapshot taken
// when the order was placed and do not follow later product edits.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	ProductID     uuid.UUID       `json:"productId" db:"product_id"`
	ProductName   string          `json:"productName" db:"product_name"`
	Size          string          `json:"size" db:"size"`
	Price         decimal.Decimal `json:"price" db:"price"`
	MRP           decimal.Decimal `json:"mrp" db:"mrp"`
	Quantity      int             `json:"quantity" db:"quantity"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PaymentMethod string          `json:"paymentMethod" db:"payment_method"`
	Status        OrderStatus     `json:"status" db:"status"`
	OrderedAt     time.Time       `json:"orderedAt" db:"ordered_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
	ShippingAddress
}

// OrderRequest represents the request payload for placing an order.
type OrderRequest struct {
	ProductID     string `json:"productId"`
	Size          string `json:"size"`
	Quantity      int    `json:"quantity"`
	PaymentMethod string `json:"paymentMethod"`
	ShippingAddress
}

// OrderView is an order joined with its product's current main image.
type OrderView struct {
	Order
	ProductImage string `json:"productImage,omitempty"`
}

// OrderFilter narrows an order listing.
type OrderFilter struct {
	Status OrderStatus
}

// StatusUpdateRequest represents the payload for changing an order's status.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// DashboardStats aggregates store figures for the admin dashboard.
type DashboardStats struct {
	ProductCount      int                 `json:"productCount"`
	OrderCount        int                 `json:"orderCount"`
	PendingOrderCount int                 `json:"pendingOrderCount"`
	StatusCounts      map[OrderStatus]int `json:"statusCounts"`
	TotalRevenue      decimal.Decimal     `json:"totalRevenue"`
}

// Order feed event types.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is pushed to admins watching the live order feed.
type OrderEvent struct {
	Type  string `json:"type"`
	Order Order  `json:"order"`
}

// Checkout is a priced selection shown before the customer enters an address.
type Checkout struct {
	Product  *Product
	Size     string
	Quantity int
	Total    decimal.Decimal
}
