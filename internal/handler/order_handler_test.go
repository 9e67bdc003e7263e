package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"textile-store/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestOrderHandler() (*OrderHandler, *MockOrderService) {
	svc := &MockOrderService{}
	return NewOrderHandler(svc, zerolog.Nop()), svc
}

func testOrder(status model.OrderStatus) *model.Order {
	return &model.Order{
		ID:            uuid.New(),
		ProductID:     uuid.New(),
		ProductName:   "Saree A",
		Size:          "M",
		Price:         decimal.NewFromInt(500),
		MRP:           decimal.NewFromInt(1000),
		Quantity:      2,
		Total:         decimal.NewFromInt(1000),
		PaymentMethod: model.PaymentCOD,
		Status:        status,
		ShippingAddress: model.ShippingAddress{
			Phone:    "9876543210",
			Street:   "12 Temple Street",
			Area:     "Mylapore",
			Pincode:  "600004",
			District: "Chennai",
			State:    "Tamil Nadu",
		},
	}
}

func TestOrderHandler_Create(t *testing.T) {
	productID := uuid.NewString()
	validBody := `{"productId":"` + productID + `","size":"M","quantity":2,"paymentMethod":"COD",` +
		`"phone":"9876543210","street":"12 Temple Street","area":"Mylapore","pincode":"600004",` +
		`"district":"Chennai","state":"Tamil Nadu"}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockOrderService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Order placed",
			body: validBody,
			setupMock: func(m *MockOrderService) {
				m.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(req *model.OrderRequest) bool {
					return req.ProductID == productID && req.Quantity == 2 && req.Size == "M" && req.Pincode == "600004"
				})).Return(testOrder(model.StatusPending), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Malformed JSON",
			body:           `{"productId":`,
			setupMock:      func(m *MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name: "Missing address field",
			body: `{"productId":"` + productID + `","quantity":1}`,
			setupMock: func(m *MockOrderService) {
				m.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, model.MissingField("phone"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeMissingField,
		},
		{
			name: "Product gone",
			body: validBody,
			setupMock: func(m *MockOrderService) {
				m.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, model.ErrProductNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newTestOrderHandler()
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.Create(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			} else {
				var order model.Order
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
				assert.Equal(t, model.StatusPending, order.Status)
				assert.True(t, order.Total.Equal(decimal.NewFromInt(1000)))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_GetByID(t *testing.T) {
	order := testOrder(model.StatusShipped)

	t.Run("Found", func(t *testing.T) {
		h, svc := newTestOrderHandler()
		svc.On("GetByID", mock.Anything, order.ID.String()).Return(order, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/orders/"+order.ID.String(), nil)
		req.SetPathValue("id", order.ID.String())
		w := httptest.NewRecorder()
		h.GetByID(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"Shipped"`)
		assert.Contains(t, w.Body.String(), `"district":"Chennai"`)
	})

	t.Run("Not found", func(t *testing.T) {
		h, svc := newTestOrderHandler()
		svc.On("GetByID", mock.Anything, "nope").Return(nil, model.ErrOrderNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/orders/nope", nil)
		req.SetPathValue("id", "nope")
		w := httptest.NewRecorder()
		h.GetByID(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, model.ErrCodeOrderNotFound, decodeError(t, w).Error)
	})
}

func TestOrderHandler_List(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockOrderService)
		expectedStatus int
	}{
		{
			name:  "All orders",
			query: "",
			setupMock: func(m *MockOrderService) {
				m.On("List", mock.Anything, model.OrderFilter{}).
					Return([]model.OrderView{{Order: *testOrder(model.StatusPending)}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "Status filter is case-insensitive",
			query: "?status=shipped",
			setupMock: func(m *MockOrderService) {
				m.On("List", mock.Anything, model.OrderFilter{Status: model.StatusShipped}).
					Return([]model.OrderView{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Unknown status",
			query:          "?status=lost",
			setupMock:      func(m *MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newTestOrderHandler()
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			h.List(w, httptest.NewRequest(http.MethodGet, "/api/orders"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	id := uuid.NewString()

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockOrderService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Shipped",
			body: `{"status":"Shipped"}`,
			setupMock: func(m *MockOrderService) {
				m.On("UpdateStatus", mock.Anything, id, "Shipped").Return(testOrder(model.StatusShipped), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing status",
			body:           `{"status":"  "}`,
			setupMock:      func(m *MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeMissingField,
		},
		{
			name: "Unknown status",
			body: `{"status":"Lost"}`,
			setupMock: func(m *MockOrderService) {
				m.On("UpdateStatus", mock.Anything, id, "Lost").Return(nil, model.ErrInvalidStatus)
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidStatus,
		},
		{
			name: "Terminal order",
			body: `{"status":"Cancelled"}`,
			setupMock: func(m *MockOrderService) {
				m.On("UpdateStatus", mock.Anything, id, "Cancelled").
					Return(nil, model.NewDomainError(model.ErrCodeInvalidTransition, "Order cannot move from Delivered to Cancelled"))
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   model.ErrCodeInvalidTransition,
		},
		{
			name: "Lost race",
			body: `{"status":"Delivered"}`,
			setupMock: func(m *MockOrderService) {
				m.On("UpdateStatus", mock.Anything, id, "Delivered").Return(nil, model.ErrConcurrentUpdate)
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   model.ErrCodeConcurrentUpdate,
		},
		{
			name: "Order not found",
			body: `{"status":"Shipped"}`,
			setupMock: func(m *MockOrderService) {
				m.On("UpdateStatus", mock.Anything, id, "Shipped").Return(nil, model.ErrOrderNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newTestOrderHandler()
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPut, "/api/orders/"+id+"/status", strings.NewReader(tt.body))
			req.SetPathValue("id", id)
			w := httptest.NewRecorder()
			h.UpdateStatus(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_Export(t *testing.T) {
	t.Run("CSV download", func(t *testing.T) {
		h, svc := newTestOrderHandler()
		h.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }
		svc.On("Export", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				_, _ = io.WriteString(args.Get(1).(io.Writer), "order_id,status\nabc,Pending\n")
			}).
			Return(nil)

		w := httptest.NewRecorder()
		h.Export(w, httptest.NewRequest(http.MethodGet, "/api/orders/export", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="orders-20240309.csv"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "order_id,status\nabc,Pending\n", w.Body.String())
	})

	t.Run("Failure leaves no partial file", func(t *testing.T) {
		h, svc := newTestOrderHandler()
		svc.On("Export", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				_, _ = io.WriteString(args.Get(1).(io.Writer), "order_id,status\n")
			}).
			Return(errDatabase)

		w := httptest.NewRecorder()
		h.Export(w, httptest.NewRequest(http.MethodGet, "/api/orders/export", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, w.Header().Get("Content-Disposition"))
		assert.NotContains(t, w.Body.String(), "order_id")
	})
}

func TestOrderHandler_DashboardStats(t *testing.T) {
	h, svc := newTestOrderHandler()
	svc.On("DashboardStats", mock.Anything).Return(&model.DashboardStats{
		ProductCount:      4,
		OrderCount:        3,
		PendingOrderCount: 1,
		StatusCounts:      map[model.OrderStatus]int{model.StatusPending: 1, model.StatusDelivered: 2},
		TotalRevenue:      decimal.NewFromInt(2500),
	}, nil)

	w := httptest.NewRecorder()
	h.DashboardStats(w, httptest.NewRequest(http.MethodGet, "/api/dashboard-stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var stats model.DashboardStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 4, stats.ProductCount)
	assert.Equal(t, 2, stats.StatusCounts[model.StatusDelivered])
	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(2500)))
}
