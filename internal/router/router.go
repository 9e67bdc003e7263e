package router

import (
	"net/http"

	"textile-store/internal/handler"
	"textile-store/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Products *handler.ProductHandler
	Orders   *handler.OrderHandler
	Pages    *handler.PageHandler
	Auth     *handler.AuthHandler
	Health   http.Handler
	// Live is the admin order feed websocket endpoint.
	Live http.Handler
	// Uploads serves stored images; nil unless images are kept on disk.
	Uploads http.Handler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(
	h Handlers,
	auth *middleware.Authenticator,
	loginLimiter *middleware.RateLimiter,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	page := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAdminPage(fn)
	}
	api := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAdminAPI(fn)
	}

	// Health check endpoint (no authentication required)
	mux.Handle("GET /health", h.Health)

	// Storefront
	mux.HandleFunc("GET /{$}", h.Pages.Home)
	mux.HandleFunc("GET /about", h.Pages.About)
	mux.HandleFunc("GET /contact", h.Pages.Contact)
	mux.HandleFunc("GET /product/{id}", h.Pages.Product)
	mux.HandleFunc("GET /search", h.Pages.Search)
	mux.HandleFunc("POST /checkout", h.Pages.Checkout)
	mux.HandleFunc("POST /complete-order", h.Pages.CompleteOrder)
	if h.Uploads != nil {
		mux.Handle("GET /uploads/", h.Uploads)
	}
	mux.HandleFunc("GET /", h.Pages.NotFound)

	// Admin login
	mux.HandleFunc("GET /login", h.Auth.LoginPage)
	mux.Handle("POST /login", loginLimiter.Middleware(http.HandlerFunc(h.Auth.Login)))
	mux.HandleFunc("GET /logout", h.Auth.Logout)

	// Admin pages
	mux.Handle("GET /admin", page(h.Pages.AdminDashboard))
	mux.Handle("GET /admin/orders", page(h.Pages.AdminOrders))
	mux.Handle("POST /admin/orders/update-status", page(h.Pages.AdminUpdateStatus))
	mux.Handle("GET /admin/add-product", page(h.Pages.AddProduct))
	mux.Handle("GET /admin/edit-product/{id}", page(h.Pages.EditProduct))

	// Product API
	mux.HandleFunc("GET /api/products", h.Products.List)
	mux.HandleFunc("GET /api/products/{id}", h.Products.GetByID)
	mux.HandleFunc("GET /api/search", h.Products.Search)
	mux.Handle("POST /api/products", api(h.Products.Create))
	mux.Handle("PUT /api/products/{id}", api(h.Products.Update))
	mux.Handle("DELETE /api/products/{id}", api(h.Products.Delete))

	// Order API
	mux.HandleFunc("POST /api/orders", h.Orders.Create)
	mux.Handle("GET /api/orders", api(h.Orders.List))
	mux.Handle("GET /api/orders/export", api(h.Orders.Export))
	mux.Handle("GET /api/orders/live", middleware.RequireAdminAPI(h.Live))
	mux.Handle("GET /api/orders/{id}", api(h.Orders.GetByID))
	mux.Handle("PUT /api/orders/{id}/status", api(h.Orders.UpdateStatus))
	mux.Handle("GET /api/dashboard-stats", api(h.Orders.DashboardStats))
	mux.HandleFunc("GET /api/", handler.APINotFound)

	// Apply middleware in order: Recovery -> Identify -> Logging -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = auth.Identify(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
