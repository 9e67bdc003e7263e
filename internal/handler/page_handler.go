package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"textile-store/internal/middleware"
	"textile-store/internal/model"
	"textile-store/internal/service"
	"textile-store/internal/view"

	"github.com/rs/zerolog"
)

// PageHandler serves the storefront and admin HTML pages.
type PageHandler struct {
	products service.ProductService
	orders   service.OrderService
	pages    *view.Renderer
	logger   zerolog.Logger
}

// NewPageHandler creates a new page handler.
func NewPageHandler(
	products service.ProductService,
	orders service.OrderService,
	pages *view.Renderer,
	logger zerolog.Logger,
) *PageHandler {
	return &PageHandler{
		products: products,
		orders:   orders,
		pages:    pages,
		logger:   logger.With().Str("handler", "page").Logger(),
	}
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, content any) {
	h.pages.Render(w, status, name, view.Page{
		Title:   title,
		Admin:   middleware.IsAdmin(r.Context()),
		Content: content,
	})
}

// renderError shows the error page with the status matching err.
func (h *PageHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong, please try again."

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status = statusFor(domainErr.Code)
		message = domainErr.Message
	} else {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("page request failed")
	}

	h.render(w, r, status, "error", http.StatusText(status), view.ErrorPage{Status: status, Message: message})
}

// NotFound renders the error page for unknown paths.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "error", "Not Found", view.ErrorPage{
		Status:  http.StatusNotFound,
		Message: "Page not found",
	})
}

// Home handles GET / with the full catalogue. Admins go to the dashboard.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAdmin(r.Context()) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	products, err := h.products.List(r.Context(), 0, 0)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "home", "", products)
}

// About handles GET /about.
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "about", "About Us", nil)
}

// Contact handles GET /contact.
func (h *PageHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "contact", "Contact Us", nil)
}

// Product handles GET /product/{id}.
func (h *PageHandler) Product(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "product", product.Name, product)
}

// Search handles GET /search.
func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))

	products, err := h.products.Search(r.Context(), query)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.pages.Render(w, http.StatusOK, "search", view.Page{
		Title:   "Search",
		Admin:   middleware.IsAdmin(r.Context()),
		Query:   query,
		Content: view.SearchResults{Query: query, Products: products},
	})
}

// Checkout handles POST /checkout from the product page.
func (h *PageHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, model.NewDomainError(model.ErrCodeInvalidForm, "Invalid form submission"))
		return
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	if err != nil {
		h.renderError(w, r, model.ErrInvalidQuantity)
		return
	}

	checkout, err := h.orders.Checkout(r.Context(), r.PostFormValue("productId"), r.PostFormValue("size"), quantity)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "checkout", "Checkout", checkout)
}

// CompleteOrder handles POST /complete-order from the checkout page.
func (h *PageHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, model.NewDomainError(model.ErrCodeInvalidForm, "Invalid form submission"))
		return
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	if err != nil {
		h.renderError(w, r, model.ErrInvalidQuantity)
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), &model.OrderRequest{
		ProductID:     r.PostFormValue("productId"),
		Size:          r.PostFormValue("size"),
		Quantity:      quantity,
		PaymentMethod: r.PostFormValue("paymentMethod"),
		ShippingAddress: model.ShippingAddress{
			Phone:    r.PostFormValue("phone"),
			Street:   r.PostFormValue("street"),
			Area:     r.PostFormValue("area"),
			Pincode:  r.PostFormValue("pincode"),
			District: r.PostFormValue("district"),
			State:    r.PostFormValue("state"),
		},
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusCreated, "order_complete", "Order Complete", order)
}

// AdminDashboard handles GET /admin.
func (h *PageHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.DashboardStats(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	products, err := h.products.List(r.Context(), 0, 0)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "admin_dashboard", "Dashboard", view.Dashboard{Stats: stats, Products: products})
}

var statusUpdateMessages = map[string]string{
	model.ErrCodeInvalidStatus:     "Unknown order status.",
	model.ErrCodeInvalidTransition: "That status change is not allowed for this order.",
	model.ErrCodeConcurrentUpdate:  "The order was changed by someone else. Please try again.",
	model.ErrCodeOrderNotFound:     "Order not found.",
}

// AdminOrders handles GET /admin/orders.
func (h *PageHandler) AdminOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	orders, err := h.orders.List(r.Context(), filter)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	var message string
	if code := r.URL.Query().Get("error"); code != "" {
		message = statusUpdateMessages[code]
		if message == "" {
			message = "Failed to update order status."
		}
	}

	h.render(w, r, http.StatusOK, "admin_orders", "Orders", view.OrderList{
		Orders:   orders,
		Filter:   filter.Status,
		Statuses: model.OrderStatuses,
		Error:    message,
	})
}

// AdminUpdateStatus handles POST /admin/orders/update-status and returns
// to the order list.
func (h *PageHandler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/admin/orders?error="+model.ErrCodeInvalidForm, http.StatusSeeOther)
		return
	}

	_, err := h.orders.UpdateStatus(r.Context(), r.PostFormValue("orderId"), r.PostFormValue("status"))
	if err != nil {
		code := model.ErrCodeInternalError
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			code = domainErr.Code
		} else {
			h.logger.Error().Err(err).Str("order_id", r.PostFormValue("orderId")).Msg("failed to update order status")
		}
		http.Redirect(w, r, "/admin/orders?error="+url.QueryEscape(code), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/admin/orders", http.StatusSeeOther)
}

// AddProduct handles GET /admin/add-product.
func (h *PageHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "product_form", "Add Product", view.ProductForm{})
}

// EditProduct handles GET /admin/edit-product/{id}.
func (h *PageHandler) EditProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "product_form", "Edit Product", view.ProductForm{Product: product})
}
