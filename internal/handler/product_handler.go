package handler

import (
	"net/http"
	"strconv"

	"textile-store/internal/model"
	"textile-store/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service       service.ProductService
	maxImageBytes int64
	logger        zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, maxImageBytes int64, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:       service,
		maxImageBytes: maxImageBytes,
		logger:        logger.With().Str("handler", "product").Logger(),
	}
}

type productResponse struct {
	Success bool           `json:"success"`
	Product *model.Product `json:"product,omitempty"`
}

// maxBodyBytes bounds a product request: a main image and several
// additional images, base64 encoded.
func (h *ProductHandler) maxBodyBytes() int64 {
	return h.maxImageBytes*16 + 1<<20
}

// List handles GET /api/products requests with optional pagination.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	products, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetByID handles GET /api/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes())

	req, err := parseProductRequest(r, h.maxImageBytes)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, productResponse{Success: true, Product: product})
}

// Update handles PUT /api/products/{id} requests. Only fields present in
// the request are changed.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes())

	req, err := parseProductRequest(r, h.maxImageBytes)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), r.PathValue("id"), req.patch())
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, productResponse{Success: true, Product: product})
}

// Delete handles DELETE /api/products/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, productResponse{Success: true})
}

// Search handles GET /api/search requests.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, model.InvalidField(name, "must be a non-negative integer")
	}
	return value, nil
}
