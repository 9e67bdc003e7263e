package service

import (
	"context"
	"fmt"
	"strings"

	"textile-store/internal/imagestore"
	"textile-store/internal/model"
	"textile-store/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MaxListLimit caps the number of products read in a single query.
const MaxListLimit = 500

var (
	maxOfferPercentage = decimal.NewFromInt(100)
	// maxAmount is the smallest price a NUMERIC(12,2) column cannot hold.
	maxAmount = decimal.New(1, 10)
)

// productService implements ProductService.
type productService struct {
	productRepo   repository.ProductRepository
	images        imagestore.Store
	maxImageBytes int64
	logger        zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	images imagestore.Store,
	maxImageBytes int64,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo:   productRepo,
		images:        images,
		maxImageBytes: maxImageBytes,
		logger:        logger.With().Str("service", "product").Logger(),
	}
}

// List retrieves products newest first. A limit of 0 returns every product
// from offset on, read in batches of MaxListLimit; other limits are capped
// at MaxListLimit.
func (s *productService) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if offset < 0 {
		offset = 0
	}
	if limit > 0 {
		return s.listPage(ctx, min(limit, MaxListLimit), offset)
	}

	var products []model.Product
	for {
		batch, err := s.listPage(ctx, MaxListLimit, offset)
		if err != nil {
			return nil, err
		}
		products = append(products, batch...)
		if len(batch) < MaxListLimit {
			break
		}
		offset += len(batch)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *productService) listPage(ctx context.Context, limit, offset int) ([]model.Product, error) {
	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		s.logger.Debug().Str("product_id", id).Msg("malformed product ID")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Create validates input, saves its images and inserts the product.
func (s *productService) Create(ctx context.Context, input *model.ProductInput) (*model.Product, error) {
	if input == nil {
		return nil, model.MissingField("name")
	}

	product := &model.Product{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(input.Name),
		Category:        strings.TrimSpace(input.Category),
		Description:     strings.TrimSpace(input.Description),
		Price:           input.Price,
		MRP:             input.MRP,
		OfferPercentage: input.OfferPercentage,
		Sizes:           cleanSizes(input.Sizes),
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	uploads := collectUploads(input.MainImage, input.AdditionalImages)
	if err := s.validateUploads(uploads); err != nil {
		return nil, err
	}

	images, err := imagestore.SaveAll(ctx, s.images, uploads)
	if err != nil {
		s.logger.Error().Err(err).Int("images", len(uploads)).Msg("failed to save product images")
		return nil, fmt.Errorf("failed to save product images: %w", err)
	}
	product.MainImage, product.AdditionalImages = splitImages(input.MainImage != nil, images)

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to create product")
		s.discardImages(ctx, images)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("name", product.Name).
		Int("images", len(images)).
		Msg("product created")

	return product, nil
}

// Update applies patch to an existing product.
func (s *productService) Update(ctx context.Context, id string, patch *model.ProductPatch) (*model.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch == nil {
		return product, nil
	}

	patch.Apply(product)
	product.Name = strings.TrimSpace(product.Name)
	if patch.Sizes != nil {
		product.Sizes = cleanSizes(product.Sizes)
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	uploads := collectUploads(patch.MainImage, patch.AdditionalImages)
	if err := s.validateUploads(uploads); err != nil {
		return nil, err
	}

	images, err := imagestore.SaveAll(ctx, s.images, uploads)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to save product images")
		return nil, fmt.Errorf("failed to save product images: %w", err)
	}

	var replaced []model.Image
	newMain, newAdditional := splitImages(patch.MainImage != nil, images)
	if patch.MainImage != nil {
		if product.MainImage != nil {
			replaced = append(replaced, *product.MainImage)
		}
		product.MainImage = newMain
	}
	if len(patch.AdditionalImages) > 0 {
		replaced = append(replaced, product.AdditionalImages...)
		product.AdditionalImages = newAdditional
	}

	found, err := s.productRepo.Update(ctx, product)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to update product")
		s.discardImages(ctx, images)
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if !found {
		s.discardImages(ctx, images)
		return nil, model.ErrProductNotFound
	}

	s.discardImages(ctx, replaced)

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Int("new_images", len(images)).
		Int("replaced_images", len(replaced)).
		Msg("product updated")

	return product, nil
}

// Delete removes a product and, best-effort, its images.
func (s *productService) Delete(ctx context.Context, id string) error {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return model.ErrProductNotFound
	}

	deleted, err := s.productRepo.Delete(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if deleted == nil {
		return model.ErrProductNotFound
	}

	s.discardImages(ctx, deleted.Images())

	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

// Search finds products whose name contains query.
func (s *productService) Search(ctx context.Context, query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Product{}, nil
	}

	products, err := s.productRepo.Search(ctx, query, MaxListLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("failed to search products")
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	s.logger.Debug().Str("query", query).Int("count", len(products)).Msg("searched products")
	return products, nil
}

func (s *productService) validateUploads(uploads []model.ImageUpload) error {
	for _, upload := range uploads {
		if err := imagestore.Validate(upload, s.maxImageBytes); err != nil {
			return err
		}
	}
	return nil
}

// discardImages deletes images best-effort; failures are only logged.
func (s *productService) discardImages(ctx context.Context, images []model.Image) {
	if len(images) == 0 {
		return
	}
	if failed := imagestore.DeleteAll(context.WithoutCancel(ctx), s.images, images); failed > 0 {
		s.logger.Warn().Int("failed", failed).Int("total", len(images)).Msg("failed to delete some product images")
	}
}

func validateProduct(p *model.Product) error {
	if p.Name == "" {
		return model.MissingField("name")
	}
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"price", p.Price},
		{"mrp", p.MRP},
		{"offerPercentage", p.OfferPercentage},
	}
	for _, amount := range amounts {
		if amount.value.IsNegative() {
			return model.InvalidField(amount.field, "must not be negative")
		}
		if !amount.value.Equal(amount.value.Round(2)) {
			return model.InvalidField(amount.field, "must have at most 2 decimal places")
		}
	}
	if p.Price.GreaterThanOrEqual(maxAmount) {
		return model.InvalidField("price", "must be less than 10000000000")
	}
	if p.MRP.GreaterThanOrEqual(maxAmount) {
		return model.InvalidField("mrp", "must be less than 10000000000")
	}
	if p.OfferPercentage.GreaterThan(maxOfferPercentage) {
		return model.InvalidField("offerPercentage", "must not exceed 100")
	}
	return nil
}

// cleanSizes trims size labels and drops empty and duplicate ones.
func cleanSizes(sizes []string) []string {
	cleaned := make([]string, 0, len(sizes))
	seen := make(map[string]struct{}, len(sizes))
	for _, size := range sizes {
		size = strings.TrimSpace(size)
		if size == "" {
			continue
		}
		if _, ok := seen[size]; ok {
			continue
		}
		seen[size] = struct{}{}
		cleaned = append(cleaned, size)
	}
	return cleaned
}

func collectUploads(main *model.ImageUpload, additional []model.ImageUpload) []model.ImageUpload {
	uploads := make([]model.ImageUpload, 0, len(additional)+1)
	if main != nil {
		uploads = append(uploads, *main)
	}
	return append(uploads, additional...)
}

func splitImages(hasMain bool, images []model.Image) (*model.Image, []model.Image) {
	if !hasMain {
		return nil, append([]model.Image{}, images...)
	}
	main := images[0]
	return &main, append([]model.Image{}, images[1:]...)
}
