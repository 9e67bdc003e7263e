package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"textile-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, category, description, price, mrp, offer_percentage,
	sizes, main_image, additional_images, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&p.Description,
		&p.Price,
		&p.MRP,
		&p.OfferPercentage,
		&p.Sizes,
		&p.MainImage,
		&p.AdditionalImages,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	if p.AdditionalImages == nil {
		p.AdditionalImages = []model.Image{}
	}
	return p, err
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetAll retrieves products newest first with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`
	return r.queryProducts(ctx, query, limit, offset)
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	normaliseProduct(p)

	query := `
		INSERT INTO products (id, name, category, description, price, mrp, offer_percentage,
			sizes, main_image, additional_images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Category, p.Description, p.Price, p.MRP, p.OfferPercentage,
		p.Sizes, p.MainImage, p.AdditionalImages,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID.String()).Msg("product created successfully")
	return nil
}

// Update overwrites the mutable columns of an existing product.
func (r *productRepository) Update(ctx context.Context, p *model.Product) (bool, error) {
	normaliseProduct(p)

	query := `
		UPDATE products
		SET name = $2, category = $3, description = $4, price = $5, mrp = $6,
			offer_percentage = $7, sizes = $8, main_image = $9, additional_images = $10,
			updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Category, p.Description, p.Price, p.MRP, p.OfferPercentage,
		p.Sizes, p.MainImage, p.AdditionalImages,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to update product")
		return false, fmt.Errorf("failed to update product: %w", err)
	}

	return true, nil
}

// Delete removes a product and returns the deleted row.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `DELETE FROM products WHERE id = $1 RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	return &p, nil
}

// Search matches query as a literal, case-insensitive substring of names.
func (r *productRepository) Search(ctx context.Context, query string, limit int) ([]model.Product, error) {
	if strings.TrimSpace(query) == "" {
		return []model.Product{}, nil
	}

	sql := `SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE $1 ESCAPE '\'
		ORDER BY created_at DESC, id
		LIMIT $2
	`
	return r.queryProducts(ctx, sql, "%"+escapeLike(query)+"%", limit)
}

// Count returns the number of products.
func (r *productRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// ImageKeys returns the keys of referenced images held by backend.
func (r *productRepository) ImageKeys(ctx context.Context, backend string) ([]string, error) {
	query := `
		SELECT main_image->>'key' FROM products
		WHERE main_image->>'backend' = $1 AND main_image->>'key' <> ''
		UNION
		SELECT img->>'key' FROM products, jsonb_array_elements(additional_images) AS img
		WHERE img->>'backend' = $1 AND img->>'key' <> ''
	`

	rows, err := r.pool.Query(ctx, query, backend)
	if err != nil {
		r.logger.Error().Err(err).Str("backend", backend).Msg("failed to query image keys")
		return nil, fmt.Errorf("failed to query image keys: %w", err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect image keys: %w", err)
	}
	return keys, nil
}

func normaliseProduct(p *model.Product) {
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	if p.AdditionalImages == nil {
		p.AdditionalImages = []model.Image{}
	}
}

// escapeLike escapes the LIKE wildcards in s so they match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
