package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/catalog"
	"github.com/kitbazar/kitbazar/internal/models"
)

const productColumns = `id::text, name, slug, category, base_price::text, compare_price::text,
	images, allow_name_number, name_number_price::text, created_at, updated_at`

const variantColumns = `id::text, product_id::text, name, value, price::text, stock,
	fabric_type, tracksuit_type, sizes, manual`

type ProductStore struct {
	pool   *pgxpool.Pool
	parser *catalog.Parser
}

func NewProductStore(pool *pgxpool.Pool, parser *catalog.Parser) *ProductStore {
	if parser == nil {
		parser = catalog.NewParser()
	}
	return &ProductStore{
		pool:   pool,
		parser: parser,
	}
}

// GetBySlug loads a product with its variants. Variants whose sizes column
// cannot be decoded come back with no sizes and are reported as issues.
func (s *ProductStore) GetBySlug(ctx context.Context, slug string) (*models.Product, []catalog.DataIssue, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
	return s.loadProduct(ctx, row)
}

func (s *ProductStore) GetByID(ctx context.Context, id string) (*models.Product, []catalog.DataIssue, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1::uuid`, id)
	return s.loadProduct(ctx, row)
}

// List returns every product with its variants, newest first.
func (s *ProductStore) List(ctx context.Context) ([]*models.Product, []catalog.DataIssue, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to list products: %w", err)
	}

	var issues []catalog.DataIssue
	for _, product := range products {
		variants, variantIssues, err := s.variants(ctx, product.ID)
		if err != nil {
			return nil, nil, err
		}
		product.Variants = variants
		issues = append(issues, variantIssues...)
	}
	return products, issues, nil
}

// Create inserts a product and its variants in one transaction.
func (s *ProductStore) Create(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		images, err := json.Marshal(nonNilImages(product.Images))
		if err != nil {
			return fmt.Errorf("failed to encode images: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO products (id, name, slug, category, base_price, compare_price, images, allow_name_number, name_number_price)
			VALUES ($1::uuid, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, $9::numeric)
			RETURNING created_at, updated_at`,
			product.ID,
			product.Name,
			product.Slug,
			product.Category.Slug,
			product.BasePrice.String(),
			nullDecimalParam(product.ComparePrice),
			images,
			product.AllowNameNumber,
			nullDecimalParam(product.NameNumberPrice),
		).Scan(&product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert product: %w", translateError(err))
		}

		return insertVariants(ctx, tx, product)
	})
}

// Save writes the product's prices and replaces its variant rows.
func (s *ProductStore) Save(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE products
			SET base_price = $2::numeric, compare_price = $3::numeric, allow_name_number = $4,
			    name_number_price = $5::numeric, updated_at = NOW()
			WHERE id = $1::uuid
			RETURNING updated_at`,
			product.ID,
			product.BasePrice.String(),
			nullDecimalParam(product.ComparePrice),
			product.AllowNameNumber,
			nullDecimalParam(product.NameNumberPrice),
		).Scan(&product.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1::uuid`, product.ID); err != nil {
			return fmt.Errorf("failed to clear variants: %w", err)
		}
		return insertVariants(ctx, tx, product)
	})
}

func (s *ProductStore) loadProduct(ctx context.Context, row pgx.Row) (*models.Product, []catalog.DataIssue, error) {
	product, err := scanProduct(row)
	if err != nil {
		return nil, nil, err
	}

	variants, issues, err := s.variants(ctx, product.ID)
	if err != nil {
		return nil, nil, err
	}
	product.Variants = variants
	return product, issues, nil
}

func (s *ProductStore) variants(ctx context.Context, productID string) ([]models.Variant, []catalog.DataIssue, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+variantColumns+`
		FROM product_variants WHERE product_id = $1::uuid ORDER BY position, id`, productID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load variants: %w", err)
	}
	defer rows.Close()

	var (
		variants []models.Variant
		issues   []catalog.DataIssue
	)
	for rows.Next() {
		var (
			variant  models.Variant
			price    *string
			rawSizes []byte
		)
		if err := rows.Scan(
			&variant.ID,
			&variant.ProductID,
			&variant.Name,
			&variant.Value,
			&price,
			&variant.Stock,
			&variant.FabricType,
			&variant.TracksuitType,
			&rawSizes,
			&variant.Manual,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan variant: %w", err)
		}

		variant.Price, err = parseNullDecimal(price)
		if err != nil {
			return nil, nil, fmt.Errorf("variant %s price: %w", variant.ID, err)
		}

		sizes, err := s.parser.DecodeSizes(rawSizes)
		if err != nil {
			issues = append(issues, catalog.DataIssue{VariantID: variant.ID, Field: "sizes", Err: err})
			sizes = nil
		}
		variant.Sizes = sizes
		variants = append(variants, variant)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to load variants: %w", err)
	}
	return variants, issues, nil
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var (
		product         models.Product
		basePrice       string
		comparePrice    *string
		nameNumberPrice *string
		rawImages       []byte
		createdAt       time.Time
		updatedAt       time.Time
	)
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Slug,
		&product.Category.Slug,
		&basePrice,
		&comparePrice,
		&rawImages,
		&product.AllowNameNumber,
		&nameNumberPrice,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if product.BasePrice, err = decimal.NewFromString(basePrice); err != nil {
		return nil, fmt.Errorf("product %s base price: %w", product.ID, err)
	}
	if product.ComparePrice, err = parseNullDecimal(comparePrice); err != nil {
		return nil, fmt.Errorf("product %s compare price: %w", product.ID, err)
	}
	if product.NameNumberPrice, err = parseNullDecimal(nameNumberPrice); err != nil {
		return nil, fmt.Errorf("product %s name/number price: %w", product.ID, err)
	}
	if len(rawImages) > 0 {
		if err := json.Unmarshal(rawImages, &product.Images); err != nil {
			return nil, fmt.Errorf("product %s images: %w", product.ID, err)
		}
	}
	product.CreatedAt = createdAt
	product.UpdatedAt = updatedAt
	return &product, nil
}

func insertVariants(ctx context.Context, tx pgx.Tx, product *models.Product) error {
	batch := &pgx.Batch{}
	for i := range product.Variants {
		variant := &product.Variants[i]
		variant.ProductID = product.ID

		var sizes []byte
		if !variant.IsSimple() {
			encoded, err := json.Marshal(variant.Sizes)
			if err != nil {
				return fmt.Errorf("failed to encode sizes for variant %s: %w", variant.ID, err)
			}
			sizes = encoded
		}

		batch.Queue(`
			INSERT INTO product_variants (id, product_id, position, name, value, price, stock, fabric_type, tracksuit_type, sizes, manual)
			VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11)`,
			variant.ID,
			product.ID,
			i,
			variant.Name,
			variant.Value,
			nullDecimalParam(variant.Price),
			variant.Stock,
			variant.FabricType,
			variant.TracksuitType,
			sizes,
			variant.Manual,
		)
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert variants: %w", err)
	}
	return nil
}

func parseNullDecimal(value *string) (decimal.NullDecimal, error) {
	if value == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*value)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func nullDecimalParam(value decimal.NullDecimal) *string {
	if !value.Valid {
		return nil
	}
	s := value.Decimal.String()
	return &s
}

func nonNilImages(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
