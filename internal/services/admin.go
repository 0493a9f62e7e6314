package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/catalog"
	"github.com/kitbazar/kitbazar/internal/db"
	"github.com/kitbazar/kitbazar/internal/email"
	"github.com/kitbazar/kitbazar/internal/logging"
	"github.com/kitbazar/kitbazar/internal/models"
	"github.com/kitbazar/kitbazar/internal/observability"
)

type CreateProductInput struct {
	Name            string                `json:"name" validate:"required"`
	Slug            string                `json:"slug" validate:"required"`
	Category        string                `json:"category" validate:"required"`
	BasePrice       decimal.Decimal       `json:"basePrice"`
	ComparePrice    decimal.NullDecimal   `json:"comparePrice"`
	Images          []string              `json:"images"`
	AllowNameNumber bool                  `json:"allowNameNumber"`
	NameNumberPrice decimal.NullDecimal   `json:"nameNumberPrice"`
	Options         []catalog.OptionPrice `json:"options" validate:"dive"`
}

// VariantPatch edits one simple variant, or one size of a fabric/type
// variant when Size is set. Nil fields are left alone.
type VariantPatch struct {
	Size  string           `json:"size"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock" validate:"omitempty,gte=0"`
}

// adminCatalog is the part of CatalogService the admin reads through and
// invalidates after writes.
type adminCatalog interface {
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	InvalidateProduct(ctx context.Context, slug string)
	InvalidateBadges(ctx context.Context)
}

type AdminProductService struct {
	products  ProductRepository
	badges    BadgeRepository
	catalog   adminCatalog
	generator *catalog.Generator
	validator *catalog.Validator
	alerts    LowStockNotifier
	inFlight  *InFlight
	logger    *slog.Logger
}

func NewAdminProductService(
	products ProductRepository,
	badges BadgeRepository,
	catalogService adminCatalog,
	generator *catalog.Generator,
	validator *catalog.Validator,
	alerts LowStockNotifier,
	inFlight *InFlight,
	logger *slog.Logger,
) *AdminProductService {
	if alerts == nil {
		alerts = noopLowStockNotifier{}
	}
	if inFlight == nil {
		inFlight = NewInFlight()
	}
	return &AdminProductService{
		products:  products,
		badges:    badges,
		catalog:   catalogService,
		generator: generator,
		validator: validator,
		alerts:    alerts,
		inFlight:  inFlight,
		logger:    logger,
	}
}

func (s *AdminProductService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Create validates the product, generates its variant matrix and stores it.
func (s *AdminProductService) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	span := observability.StartSpan(ctx, "service.admin.create_product", "Create")
	defer span.Finish()
	ctx = span.Context()

	release, ok := s.inFlight.Acquire("admin:create:" + input.Slug)
	if !ok {
		return nil, ErrInFlight
	}
	defer release()

	variants, err := s.generator.Generate(input.Category, catalog.GenerateInput{
		BasePrice: input.BasePrice,
		Options:   input.Options,
	})
	if err != nil {
		return nil, UserError{Message: err.Error()}
	}

	product := &models.Product{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(input.Name),
		Slug:            strings.TrimSpace(input.Slug),
		BasePrice:       input.BasePrice,
		ComparePrice:    input.ComparePrice,
		Category:        models.Category{Slug: input.Category},
		Images:          input.Images,
		AllowNameNumber: input.AllowNameNumber,
		NameNumberPrice: input.NameNumberPrice,
		Variants:        variants,
	}
	for i := range product.Variants {
		product.Variants[i].ProductID = product.ID
	}
	if err := s.validator.Validate(product); err != nil {
		return nil, UserError{Message: err.Error()}
	}

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, UserError{Message: fmt.Sprintf("A product with slug %q already exists", product.Slug)}
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.catalog.InvalidateProduct(ctx, product.Slug)

	observability.MeterFromContext(ctx).Count("admin.product.created", 1, sentry.WithAttributes(
		attribute.String("category", product.Category.Slug),
	))
	s.loggerFromContext(ctx).Info("product created",
		"product_id", product.ID,
		"slug", product.Slug,
		"variants", len(product.Variants),
	)
	return product, nil
}

// Get reads the product straight from the store, bypassing the storefront cache.
func (s *AdminProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.catalog.GetProductByID(ctx, id)
}

// UpdateBasePrice changes the product base price. Simple variants the admin
// has not priced by hand follow the new base.
func (s *AdminProductService) UpdateBasePrice(ctx context.Context, id string, price decimal.Decimal) (*models.Product, error) {
	return s.update(ctx, "update_base_price", id, func(product *models.Product) error {
		if price.IsNegative() {
			return UserError{Message: "Base price must be zero or positive"}
		}
		product.BasePrice = price
		if product.Category.Kind() == models.KindSimple {
			product.Variants = s.generator.RepriceSimple(product.Variants, price)
		}
		return nil
	})
}

// SetOption adds a fabric/type or re-prices an existing one.
func (s *AdminProductService) SetOption(ctx context.Context, id string, option catalog.OptionPrice) (*models.Product, error) {
	return s.update(ctx, "set_option", id, func(product *models.Product) error {
		variants, err := s.generator.SetOption(product.Category.Slug, product.Variants, option)
		if err != nil {
			return UserError{Message: err.Error()}
		}
		product.Variants = variants
		return nil
	})
}

// RemoveOption drops a fabric/type with all of its sizes and stock.
func (s *AdminProductService) RemoveOption(ctx context.Context, id, option string) (*models.Product, error) {
	return s.update(ctx, "remove_option", id, func(product *models.Product) error {
		if product.OptionVariant(option) == nil {
			return ErrVariantNotFound
		}
		product.Variants = s.generator.RemoveOption(product.Variants, option)
		return nil
	})
}

// PatchVariant edits stock or price of a simple variant or of one size.
// Any hand edit marks the entry as manual so later regeneration keeps its price.
func (s *AdminProductService) PatchVariant(ctx context.Context, id, variantID string, patch VariantPatch) (*models.Product, error) {
	var lowStock []email.LowStockItem

	product, err := s.update(ctx, "patch_variant", id, func(product *models.Product) error {
		variant := product.VariantByID(variantID)
		if variant == nil {
			return ErrVariantNotFound
		}
		if patch.Price != nil && patch.Price.IsNegative() {
			return UserError{Message: "Price must be zero or positive"}
		}
		if patch.Stock != nil && *patch.Stock < 0 {
			return UserError{Message: "Stock must be zero or positive"}
		}

		if variant.IsSimple() {
			if patch.Size != "" && patch.Size != variant.Value {
				return UserError{Message: "Size does not match this variant"}
			}
			if patch.Price != nil {
				variant.Price = decimal.NewNullDecimal(*patch.Price)
				variant.Manual = true
			}
			if patch.Stock != nil {
				if becameLow(variant.Stock, *patch.Stock) {
					lowStock = append(lowStock, email.LowStockItem{Size: variant.Value, Stock: *patch.Stock})
				}
				variant.Stock = *patch.Stock
				variant.Manual = true
			}
			return nil
		}

		if patch.Size == "" {
			if patch.Stock != nil {
				return UserError{Message: "Size is required to change stock"}
			}
			if patch.Price != nil {
				variant.Price = decimal.NewNullDecimal(*patch.Price)
				variant.Manual = true
			}
			return nil
		}
		entry := variant.SizeEntry(patch.Size)
		if entry == nil {
			return ErrVariantNotFound
		}
		if patch.Price != nil {
			entry.Price = decimal.NewNullDecimal(*patch.Price)
			entry.Manual = true
		}
		if patch.Stock != nil {
			if becameLow(entry.Stock, *patch.Stock) {
				lowStock = append(lowStock, email.LowStockItem{Option: variant.Option(), Size: entry.Size, Stock: *patch.Stock})
			}
			entry.Stock = *patch.Stock
			entry.Manual = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(lowStock) > 0 {
		s.notifyLowStock(ctx, product, lowStock)
	}
	return product, nil
}

// Preview runs the generator without storing anything.
func (s *AdminProductService) Preview(category string, input catalog.GenerateInput) ([]models.Variant, error) {
	variants, err := s.generator.Generate(category, input)
	if err != nil {
		return nil, UserError{Message: err.Error()}
	}
	return variants, nil
}

// Import stores every product and badge of a seed file. Products whose slug
// already exists are skipped.
func (s *AdminProductService) Import(ctx context.Context, seed *catalog.Seed) (created int, err error) {
	for _, sb := range seed.Badges {
		if err := s.badges.Upsert(ctx, catalog.BadgeFromSeed(sb)); err != nil {
			return created, err
		}
	}
	if len(seed.Badges) > 0 {
		s.catalog.InvalidateBadges(ctx)
	}

	for _, sp := range seed.Products {
		product, err := s.generator.ProductFromSeed(sp)
		if err != nil {
			return created, err
		}
		ok, err := s.ImportProduct(ctx, product)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// ImportProduct stores a fully described product, such as one exported from
// another environment. Missing ids are generated. It reports false when a
// product with the same slug already exists.
func (s *AdminProductService) ImportProduct(ctx context.Context, product *models.Product) (bool, error) {
	logger := s.loggerFromContext(ctx)

	if _, _, err := s.products.GetBySlug(ctx, product.Slug); err == nil {
		logger.Info("product already exists, skipping", "slug", product.Slug)
		return false, nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return false, fmt.Errorf("failed to look up %s: %w", product.Slug, err)
	}

	if _, err := uuid.Parse(product.ID); err != nil {
		product.ID = uuid.NewString()
	}
	for i := range product.Variants {
		variant := &product.Variants[i]
		if _, err := uuid.Parse(variant.ID); err != nil {
			variant.ID = uuid.NewString()
		}
		variant.ProductID = product.ID
	}
	if err := s.validator.Validate(product); err != nil {
		return false, fmt.Errorf("product %s: %w", product.Slug, err)
	}
	if err := s.products.Create(ctx, product); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", product.Slug, err)
	}
	s.catalog.InvalidateProduct(ctx, product.Slug)
	logger.Info("product imported", "product_id", product.ID, "slug", product.Slug, "variants", len(product.Variants))
	return true, nil
}

func (s *AdminProductService) update(ctx context.Context, name, id string, apply func(product *models.Product) error) (*models.Product, error) {
	span := observability.StartSpan(ctx, "service.admin."+name, name)
	defer span.Finish()
	ctx = span.Context()

	release, ok := s.inFlight.Acquire("admin:product:" + id)
	if !ok {
		return nil, ErrInFlight
	}
	defer release()

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(product); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(product); err != nil {
		return nil, UserError{Message: err.Error()}
	}

	if err := s.products.Save(ctx, product); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to save product %s: %w", id, err)
	}
	s.catalog.InvalidateProduct(ctx, product.Slug)

	observability.MeterFromContext(ctx).Count("admin.product.updated", 1, sentry.WithAttributes(
		attribute.String("action", name),
	))
	s.loggerFromContext(ctx).Info("product updated", "product_id", product.ID, "action", name)
	return product, nil
}

func (s *AdminProductService) notifyLowStock(ctx context.Context, product *models.Product, items []email.LowStockItem) {
	err := s.alerts.NotifyLowStock(ctx, &email.LowStockAlert{
		ProductID:   product.ID,
		ProductName: product.Name,
		ProductSlug: product.Slug,
		Items:       items,
	})
	if err != nil {
		observability.MeterFromContext(ctx).Count("admin.product.side_effect_failed", 1, sentry.WithAttributes(
			attribute.String("reason", "low_stock_alert_failed"),
		))
		s.loggerFromContext(ctx).Warn("failed to send low stock alert", "product_id", product.ID, "error", err)
	}
}

// becameLow reports a stock edit that crosses into the low-stock band or
// lowers stock within it.
func becameLow(before, after int) bool {
	return catalog.IsLowStock(after) && after < before
}
