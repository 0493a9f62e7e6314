package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/kitbazar/kitbazar/internal/cache"
	"github.com/kitbazar/kitbazar/internal/catalog"
	"github.com/kitbazar/kitbazar/internal/db"
	"github.com/kitbazar/kitbazar/internal/logging"
	"github.com/kitbazar/kitbazar/internal/models"
	"github.com/kitbazar/kitbazar/internal/observability"
)

type ProductRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Product, []catalog.DataIssue, error)
	GetByID(ctx context.Context, id string) (*models.Product, []catalog.DataIssue, error)
	List(ctx context.Context) ([]*models.Product, []catalog.DataIssue, error)
	Create(ctx context.Context, product *models.Product) error
	Save(ctx context.Context, product *models.Product) error
}

type BadgeRepository interface {
	List(ctx context.Context) ([]models.Badge, error)
	Upsert(ctx context.Context, badge models.Badge) error
}

// ProductSummary is the listing card for one product.
type ProductSummary struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Slug         string              `json:"slug"`
	Category     string              `json:"category"`
	Image        string              `json:"image,omitempty"`
	BasePrice    decimal.Decimal     `json:"basePrice"`
	ComparePrice decimal.NullDecimal `json:"comparePrice"`
	InStock      bool                `json:"inStock"`
}

type CatalogService struct {
	products ProductRepository
	badges   BadgeRepository
	cache    cache.Provider
	ttl      time.Duration
	loads    singleflight.Group
	logger   *slog.Logger
}

func NewCatalogService(products ProductRepository, badges BadgeRepository, cacheProvider cache.Provider, ttl time.Duration, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		badges:   badges,
		cache:    cacheProvider,
		ttl:      ttl,
		logger:   logger,
	}
}

func (s *CatalogService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// GetProduct returns the product for slug, reading through the cache.
// Concurrent misses for the same slug share one store load.
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if s.cacheGet(ctx, cache.ProductKey(slug), &product) {
		return &product, nil
	}

	loaded, err, _ := s.loads.Do(cache.ProductKey(slug), func() (any, error) {
		// The load is shared by every waiter, so one caller giving up must not fail it.
		span := observability.StartSpan(context.WithoutCancel(ctx), "service.catalog.load_product", "GetProduct")
		defer span.Finish()
		ctx := span.Context()

		found, issues, err := s.products.GetBySlug(ctx, slug)
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load product %s: %w", slug, err)
		}
		s.reportIssues(ctx, found, issues)
		s.cacheSet(ctx, cache.ProductKey(slug), found)
		return found, nil
	})
	if err != nil {
		return nil, err
	}

	// Callers may mutate what they get back.
	clone := *loaded.(*models.Product)
	clone.Variants = cloneVariants(clone.Variants)
	return &clone, nil
}

func (s *CatalogService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, issues, err := s.products.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", id, err)
	}
	s.reportIssues(ctx, product, issues)
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]ProductSummary, error) {
	var summaries []ProductSummary
	if s.cacheGet(ctx, cache.ProductListKey(), &summaries) {
		return summaries, nil
	}

	products, issues, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if len(issues) > 0 {
		s.loggerFromContext(ctx).Warn("malformed catalog data in product list", "issues", len(issues))
	}

	summaries = make([]ProductSummary, 0, len(products))
	for _, product := range products {
		summary := ProductSummary{
			ID:           product.ID,
			Name:         product.Name,
			Slug:         product.Slug,
			Category:     product.Category.Slug,
			BasePrice:    product.BasePrice,
			ComparePrice: product.ComparePrice,
			InStock:      catalog.HasAnyStock(product),
		}
		if len(product.Images) > 0 {
			summary.Image = product.Images[0]
		}
		summaries = append(summaries, summary)
	}

	s.cacheSet(ctx, cache.ProductListKey(), summaries)
	return summaries, nil
}

func (s *CatalogService) ListBadges(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	if s.cacheGet(ctx, cache.BadgesKey(), &badges) {
		return badges, nil
	}

	badges, err := s.badges.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	s.cacheSet(ctx, cache.BadgesKey(), badges)
	return badges, nil
}

// InvalidateProduct drops cached reads that include the product.
func (s *CatalogService) InvalidateProduct(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	logger := s.loggerFromContext(ctx)
	for _, key := range []string{cache.ProductKey(slug), cache.ProductListKey()} {
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.Warn("failed to invalidate cache entry", "key", key, "error", err)
		}
	}
}

func (s *CatalogService) InvalidateBadges(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.BadgesKey()); err != nil {
		s.loggerFromContext(ctx).Warn("failed to invalidate cache entry", "key", cache.BadgesKey(), "error", err)
	}
}

func (s *CatalogService) reportIssues(ctx context.Context, product *models.Product, issues []catalog.DataIssue) {
	if len(issues) == 0 {
		return
	}
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	for _, issue := range issues {
		logger.Warn("malformed catalog data",
			"product_id", product.ID,
			"variant_id", issue.VariantID,
			"field", issue.Field,
			"error", issue.Err,
		)
		meter.Count("catalog.data_issue", 1)
	}
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.loggerFromContext(ctx).Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.loggerFromContext(ctx).Warn("dropping undecodable cache entry", "key", key, "error", err)
		_ = s.cache.Delete(ctx, key)
		return false
	}
	return true
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.loggerFromContext(ctx).Warn("failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.loggerFromContext(ctx).Warn("cache write failed", "key", key, "error", err)
	}
}

func cloneVariants(variants []models.Variant) []models.Variant {
	out := make([]models.Variant, len(variants))
	for i, v := range variants {
		v.Sizes = append([]models.SizeEntry(nil), v.Sizes...)
		out[i] = v
	}
	return out
}
