package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kitbazar/kitbazar/internal/cache"
	"github.com/kitbazar/kitbazar/internal/catalog"
	"github.com/kitbazar/kitbazar/internal/models"
)

func TestCatalogService_GetProductReadsThroughCache(t *testing.T) {
	t.Parallel()

	h := newHarness(t, jerseyFixture())
	ctx := context.Background()

	first, err := h.catalog.GetProduct(ctx, "home-jersey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := h.catalog.GetProduct(ctx, "home-jersey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.products.loadCount() != 1 {
		t.Fatalf("expected one store load, got %d", h.products.loadCount())
	}
	if !second.BasePrice.Equal(money(900)) || len(second.Variants) != 2 {
		t.Fatalf("unexpected cached product: %+v", second)
	}
	if entry := second.OptionVariant(models.FabricFan).SizeEntry("L"); entry == nil || entry.Stock != 3 {
		t.Fatalf("expected sizes to survive the cache round trip")
	}

	first.Variants[0].Sizes[0].Stock = 99
	third, err := h.catalog.GetProduct(ctx, "home-jersey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third.Variants[0].Sizes[0].Stock == 99 {
		t.Fatalf("callers must not share product data")
	}

	h.catalog.InvalidateProduct(ctx, "home-jersey")
	if _, err := h.catalog.GetProduct(ctx, "home-jersey"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.products.loadCount() != 2 {
		t.Fatalf("expected reload after invalidation, got %d loads", h.products.loadCount())
	}
}

func TestCatalogService_GetProductNotFound(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if _, err := h.catalog.GetProduct(context.Background(), "missing"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := h.catalog.GetProductByID(context.Background(), "missing"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCatalogService_ListProducts(t *testing.T) {
	t.Parallel()

	soldOut := sneakerFixture()
	for i := range soldOut.Variants {
		soldOut.Variants[i].Stock = 0
	}
	h := newHarness(t, jerseyFixture(), soldOut)

	summaries, err := h.catalog.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	for _, summary := range summaries {
		switch summary.Slug {
		case "home-jersey":
			if !summary.InStock || summary.Image != "https://cdn.example.com/home.jpg" {
				t.Fatalf("unexpected jersey summary: %+v", summary)
			}
		case "runner":
			if summary.InStock {
				t.Fatalf("expected sold out sneaker")
			}
		default:
			t.Fatalf("unexpected summary %q", summary.Slug)
		}
	}
}

func TestCatalogService_ListBadges(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	badges, err := h.catalog.ListBadges(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(badges) != 1 || !badges[0].Price.Equal(money(300)) {
		t.Fatalf("unexpected badges: %+v", badges)
	}
}

// contextProducts fails loads whose context is already done, like the pgx store.
type contextProducts struct {
	*fakeProducts
}

func (c contextProducts) GetBySlug(ctx context.Context, slug string) (*models.Product, []catalog.DataIssue, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return c.fakeProducts.GetBySlug(ctx, slug)
}

func TestCatalogService_GetProductSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	products := contextProducts{newFakeProducts(jerseyFixture())}
	provider, err := cache.NewMemoryProvider(10)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	service := NewCatalogService(products, newFakeBadges(), provider, time.Minute, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	product, err := service.GetProduct(ctx, "home-jersey")
	if err != nil {
		t.Fatalf("expected the shared load to ignore caller cancellation, got %v", err)
	}
	if product.ID != jerseyID {
		t.Fatalf("unexpected product: %+v", product)
	}
}
