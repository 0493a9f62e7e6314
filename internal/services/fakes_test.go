package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/cache"
	"github.com/kitbazar/kitbazar/internal/catalog"
	"github.com/kitbazar/kitbazar/internal/db"
	"github.com/kitbazar/kitbazar/internal/email"
	"github.com/kitbazar/kitbazar/internal/models"
	"github.com/kitbazar/kitbazar/internal/session"
)

const (
	jerseyID  = "11111111-1111-1111-1111-111111111111"
	sneakerID = "22222222-2222-2222-2222-222222222222"
)

func money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func price(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jerseyFixture() *models.Product {
	return &models.Product{
		ID:              jerseyID,
		Name:            "Home Jersey",
		Slug:            "home-jersey",
		BasePrice:       money(900),
		Category:        models.Category{Slug: models.CategoryJersey},
		Images:          []string{"https://cdn.example.com/home.jpg"},
		AllowNameNumber: true,
		Variants: []models.Variant{
			{
				ID:         "v-fan",
				ProductID:  jerseyID,
				FabricType: models.FabricFan,
				Price:      price(800),
				Sizes: []models.SizeEntry{
					{Size: "M", Price: price(800), Stock: 10},
					{Size: "L", Price: price(800), Stock: 3},
				},
			},
			{
				ID:         "v-player",
				ProductID:  jerseyID,
				FabricType: models.FabricPlayer,
				Price:      price(1200),
				Sizes: []models.SizeEntry{
					{Size: "M", Price: price(1200), Stock: 4},
					{Size: "3XL", Price: price(1450), Stock: 0},
				},
			},
		},
	}
}

func sneakerFixture() *models.Product {
	return &models.Product{
		ID:        sneakerID,
		Name:      "Runner",
		Slug:      "runner",
		BasePrice: money(1500),
		Category:  models.Category{Slug: models.CategorySneaker},
		Variants: []models.Variant{
			{ID: "v-38", ProductID: sneakerID, Name: "Size", Value: "38", Price: price(1500), Stock: 6},
			{ID: "v-42", ProductID: sneakerID, Name: "Size", Value: "42", Price: price(1700), Stock: 1},
		},
	}
}

type fakeProducts struct {
	mu       sync.Mutex
	products map[string]*models.Product
	loads    int
}

func newFakeProducts(products ...*models.Product) *fakeProducts {
	f := &fakeProducts{products: make(map[string]*models.Product)}
	for _, p := range products {
		f.products[p.ID] = cloneProduct(p)
	}
	return f
}

func (f *fakeProducts) GetBySlug(_ context.Context, slug string) (*models.Product, []catalog.DataIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loads++
	for _, p := range f.products {
		if p.Slug == slug {
			return cloneProduct(p), nil, nil
		}
	}
	return nil, nil, db.ErrNotFound
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*models.Product, []catalog.DataIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.products[id]
	if !ok {
		return nil, nil, db.ErrNotFound
	}
	return cloneProduct(p), nil, nil
}

func (f *fakeProducts) List(_ context.Context) ([]*models.Product, []catalog.DataIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*models.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, cloneProduct(p))
	}
	return out, nil, nil
}

func (f *fakeProducts) Create(_ context.Context, product *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.products {
		if existing.Slug == product.Slug {
			return db.ErrDuplicate
		}
	}
	product.CreatedAt = time.Now()
	f.products[product.ID] = cloneProduct(product)
	return nil
}

func (f *fakeProducts) Save(_ context.Context, product *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.products[product.ID]; !ok {
		return db.ErrNotFound
	}
	f.products[product.ID] = cloneProduct(product)
	return nil
}

func (f *fakeProducts) mutate(id string, fn func(p *models.Product)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fn(f.products[id])
}

func (f *fakeProducts) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.loads
}

func cloneProduct(p *models.Product) *models.Product {
	clone := *p
	clone.Images = append([]string(nil), p.Images...)
	clone.Variants = cloneVariants(p.Variants)
	return &clone
}

type fakeBadges struct {
	mu     sync.Mutex
	badges map[string]models.Badge
}

func newFakeBadges(badges ...models.Badge) *fakeBadges {
	f := &fakeBadges{badges: make(map[string]models.Badge)}
	for _, b := range badges {
		f.badges[b.ID] = b
	}
	return f
}

func (f *fakeBadges) List(_ context.Context) ([]models.Badge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.Badge, 0, len(f.badges))
	for _, b := range f.badges {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBadges) Upsert(_ context.Context, badge models.Badge) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.badges[badge.ID] = badge
	return nil
}

type fakeCart struct {
	mu      sync.Mutex
	err     error
	items   []models.CartItem
	buyNow  []bool
	started chan struct{}
	release chan struct{}
}

func (f *fakeCart) AddItem(_ context.Context, _ string, item models.CartItem, buyNow bool) error {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, item)
	f.buyNow = append(f.buyNow, buyNow)
	return nil
}

func (f *fakeCart) calls() []models.CartItem {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]models.CartItem(nil), f.items...)
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []*email.LowStockAlert
	err    error
}

func (f *fakeNotifier) NotifyLowStock(_ context.Context, alert *email.LowStockAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.alerts = append(f.alerts, alert)
	return f.err
}

type harness struct {
	products  *fakeProducts
	badges    *fakeBadges
	cart      *fakeCart
	notifier  *fakeNotifier
	catalog   *CatalogService
	selection *SelectionService
	admin     *AdminProductService
}

func newHarness(t *testing.T, products ...*models.Product) *harness {
	t.Helper()

	provider, err := cache.NewMemoryProvider(100)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	h := &harness{
		products: newFakeProducts(products...),
		badges:   newFakeBadges(models.Badge{ID: "b1", Name: "League", Price: money(300)}),
		cart:     &fakeCart{},
		notifier: &fakeNotifier{},
	}
	logger := discardLogger()
	h.catalog = NewCatalogService(h.products, h.badges, provider, time.Minute, logger)
	sessions := session.NewManager(session.NewMemoryStore(), false, time.Hour)
	h.selection = NewSelectionService(h.catalog, sessions, h.cart, catalog.NewPricer(), NewInFlight(), logger)
	h.admin = NewAdminProductService(
		h.products,
		h.badges,
		h.catalog,
		catalog.NewGenerator(catalog.DefaultRules()),
		catalog.NewValidator(),
		h.notifier,
		NewInFlight(),
		logger,
	)
	return h
}

func rev(v int64) *int64 {
	return &v
}
