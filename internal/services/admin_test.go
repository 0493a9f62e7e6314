package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/catalog"
	"github.com/kitbazar/kitbazar/internal/models"
)

func jerseyInput(slug string) CreateProductInput {
	return CreateProductInput{
		Name:      "Away Jersey",
		Slug:      slug,
		Category:  models.CategoryJersey,
		BasePrice: money(900),
		Options: []catalog.OptionPrice{
			{Option: models.FabricFan, BasePrice: money(800)},
			{Option: models.FabricPlayer, BasePrice: money(1200)},
		},
	}
}

func TestAdminProductService_CreateGeneratesMatrix(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	product, err := h.admin.Create(ctx, jerseyInput("away-jersey"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(product.Variants) != 2 {
		t.Fatalf("expected 2 fabric variants, got %d", len(product.Variants))
	}

	player := product.OptionVariant(models.FabricPlayer)
	if player == nil || len(player.Sizes) != len(catalog.ApparelSizes) {
		t.Fatalf("unexpected player variant: %+v", player)
	}
	if got := player.SizeEntry("3XL").Price.Decimal; !got.Equal(money(1450)) {
		t.Fatalf("expected 3XL price 1450, got %s", got)
	}
	if got := player.SizeEntry("M").Price.Decimal; !got.Equal(money(1200)) {
		t.Fatalf("expected M price 1200, got %s", got)
	}
	if player.ProductID != product.ID {
		t.Fatalf("expected variant to reference its product")
	}

	var userErr UserError
	if _, err := h.admin.Create(ctx, jerseyInput("away-jersey")); !errors.As(err, &userErr) {
		t.Fatalf("expected duplicate slug to be a UserError, got %v", err)
	}

	stored, err := h.catalog.GetProduct(ctx, "away-jersey")
	if err != nil {
		t.Fatalf("expected created product to be readable: %v", err)
	}
	if stored.ID != product.ID {
		t.Fatalf("unexpected stored product %s", stored.ID)
	}
}

func TestAdminProductService_CreateRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input CreateProductInput
	}{
		{name: "bad slug", input: jerseyInput("Away Jersey")},
		{
			name: "unknown fabric",
			input: CreateProductInput{
				Name:     "Away Jersey",
				Slug:     "away-jersey",
				Category: models.CategoryJersey,
				Options:  []catalog.OptionPrice{{Option: "Gold Version", BasePrice: money(1000)}},
			},
		},
		{
			name: "negative base price",
			input: CreateProductInput{
				Name:      "Runner",
				Slug:      "runner",
				Category:  models.CategorySneaker,
				BasePrice: money(-1),
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			_, err := h.admin.Create(context.Background(), tt.input)
			var userErr UserError
			if !errors.As(err, &userErr) {
				t.Fatalf("expected UserError, got %v", err)
			}
		})
	}
}

func TestAdminProductService_UpdateBasePriceKeepsManualPrices(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	product, err := h.admin.Create(ctx, CreateProductInput{
		Name:      "Runner",
		Slug:      "runner",
		Category:  models.CategorySneaker,
		BasePrice: money(1500),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(product.Variants) != 22 {
		t.Fatalf("expected sizes 25 through 46, got %d variants", len(product.Variants))
	}

	manual := product.Variants[0].ID
	custom := money(1800)
	if _, err := h.admin.PatchVariant(ctx, product.ID, manual, VariantPatch{Price: &custom}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := h.admin.UpdateBasePrice(ctx, product.ID, money(1600))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range updated.Variants {
		want := money(1600)
		if v.ID == manual {
			want = custom
		}
		if !v.Price.Decimal.Equal(want) {
			t.Fatalf("variant %s: expected %s, got %s", v.Value, want, v.Price.Decimal)
		}
	}

	if _, err := h.admin.UpdateBasePrice(ctx, product.ID, money(-5)); err == nil {
		t.Fatalf("expected negative base price to be rejected")
	}
}

func TestAdminProductService_StockEditKeepsPriceOnReprice(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	product, err := h.admin.Create(ctx, CreateProductInput{
		Name:      "Runner",
		Slug:      "runner",
		Category:  models.CategorySneaker,
		BasePrice: money(1500),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edited := product.Variants[0].ID
	stock := 7
	if _, err := h.admin.PatchVariant(ctx, product.ID, edited, VariantPatch{Stock: &stock}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := h.admin.UpdateBasePrice(ctx, product.ID, money(1600))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range updated.Variants {
		want := money(1600)
		if v.ID == edited {
			want = money(1500)
			if v.Stock != 7 || !v.Manual {
				t.Fatalf("expected hand-edited variant to keep stock 7 and be manual, got %+v", v)
			}
		}
		if !v.Price.Decimal.Equal(want) {
			t.Fatalf("variant %s: expected %s, got %s", v.Value, want, v.Price.Decimal)
		}
	}
}

func TestAdminProductService_StockEditKeepsSizePriceOnSetOption(t *testing.T) {
	t.Parallel()

	h := newHarness(t, jerseyFixture())
	ctx := context.Background()

	stock := 9
	if _, err := h.admin.PatchVariant(ctx, jerseyID, "v-fan", VariantPatch{Size: "L", Stock: &stock}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	product, err := h.admin.SetOption(ctx, jerseyID, catalog.OptionPrice{Option: models.FabricFan, BasePrice: money(850)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fan := product.OptionVariant(models.FabricFan)
	if got := fan.SizeEntry("M").Price.Decimal; !got.Equal(money(850)) {
		t.Fatalf("expected untouched M to be repriced to 850, got %s", got)
	}
	if entry := fan.SizeEntry("L"); !entry.Price.Decimal.Equal(money(800)) || entry.Stock != 9 {
		t.Fatalf("expected stock-edited L to keep price 800 and stock 9, got %+v", entry)
	}
}

func TestAdminProductService_SetAndRemoveOption(t *testing.T) {
	t.Parallel()

	h := newHarness(t, jerseyFixture())
	ctx := context.Background()

	manualPrice := money(999)
	if _, err := h.admin.PatchVariant(ctx, jerseyID, "v-player", VariantPatch{Size: "M", Price: &manualPrice}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	product, err := h.admin.SetOption(ctx, jerseyID, catalog.OptionPrice{Option: models.FabricPlayer, BasePrice: money(1300)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	player := product.OptionVariant(models.FabricPlayer)
	if got := player.SizeEntry("3XL").Price.Decimal; !got.Equal(money(1550)) {
		t.Fatalf("expected 3XL 1550, got %s", got)
	}
	if got := player.SizeEntry("M").Price.Decimal; !got.Equal(manualPrice) {
		t.Fatalf("expected manual M price to be kept, got %s", got)
	}

	if _, err := h.admin.SetOption(ctx, jerseyID, catalog.OptionPrice{Option: models.TracksuitSet, BasePrice: money(1)}); err == nil {
		t.Fatalf("expected tracksuit option on a jersey to be rejected")
	}

	product, err = h.admin.RemoveOption(ctx, jerseyID, models.FabricPlayer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(product.Variants) != 1 || product.OptionVariant(models.FabricPlayer) != nil {
		t.Fatalf("expected player variant to be removed, got %+v", product.Variants)
	}
	if _, err := h.admin.RemoveOption(ctx, jerseyID, models.FabricPlayer); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}
}

func TestAdminProductService_PatchVariantStock(t *testing.T) {
	t.Parallel()

	h := newHarness(t, jerseyFixture())
	ctx := context.Background()

	// Warm the cache so the update has to invalidate it.
	if _, err := h.catalog.GetProduct(ctx, "home-jersey"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stock := 2
	if _, err := h.admin.PatchVariant(ctx, jerseyID, "v-fan", VariantPatch{Size: "M", Stock: &stock}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	product, err := h.catalog.GetProduct(ctx, "home-jersey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := product.OptionVariant(models.FabricFan).SizeEntry("M").Stock; got != 2 {
		t.Fatalf("expected stock 2 after patch, got %d", got)
	}

	if len(h.notifier.alerts) != 1 {
		t.Fatalf("expected one low stock alert, got %d", len(h.notifier.alerts))
	}
	alert := h.notifier.alerts[0]
	if alert.ProductID != jerseyID || len(alert.Items) != 1 {
		t.Fatalf("unexpected alert: %+v", alert)
	}
	if item := alert.Items[0]; item.Option != models.FabricFan || item.Size != "M" || item.Stock != 2 {
		t.Fatalf("unexpected alert item: %+v", item)
	}

	zero := 0
	if _, err := h.admin.PatchVariant(ctx, jerseyID, "v-fan", VariantPatch{Size: "M", Stock: &zero}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.notifier.alerts) != 1 {
		t.Fatalf("sold out is not a low stock alert")
	}
}

func TestAdminProductService_PatchVariantAlertFailureDoesNotFailUpdate(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sneakerFixture())
	h.notifier.err = errors.New("mail down")

	stock := 3
	product, err := h.admin.PatchVariant(context.Background(), sneakerID, "v-38", VariantPatch{Stock: &stock})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product.VariantByID("v-38").Stock != 3 {
		t.Fatalf("expected stock to be saved")
	}
}

func TestAdminProductService_PatchVariantErrors(t *testing.T) {
	t.Parallel()

	stock := 4
	negative := -1
	price := decimal.NewFromInt(-10)

	tests := []struct {
		name      string
		productID string
		variantID string
		patch     VariantPatch
		target    error
	}{
		{name: "unknown product", productID: "missing", variantID: "v-fan", patch: VariantPatch{Stock: &stock}, target: ErrProductNotFound},
		{name: "unknown variant", productID: jerseyID, variantID: "missing", patch: VariantPatch{Stock: &stock}, target: ErrVariantNotFound},
		{name: "unknown size", productID: jerseyID, variantID: "v-fan", patch: VariantPatch{Size: "XS", Stock: &stock}, target: ErrVariantNotFound},
		{name: "stock without size", productID: jerseyID, variantID: "v-fan", patch: VariantPatch{Stock: &stock}},
		{name: "negative stock", productID: jerseyID, variantID: "v-fan", patch: VariantPatch{Size: "M", Stock: &negative}},
		{name: "negative price", productID: jerseyID, variantID: "v-fan", patch: VariantPatch{Size: "M", Price: &price}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, jerseyFixture())
			_, err := h.admin.PatchVariant(context.Background(), tt.productID, tt.variantID, tt.patch)
			if tt.target != nil {
				if !errors.Is(err, tt.target) {
					t.Fatalf("expected %v, got %v", tt.target, err)
				}
				return
			}
			var userErr UserError
			if !errors.As(err, &userErr) {
				t.Fatalf("expected UserError, got %v", err)
			}
		})
	}
}

func TestAdminProductService_ImportIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	seed := &catalog.Seed{
		Badges: []catalog.SeedBadge{{ID: "ucl", Name: "Champions", Price: 350}},
		Products: []catalog.SeedProduct{
			{
				Name:      "Runner",
				Slug:      "runner",
				Category:  models.CategorySneaker,
				BasePrice: 1500,
				Stock:     map[string]int{"42": 4},
			},
			{
				Name:     "Home Kit",
				Slug:     "home-kit",
				Category: models.CategoryJersey,
				Options: []catalog.SeedOption{
					{Name: models.FabricFan, BasePrice: 800, Stock: map[string]int{"M": 7}},
				},
			},
		},
	}

	created, err := h.admin.Import(ctx, seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 products created, got %d", created)
	}

	created, err = h.admin.Import(ctx, seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected re-import to skip existing products, got %d", created)
	}

	kit, err := h.catalog.GetProduct(ctx, "home-kit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := kit.OptionVariant(models.FabricFan).SizeEntry("M").Stock; got != 7 {
		t.Fatalf("expected seeded stock 7, got %d", got)
	}

	badges, err := h.catalog.ListBadges(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(badges) != 2 {
		t.Fatalf("expected seeded badge to be added, got %d badges", len(badges))
	}
}

func TestAdminProductService_Preview(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	variants, err := h.admin.Preview(models.CategoryTracksuit, catalog.GenerateInput{
		Options: []catalog.OptionPrice{{Option: models.TracksuitSet, BasePrice: money(2000)}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(variants) != 1 || len(variants[0].Sizes) != len(catalog.TracksuitSizes) {
		t.Fatalf("unexpected preview: %+v", variants)
	}
	for _, entry := range variants[0].Sizes {
		if !entry.Price.Decimal.Equal(money(2000)) {
			t.Fatalf("expected flat tracksuit price, got %s for %s", entry.Price.Decimal, entry.Size)
		}
	}
	if len(h.products.products) != 0 {
		t.Fatalf("preview must not store anything")
	}
}

func TestAdminProductService_ImportProductFromJSON(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	product, issues, err := catalog.NewParser().ParseProduct([]byte(`{
		"id": "legacy-7",
		"name": "Away Jersey",
		"slug": "away-jersey",
		"basePrice": 950,
		"category": {"slug": "jersey"},
		"variants": [
			{"id": "old-fan", "fabricType": "Fan Version", "price": 950,
			 "sizes": "[{\"size\":\"M\",\"price\":950,\"stock\":4}]"}
		]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected data issues: %v", issues)
	}

	ok, err := h.admin.ImportProduct(ctx, product)
	if err != nil || !ok {
		t.Fatalf("expected product to be imported, got ok=%v err=%v", ok, err)
	}
	if product.ID == "legacy-7" || product.Variants[0].ID == "old-fan" {
		t.Fatalf("expected non-uuid ids to be replaced, got %+v", product)
	}
	if product.Variants[0].ProductID != product.ID {
		t.Fatalf("variant must point at the imported product")
	}

	stored, err := h.catalog.GetProduct(ctx, "away-jersey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry := stored.OptionVariant(models.FabricFan).SizeEntry("M"); entry == nil || entry.Stock != 4 {
		t.Fatalf("expected imported size stock, got %+v", entry)
	}

	again := *product
	again.ID = ""
	if ok, err := h.admin.ImportProduct(ctx, &again); err != nil || ok {
		t.Fatalf("expected existing slug to be skipped, got ok=%v err=%v", ok, err)
	}
}
