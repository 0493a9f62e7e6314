package catalog

import (
	"strconv"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/models"
)

func TestGenerator_JerseySizePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		legacy bool
		fabric string
		size   string
		base   int64
		want   int64
	}{
		{name: "fan regular size", fabric: models.FabricFan, size: "M", base: 800, want: 800},
		{name: "fan large size", fabric: models.FabricFan, size: "4XL", base: 800, want: 1050},
		{name: "player large size without multiplier", fabric: models.FabricPlayer, size: "3XL", base: 1000, want: 1250},
		{name: "player regular size without multiplier", fabric: models.FabricPlayer, size: "XXL", base: 1000, want: 1000},
		{name: "legacy player large size", legacy: true, fabric: models.FabricPlayer, size: "3XL", base: 1000, want: 1550},
		{name: "legacy player regular size", legacy: true, fabric: models.FabricPlayer, size: "M", base: 1000, want: 1300},
		{name: "legacy leaves fan untouched", legacy: true, fabric: models.FabricFan, size: "5XL", base: 1000, want: 1250},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rules := DefaultRules()
			rules.LegacyPlayerMultiplier = tc.legacy
			g := NewGenerator(rules)
			got := g.JerseySizePrice(tc.fabric, tc.size, money(tc.base))
			if !got.Equal(money(tc.want)) {
				t.Fatalf("JerseySizePrice() = %s, want %d", got, tc.want)
			}
		})
	}
}

func TestGenerator_ZeroSurchargeDisablesLargeSizePremium(t *testing.T) {
	t.Parallel()

	g := NewGenerator(Rules{LargeSizeSurcharge: decimal.Zero})
	for _, size := range []string{"3XL", "4XL", "5XL"} {
		if got := g.JerseySizePrice(models.FabricFan, size, money(800)); !got.Equal(money(800)) {
			t.Fatalf("JerseySizePrice(%s) = %s, want 800", size, got)
		}
	}

	variants, err := g.Generate(models.CategoryJersey, GenerateInput{
		Options: []OptionPrice{{Option: models.FabricPlayer, BasePrice: money(1000)}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, entry := range variants[0].Sizes {
		if !entry.Price.Decimal.Equal(money(1000)) {
			t.Fatalf("size %s price = %s, want 1000", entry.Size, entry.Price.Decimal)
		}
	}
}

func TestGenerator_GenerateSimpleCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category string
		values   []string
	}{
		{category: models.CategorySneaker, values: sneakerValues()},
		{category: models.CategoryShorts, values: ApparelSizes},
		{category: models.CategoryWatch, values: []string{OneSize}},
	}

	g := NewGenerator(DefaultRules())
	for _, tc := range tests {
		tc := tc
		t.Run(tc.category, func(t *testing.T) {
			t.Parallel()

			variants, err := g.Generate(tc.category, GenerateInput{BasePrice: money(1500)})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(variants) != len(tc.values) {
				t.Fatalf("expected %d variants, got %d", len(tc.values), len(variants))
			}
			for i, v := range variants {
				if v.Value != tc.values[i] {
					t.Fatalf("variant %d value = %q, want %q", i, v.Value, tc.values[i])
				}
				if !v.Price.Valid || !v.Price.Decimal.Equal(money(1500)) {
					t.Fatalf("variant %s price = %v, want 1500", v.Value, v.Price)
				}
				if v.Stock != 0 {
					t.Fatalf("variant %s stock = %d, want 0", v.Value, v.Stock)
				}
				if v.ID == "" {
					t.Fatalf("variant %s has no id", v.Value)
				}
			}
		})
	}
}

func sneakerValues() []string {
	values := make([]string, 0, 22)
	for size := 25; size <= 46; size++ {
		values = append(values, strconv.Itoa(size))
	}
	return values
}

func TestGenerator_GenerateJersey(t *testing.T) {
	t.Parallel()

	g := NewGenerator(DefaultRules())

	variants, err := g.Generate(models.CategoryJersey, GenerateInput{BasePrice: money(999)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(variants) != 0 {
		t.Fatalf("expected no variants before fabrics are ticked, got %d", len(variants))
	}

	variants, err = g.Generate(models.CategoryJersey, GenerateInput{
		BasePrice: money(999),
		Options: []OptionPrice{
			{Option: models.FabricFan, BasePrice: money(800)},
			{Option: models.FabricPlayer, BasePrice: money(1000)},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("expected 2 fabric variants, got %d", len(variants))
	}

	for _, v := range variants {
		if len(v.Sizes) != len(ApparelSizes) {
			t.Fatalf("%s: expected %d sizes, got %d", v.FabricType, len(ApparelSizes), len(v.Sizes))
		}
		base := money(800)
		if v.FabricType == models.FabricPlayer {
			base = money(1000)
		}
		for _, entry := range v.Sizes {
			want := base
			if IsLargeSize(entry.Size) {
				want = base.Add(money(250))
			}
			if !entry.Price.Decimal.Equal(want) {
				t.Fatalf("%s %s price = %s, want %s", v.FabricType, entry.Size, entry.Price.Decimal, want)
			}
		}
	}
}

func TestGenerator_GenerateTracksuitIsFlat(t *testing.T) {
	t.Parallel()

	g := NewGenerator(DefaultRules())
	variants, err := g.Generate(models.CategoryTracksuit, GenerateInput{
		Options: []OptionPrice{{Option: models.TracksuitSet, BasePrice: money(2500)}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(variants) != 1 || variants[0].TracksuitType != models.TracksuitSet {
		t.Fatalf("expected one Set variant, got %+v", variants)
	}
	if len(variants[0].Sizes) != len(TracksuitSizes) {
		t.Fatalf("expected %d sizes, got %d", len(TracksuitSizes), len(variants[0].Sizes))
	}
	for _, entry := range variants[0].Sizes {
		if !entry.Price.Decimal.Equal(money(2500)) {
			t.Fatalf("size %s price = %s, want 2500", entry.Size, entry.Price.Decimal)
		}
	}
}

func TestGenerator_GenerateRejectsBadInput(t *testing.T) {
	t.Parallel()

	g := NewGenerator(DefaultRules())
	tests := []struct {
		name     string
		category string
		input    GenerateInput
	}{
		{name: "negative base", category: models.CategorySneaker, input: GenerateInput{BasePrice: money(-1)}},
		{name: "tracksuit type on jersey", category: models.CategoryJersey, input: GenerateInput{Options: []OptionPrice{{Option: models.TracksuitSet, BasePrice: money(1)}}}},
		{name: "negative fabric base", category: models.CategoryJersey, input: GenerateInput{Options: []OptionPrice{{Option: models.FabricFan, BasePrice: money(-5)}}}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := g.Generate(tc.category, tc.input); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestGenerator_GenerateOtherCategoryHasNoVariants(t *testing.T) {
	t.Parallel()

	variants, err := NewGenerator(DefaultRules()).Generate("gift-card", GenerateInput{BasePrice: money(500)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(variants) != 0 {
		t.Fatalf("expected no variants, got %d", len(variants))
	}
}

func TestGenerator_RepriceSimpleKeepsManualVariants(t *testing.T) {
	t.Parallel()

	g := NewGenerator(DefaultRules())
	variants := []models.Variant{
		{ID: "a", Name: "Size", Value: "S", Price: price(500), Stock: 3},
		{ID: "b", Name: "Size", Value: "M", Price: price(650), Stock: 9, Manual: true},
	}

	got := g.RepriceSimple(variants, money(700))
	if !got[0].Price.Decimal.Equal(money(700)) {
		t.Fatalf("generated variant price = %s, want 700", got[0].Price.Decimal)
	}
	if got[0].Stock != 3 {
		t.Fatalf("stock must survive repricing, got %d", got[0].Stock)
	}
	if !got[1].Price.Decimal.Equal(money(650)) {
		t.Fatalf("manual variant price = %s, want 650", got[1].Price.Decimal)
	}
	if !variants[0].Price.Decimal.Equal(money(500)) {
		t.Fatalf("input slice was mutated")
	}
}

func TestGenerator_SetOptionRepricesExistingFabric(t *testing.T) {
	t.Parallel()

	g := NewGenerator(DefaultRules())
	variants, err := g.SetOption(models.CategoryJersey, nil, OptionPrice{Option: models.FabricFan, BasePrice: money(800)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	variants[0].Sizes[0].Stock = 12
	variants[0].Sizes[1].Price = price(999)
	variants[0].Sizes[1].Manual = true

	variants, err = g.SetOption(models.CategoryJersey, variants, OptionPrice{Option: models.FabricFan, BasePrice: money(900)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(variants) != 1 {
		t.Fatalf("expected fabric to be updated in place, got %d variants", len(variants))
	}
	sizes := variants[0].Sizes
	if !sizes[0].Price.Decimal.Equal(money(900)) || sizes[0].Stock != 12 {
		t.Fatalf("size S = %+v, want price 900 stock 12", sizes[0])
	}
	if !sizes[1].Price.Decimal.Equal(money(999)) {
		t.Fatalf("manual size price = %s, want 999", sizes[1].Price.Decimal)
	}
	large := sizes[len(sizes)-1]
	if !large.Price.Decimal.Equal(money(1150)) {
		t.Fatalf("5XL price = %s, want 1150", large.Price.Decimal)
	}
	if !variants[0].Price.Decimal.Equal(money(900)) {
		t.Fatalf("fabric base price = %s, want 900", variants[0].Price.Decimal)
	}
}

func TestGenerator_RemoveOption(t *testing.T) {
	t.Parallel()

	g := NewGenerator(DefaultRules())
	product := jerseyProduct()

	got := g.RemoveOption(product.Variants, models.FabricFan)
	if len(got) != 1 || got[0].FabricType != models.FabricPlayer {
		t.Fatalf("expected only Player Version to remain, got %+v", got)
	}
	if len(product.Variants) != 2 {
		t.Fatalf("input slice was mutated")
	}
}

func TestGenerator_ProductFromSeed(t *testing.T) {
	t.Parallel()

	g := NewGenerator(DefaultRules())
	product, err := g.ProductFromSeed(SeedProduct{
		Name:      "Away Jersey",
		Slug:      "away-jersey",
		Category:  models.CategoryJersey,
		BasePrice: 800,
		Options: []SeedOption{
			{Name: models.FabricFan, BasePrice: 800, Stock: map[string]int{"M": 4, "3XL": 1}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fan := product.OptionVariant(models.FabricFan)
	if fan == nil {
		t.Fatalf("expected Fan Version variant")
	}
	if fan.ProductID != product.ID {
		t.Fatalf("variant product id = %q, want %q", fan.ProductID, product.ID)
	}
	if got := fan.SizeEntry("M").Stock; got != 4 {
		t.Fatalf("M stock = %d, want 4", got)
	}
	if got := fan.SizeEntry("S").Stock; got != 0 {
		t.Fatalf("S stock = %d, want 0", got)
	}
	if got := fan.SizeEntry("3XL").Price.Decimal; !got.Equal(decimal.NewFromInt(1050)) {
		t.Fatalf("3XL price = %s, want 1050", got)
	}
}
