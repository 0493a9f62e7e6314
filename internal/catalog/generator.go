package catalog

// Package catalog provides the variant matrix generator used by the admin.

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/models"
)

type Generator struct {
	rules Rules
	newID func() string
}

// NewGenerator uses rules as given; a zero LargeSizeSurcharge disables the
// large size premium. Start from DefaultRules for the storefront defaults.
func NewGenerator(rules Rules) *Generator {
	return &Generator{
		rules: rules,
		newID: uuid.NewString,
	}
}

// OptionPrice is a fabric/type the admin ticked together with its own base price.
type OptionPrice struct {
	Option    string          `json:"option" validate:"required"`
	BasePrice decimal.Decimal `json:"basePrice"`
}

type GenerateInput struct {
	BasePrice decimal.Decimal
	Options   []OptionPrice
}

// Generate derives the initial variant matrix for a new product. Simple
// categories ignore Options; jersey and tracksuit ignore BasePrice. Any other
// category is sold without variants, so it generates none.
func (g *Generator) Generate(category string, input GenerateInput) ([]models.Variant, error) {
	if input.BasePrice.IsNegative() {
		return nil, fmt.Errorf("base price must be zero or positive")
	}

	switch category {
	case models.CategorySneaker:
		variants := make([]models.Variant, 0, sneakerMaxSize-sneakerMinSize+1)
		for size := sneakerMinSize; size <= sneakerMaxSize; size++ {
			variants = append(variants, g.simpleVariant(strconv.Itoa(size), input.BasePrice))
		}
		return variants, nil
	case models.CategoryShorts:
		variants := make([]models.Variant, 0, len(ApparelSizes))
		for _, size := range ApparelSizes {
			variants = append(variants, g.simpleVariant(size, input.BasePrice))
		}
		return variants, nil
	case models.CategoryWatch:
		return []models.Variant{g.simpleVariant(OneSize, input.BasePrice)}, nil
	case models.CategoryJersey, models.CategoryTracksuit:
		var variants []models.Variant
		for _, option := range input.Options {
			var err error
			variants, err = g.SetOption(category, variants, option)
			if err != nil {
				return nil, err
			}
		}
		return variants, nil
	default:
		return nil, nil
	}
}

// JerseySizePrice prices one jersey size from its fabric's base price.
func (g *Generator) JerseySizePrice(fabric, size string, base decimal.Decimal) decimal.Decimal {
	price := base
	if g.rules.LegacyPlayerMultiplier && fabric == models.FabricPlayer {
		price = price.Mul(legacyPlayerMultiplier)
	}
	if IsLargeSize(size) {
		price = price.Add(g.rules.LargeSizeSurcharge)
	}
	return price
}

// TracksuitSizePrice is flat across sizes.
func (g *Generator) TracksuitSizePrice(base decimal.Decimal) decimal.Decimal {
	return base
}

// RepriceSimple re-derives simple variant prices after the product base price
// changed. Variants the admin has edited by hand keep their values.
func (g *Generator) RepriceSimple(variants []models.Variant, base decimal.Decimal) []models.Variant {
	out := cloneVariants(variants)
	for i := range out {
		if out[i].IsSimple() && !out[i].Manual {
			out[i].Price = decimal.NewNullDecimal(base)
		}
	}
	return out
}

// SetOption adds a fabric/type with its full size grid, or re-prices the
// untouched sizes of one that already exists.
func (g *Generator) SetOption(category string, variants []models.Variant, option OptionPrice) ([]models.Variant, error) {
	if option.BasePrice.IsNegative() {
		return nil, fmt.Errorf("%s base price must be zero or positive", option.Option)
	}
	if !ValidOption(category, option.Option) {
		return nil, fmt.Errorf("%q is not a valid option for category %q", option.Option, category)
	}

	out := cloneVariants(variants)
	for i := range out {
		if out[i].Option() != option.Option {
			continue
		}
		out[i].Price = decimal.NewNullDecimal(option.BasePrice)
		for j := range out[i].Sizes {
			entry := &out[i].Sizes[j]
			if entry.Manual {
				continue
			}
			entry.Price = decimal.NewNullDecimal(g.sizePrice(category, option.Option, entry.Size, option.BasePrice))
		}
		return out, nil
	}

	variant := models.Variant{
		ID:    g.newID(),
		Price: decimal.NewNullDecimal(option.BasePrice),
	}
	sizes := ApparelSizes
	if category == models.CategoryTracksuit {
		variant.TracksuitType = option.Option
		sizes = TracksuitSizes
	} else {
		variant.FabricType = option.Option
	}
	variant.Sizes = make([]models.SizeEntry, 0, len(sizes))
	for _, size := range sizes {
		variant.Sizes = append(variant.Sizes, models.SizeEntry{
			Size:  size,
			Price: decimal.NewNullDecimal(g.sizePrice(category, option.Option, size, option.BasePrice)),
		})
	}
	return append(out, variant), nil
}

// RemoveOption drops a fabric/type and all of its sizes.
func (g *Generator) RemoveOption(variants []models.Variant, option string) []models.Variant {
	out := cloneVariants(variants)
	return slices.DeleteFunc(out, func(v models.Variant) bool {
		return !v.IsSimple() && v.Option() == option
	})
}

// ValidOption reports whether option is one of the labels the category offers.
func ValidOption(category, option string) bool {
	switch category {
	case models.CategoryJersey:
		return option == models.FabricFan || option == models.FabricPlayer
	case models.CategoryTracksuit:
		return option == models.TracksuitSet || option == models.TracksuitUpper
	default:
		return false
	}
}

func (g *Generator) sizePrice(category, option, size string, base decimal.Decimal) decimal.Decimal {
	if category == models.CategoryTracksuit {
		return g.TracksuitSizePrice(base)
	}
	return g.JerseySizePrice(option, size, base)
}

func (g *Generator) simpleVariant(value string, base decimal.Decimal) models.Variant {
	return models.Variant{
		ID:    g.newID(),
		Name:  "Size",
		Value: value,
		Price: decimal.NewNullDecimal(base),
	}
}

func cloneVariants(variants []models.Variant) []models.Variant {
	out := make([]models.Variant, len(variants))
	for i, v := range variants {
		v.Sizes = slices.Clone(v.Sizes)
		out[i] = v
	}
	return out
}
