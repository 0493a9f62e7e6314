package catalog

// Package catalog provides product validation.

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kitbazar/kitbazar/internal/models"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func IsValidSlug(slug string) bool {
	return slugRegex.MatchString(slug)
}

func (v *Validator) Validate(product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("product name is required")
	}
	if !IsValidSlug(product.Slug) {
		return fmt.Errorf("product slug must be lowercase words separated by hyphens")
	}
	if strings.TrimSpace(product.Category.Slug) == "" {
		return fmt.Errorf("product category is required")
	}
	if product.BasePrice.IsNegative() {
		return fmt.Errorf("product base price must be zero or positive")
	}
	if product.ComparePrice.Valid && product.ComparePrice.Decimal.IsNegative() {
		return fmt.Errorf("compare price must be zero or positive")
	}
	if product.NameNumberPrice.Valid && product.NameNumberPrice.Decimal.IsNegative() {
		return fmt.Errorf("name/number price must be zero or positive")
	}

	options := make(map[string]bool)
	for i := range product.Variants {
		variant := &product.Variants[i]
		if err := v.validateVariant(product.Category, variant); err != nil {
			return fmt.Errorf("variant %d validation failed: %w", i, err)
		}
		if variant.IsSimple() {
			continue
		}
		if options[variant.Option()] {
			return fmt.Errorf("duplicate option: %s", variant.Option())
		}
		options[variant.Option()] = true
	}

	return nil
}

func (v *Validator) validateVariant(category models.Category, variant *models.Variant) error {
	if variant.Price.Valid && variant.Price.Decimal.IsNegative() {
		return fmt.Errorf("variant price must be zero or positive")
	}

	if variant.IsSimple() {
		if category.Kind() != models.KindSimple {
			return fmt.Errorf("%s products only take fabric/type variants", category.Slug)
		}
		if strings.TrimSpace(variant.Value) == "" {
			return fmt.Errorf("variant value is required")
		}
		if variant.Stock < 0 {
			return fmt.Errorf("variant stock must be zero or positive")
		}
		return nil
	}

	if variant.FabricType != "" && variant.TracksuitType != "" {
		return fmt.Errorf("variant cannot be both a fabric and a tracksuit type")
	}
	if !ValidOption(category.Slug, variant.Option()) {
		return fmt.Errorf("%q is not a valid option for category %q", variant.Option(), category.Slug)
	}

	sizes := make(map[string]bool, len(variant.Sizes))
	for _, entry := range variant.Sizes {
		if strings.TrimSpace(entry.Size) == "" {
			return fmt.Errorf("size label is required")
		}
		if sizes[entry.Size] {
			return fmt.Errorf("duplicate size: %s", entry.Size)
		}
		sizes[entry.Size] = true
		if entry.Price.Valid && entry.Price.Decimal.IsNegative() {
			return fmt.Errorf("size %s price must be zero or positive", entry.Size)
		}
		if entry.Stock < 0 {
			return fmt.Errorf("size %s stock must be zero or positive", entry.Size)
		}
	}
	return nil
}
