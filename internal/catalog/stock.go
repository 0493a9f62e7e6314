package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/models"
)

// IsFabricSelectable reports whether any size under the fabric/type variant has stock.
func IsFabricSelectable(v *models.Variant) bool {
	if v == nil {
		return false
	}
	for i := range v.Sizes {
		if IsSizeSelectable(&v.Sizes[i]) {
			return true
		}
	}
	return false
}

func IsSizeSelectable(e *models.SizeEntry) bool {
	return e != nil && e.Stock > 0
}

func IsVariantSelectable(v *models.Variant) bool {
	if v == nil {
		return false
	}
	if v.IsSimple() {
		return v.Stock > 0
	}
	return IsFabricSelectable(v)
}

// IsLowStock is advisory only: a low stock size stays selectable.
func IsLowStock(stock int) bool {
	return stock > 0 && stock <= LowStockThreshold
}

// TotalStock sums the stock of a simple variant or of every size under a
// fabric/type.
func TotalStock(v *models.Variant) int {
	if v == nil {
		return 0
	}
	if v.IsSimple() {
		return max(v.Stock, 0)
	}
	total := 0
	for _, entry := range v.Sizes {
		total += max(entry.Stock, 0)
	}
	return total
}

// HasAnyStock reports whether anything on the product can be bought. A product
// without variants is always purchasable.
func HasAnyStock(p *models.Product) bool {
	if p == nil {
		return false
	}
	if len(p.Variants) == 0 {
		return true
	}
	for i := range p.Variants {
		if IsVariantSelectable(&p.Variants[i]) {
			return true
		}
	}
	return false
}

// SelectableOptions lists the fabric/type labels that currently have stock.
func SelectableOptions(p *models.Product) []string {
	if p == nil {
		return nil
	}
	var options []string
	for i := range p.Variants {
		v := &p.Variants[i]
		if !v.IsSimple() && IsFabricSelectable(v) {
			options = append(options, v.Option())
		}
	}
	return options
}

type ProductAvailability struct {
	InStock  bool                  `json:"inStock"`
	Options  []OptionAvailability  `json:"options,omitempty"`
	Variants []VariantAvailability `json:"variants,omitempty"`
}

type OptionAvailability struct {
	Option     string              `json:"option"`
	Price      decimal.NullDecimal `json:"price"`
	Stock      int                 `json:"stock"`
	Selectable bool                `json:"selectable"`
	Sizes      []SizeAvailability  `json:"sizes"`
}

type SizeAvailability struct {
	Size       string              `json:"size"`
	Price      decimal.NullDecimal `json:"price"`
	Stock      int                 `json:"stock"`
	Selectable bool                `json:"selectable"`
	LowStock   bool                `json:"lowStock"`
}

type VariantAvailability struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Value      string              `json:"value"`
	Price      decimal.NullDecimal `json:"price"`
	Stock      int                 `json:"stock"`
	Selectable bool                `json:"selectable"`
	LowStock   bool                `json:"lowStock"`
}

// Availability flattens the product into the selectable/low-stock view the
// storefront renders.
func Availability(p *models.Product) ProductAvailability {
	result := ProductAvailability{InStock: HasAnyStock(p)}
	if p == nil {
		return result
	}

	for i := range p.Variants {
		v := &p.Variants[i]
		if v.IsSimple() {
			result.Variants = append(result.Variants, VariantAvailability{
				ID:         v.ID,
				Name:       v.Name,
				Value:      v.Value,
				Price:      v.Price,
				Stock:      v.Stock,
				Selectable: IsVariantSelectable(v),
				LowStock:   IsLowStock(v.Stock),
			})
			continue
		}

		option := OptionAvailability{
			Option:     v.Option(),
			Price:      v.Price,
			Stock:      TotalStock(v),
			Selectable: IsFabricSelectable(v),
			Sizes:      make([]SizeAvailability, 0, len(v.Sizes)),
		}
		for j := range v.Sizes {
			entry := &v.Sizes[j]
			option.Sizes = append(option.Sizes, SizeAvailability{
				Size:       entry.Size,
				Price:      entry.Price,
				Stock:      entry.Stock,
				Selectable: IsSizeSelectable(entry),
				LowStock:   IsLowStock(entry.Stock),
			})
		}
		result.Options = append(result.Options, option)
	}
	return result
}
