package catalog

// Package catalog provides price calculation functionality.

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/models"
)

type Pricer struct{}

func NewPricer() *Pricer {
	return &Pricer{}
}

// Quote is the price breakdown for a selection. When Available is false the
// selection cannot be charged and Total must not be used; DisplayPrice is
// still safe to show.
type Quote struct {
	Available    bool            `json:"available"`
	Reason       string          `json:"reason,omitempty"`
	DisplayPrice decimal.Decimal `json:"displayPrice"`
	Base         decimal.Decimal `json:"base"`
	NameNumber   decimal.Decimal `json:"nameNumber"`
	BadgeTotal   decimal.Decimal `json:"badgeTotal"`
	Total        decimal.Decimal `json:"total"`
}

// ComputePrice returns the chargeable unit price or an error wrapping
// ErrUnpriceable.
func (p *Pricer) ComputePrice(product *models.Product, badges []models.Badge, sel models.Selection) (decimal.Decimal, error) {
	quote := p.Quote(product, badges, sel)
	if !quote.Available {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnpriceable, quote.Reason)
	}
	return quote.Total, nil
}

func (p *Pricer) Quote(product *models.Product, badges []models.Badge, sel models.Selection) Quote {
	if product == nil {
		return Quote{Reason: "product not found"}
	}

	quote := Quote{DisplayPrice: product.BasePrice}
	base, display, reason := p.variantPrice(product, sel)
	if !display.IsZero() {
		quote.DisplayPrice = display
	}
	if reason != "" {
		quote.Reason = reason
		return quote
	}

	quote.Available = true
	quote.Base = base
	quote.DisplayPrice = base
	quote.NameNumber = p.NameNumberSurcharge(product, sel.AddOns)
	quote.BadgeTotal = p.BadgeTotal(badges, sel.AddOns.BadgeIDs)
	quote.Total = base.Add(quote.NameNumber).Add(quote.BadgeTotal)
	return quote
}

// NameNumberSurcharge is charged once when either a name or a number is given.
func (p *Pricer) NameNumberSurcharge(product *models.Product, addOns models.AddOns) decimal.Decimal {
	if product == nil || !product.AllowNameNumber {
		return decimal.Zero
	}
	if strings.TrimSpace(addOns.PlayerName) == "" && strings.TrimSpace(addOns.JerseyNumber) == "" {
		return decimal.Zero
	}
	if product.NameNumberPrice.Valid {
		return product.NameNumberPrice.Decimal
	}
	return DefaultNameNumberPrice
}

// BadgeTotal sums the prices of the known badges whose ids are selected.
func (p *Pricer) BadgeTotal(badges []models.Badge, ids []string) decimal.Decimal {
	total := decimal.Zero
	for _, badge := range badges {
		if slices.Contains(ids, badge.ID) {
			total = total.Add(badge.Price)
		}
	}
	return total
}

// variantPrice returns the variant component of the price. A non-empty reason
// means the selection cannot be priced; display may then carry a better
// "from" price than the product base.
func (p *Pricer) variantPrice(product *models.Product, sel models.Selection) (price, display decimal.Decimal, reason string) {
	switch product.Category.Kind() {
	case models.KindFabric:
		if sel.Fabric == "" || sel.Size == "" {
			return decimal.Zero, decimal.Zero, "incomplete selection"
		}
		variant := product.OptionVariant(sel.Fabric)
		if variant == nil {
			return decimal.Zero, decimal.Zero, fmt.Sprintf("unknown fabric %q", sel.Fabric)
		}
		entry := variant.SizeEntry(sel.Size)
		if entry == nil || !entry.Price.Valid {
			return decimal.Zero, decimal.Zero, fmt.Sprintf("size %q is not offered for %s", sel.Size, sel.Fabric)
		}
		return entry.Price.Decimal, decimal.Zero, ""

	case models.KindType:
		if sel.Fabric == "" {
			return decimal.Zero, decimal.Zero, "incomplete selection"
		}
		variant := product.OptionVariant(sel.Fabric)
		if variant == nil {
			return decimal.Zero, decimal.Zero, fmt.Sprintf("unknown tracksuit type %q", sel.Fabric)
		}
		flat := product.BasePrice
		if variant.Price.Valid {
			flat = variant.Price.Decimal
		}
		if sel.Size == "" {
			return decimal.Zero, flat, "incomplete selection"
		}
		if entry := variant.SizeEntry(sel.Size); entry != nil && entry.Price.Valid {
			return entry.Price.Decimal, decimal.Zero, ""
		}
		return flat, decimal.Zero, ""

	default:
		if sel.VariantID == "" {
			return product.BasePrice, decimal.Zero, ""
		}
		variant := product.VariantByID(sel.VariantID)
		if variant == nil || !variant.IsSimple() {
			return decimal.Zero, decimal.Zero, fmt.Sprintf("unknown variant %q", sel.VariantID)
		}
		if variant.Price.Valid && !variant.Price.Decimal.Equal(product.BasePrice) {
			return variant.Price.Decimal, decimal.Zero, ""
		}
		return product.BasePrice, decimal.Zero, ""
	}
}
