package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kitbazar/kitbazar/internal/models"
)

type State string

const (
	StateEmpty         State = "empty"
	StateFabricChosen  State = "fabric_chosen"
	StateSizeChosen    State = "size_chosen"
	StateVariantChosen State = "variant_chosen"
)

// Advisory is a non-blocking note attached to an accepted choice.
type Advisory struct {
	LowStock  bool   `json:"lowStock"`
	Remaining int    `json:"remaining,omitempty"`
	Message   string `json:"message,omitempty"`
}

func advisoryFor(stock int) Advisory {
	if !IsLowStock(stock) {
		return Advisory{}
	}
	return Advisory{
		LowStock:  true,
		Remaining: stock,
		Message:   fmt.Sprintf("Only %d left", stock),
	}
}

// Machine drives one shopper's selection for one product. It never mutates
// the product.
type Machine struct {
	product *models.Product
	sel     models.Selection
}

// Start begins a fresh selection, pre-choosing the fabric/type when exactly
// one has stock.
func Start(product *models.Product) *Machine {
	m := &Machine{product: product}
	if product != nil {
		m.sel.ProductID = product.ID
	}
	m.autoSelect()
	return m
}

// Resume continues a stored selection against the latest product data.
func Resume(product *models.Product, sel models.Selection) *Machine {
	m := &Machine{product: product, sel: cloneSelection(sel)}
	m.Refresh(product)
	return m
}

func (m *Machine) Selection() models.Selection {
	return cloneSelection(m.sel)
}

func (m *Machine) Product() *models.Product {
	return m.product
}

func (m *Machine) kind() models.CategoryKind {
	if m.product == nil {
		return models.KindSimple
	}
	return m.product.Category.Kind()
}

func (m *Machine) State() State {
	if m.kind() == models.KindSimple {
		if m.sel.VariantID != "" {
			return StateVariantChosen
		}
		return StateEmpty
	}
	switch {
	case m.sel.Fabric != "" && m.sel.Size != "":
		return StateSizeChosen
	case m.sel.Fabric != "":
		return StateFabricChosen
	default:
		return StateEmpty
	}
}

// ChooseFabric picks a fabric (jersey) or type (tracksuit). The size is
// cleared because sizes are scoped per fabric.
func (m *Machine) ChooseFabric(option string) error {
	if m.kind() == models.KindSimple {
		return selectionErr(CodeWrongAxis, "This product has no fabric or type options")
	}
	variant := m.product.OptionVariant(option)
	if variant == nil {
		return selectionErr(CodeUnknownOption, fmt.Sprintf("%q is not available for this product", option))
	}
	if !IsFabricSelectable(variant) {
		return selectionErr(CodeNoStock, "No Stock Available")
	}

	m.sel.Fabric = option
	m.sel.Size = ""
	m.bump()
	return nil
}

// ChooseSize picks a size under the chosen fabric/type. For simple categories
// it picks the variant whose value is size.
func (m *Machine) ChooseSize(size string) (Advisory, error) {
	if m.kind() == models.KindSimple {
		if m.product == nil {
			return Advisory{}, selectionErr(CodeUnknownOption, "Product not found")
		}
		for i := range m.product.Variants {
			v := &m.product.Variants[i]
			if v.IsSimple() && v.Value == size {
				return m.ChooseVariant(v.ID)
			}
		}
		return Advisory{}, selectionErr(CodeUnknownOption, fmt.Sprintf("Size %q is not available", size))
	}

	if m.sel.Fabric == "" {
		return Advisory{}, selectionErr(CodeOptionRequired, optionRequiredMessage(m.kind()))
	}
	variant := m.product.OptionVariant(m.sel.Fabric)
	if variant == nil {
		return Advisory{}, selectionErr(CodeUnknownOption, fmt.Sprintf("%q is not available for this product", m.sel.Fabric))
	}
	entry := variant.SizeEntry(size)
	if entry == nil {
		return Advisory{}, selectionErr(CodeUnknownOption, fmt.Sprintf("Size %q is not available", size))
	}
	if !IsSizeSelectable(entry) {
		return Advisory{}, selectionErr(CodeOutOfStock, "Out of Stock")
	}

	m.sel.Size = size
	m.bump()
	return advisoryFor(entry.Stock), nil
}

func (m *Machine) ChooseVariant(id string) (Advisory, error) {
	if m.kind() != models.KindSimple {
		return Advisory{}, selectionErr(CodeWrongAxis, optionRequiredMessage(m.kind()))
	}
	variant := m.product.VariantByID(id)
	if variant == nil || !variant.IsSimple() {
		return Advisory{}, selectionErr(CodeUnknownOption, "Variant is not available")
	}
	if !IsVariantSelectable(variant) {
		return Advisory{}, selectionErr(CodeOutOfStock, "Out of Stock")
	}

	m.sel.VariantID = variant.ID
	m.sel.Size = variant.Value
	m.bump()
	return advisoryFor(variant.Stock), nil
}

// SetAddOns replaces the name/number/badge choices. Always legal.
func (m *Machine) SetAddOns(addOns models.AddOns) {
	m.sel.AddOns = models.AddOns{
		PlayerName:   strings.TrimSpace(addOns.PlayerName),
		JerseyNumber: strings.TrimSpace(addOns.JerseyNumber),
		BadgeIDs:     dedupe(addOns.BadgeIDs),
	}
	m.bump()
}

// CanAddToCart returns nil when the selection is complete and purchasable.
func (m *Machine) CanAddToCart() error {
	if m.product == nil {
		return selectionErr(CodeUnknownOption, "Product not found")
	}

	switch m.kind() {
	case models.KindFabric, models.KindType:
		if m.sel.Fabric == "" || m.sel.Size == "" {
			return selectionErr(CodeIncomplete, incompleteMessage(m.kind()))
		}
		variant := m.product.OptionVariant(m.sel.Fabric)
		if variant == nil || !IsSizeSelectable(variant.SizeEntry(m.sel.Size)) {
			return selectionErr(CodeOutOfStock, "Out of Stock")
		}
		return nil
	default:
		if len(m.product.Variants) == 0 {
			return nil
		}
		if m.sel.VariantID == "" {
			return selectionErr(CodeIncomplete, incompleteMessage(m.kind()))
		}
		if !IsVariantSelectable(m.product.VariantByID(m.sel.VariantID)) {
			return selectionErr(CodeOutOfStock, "Out of Stock")
		}
		return nil
	}
}

// Refresh swaps in fresh product data and drops choices that are no longer
// purchasable. It reports whether the selection changed.
func (m *Machine) Refresh(product *models.Product) bool {
	m.product = product
	before := m.sel.Revision
	if product == nil {
		return false
	}
	m.sel.ProductID = product.ID

	if product.Category.Kind() == models.KindSimple {
		if m.sel.VariantID != "" && !IsVariantSelectable(product.VariantByID(m.sel.VariantID)) {
			m.sel.VariantID = ""
			m.sel.Size = ""
			m.bump()
		}
		return m.sel.Revision != before
	}

	if m.sel.Fabric != "" {
		variant := product.OptionVariant(m.sel.Fabric)
		switch {
		case variant == nil:
			m.sel.Fabric = ""
			m.sel.Size = ""
			m.bump()
		case m.sel.Size != "" && !IsSizeSelectable(variant.SizeEntry(m.sel.Size)):
			m.sel.Size = ""
			m.bump()
		}
	}
	m.autoSelect()
	return m.sel.Revision != before
}

// CustomOptions builds the cart hand-off payload for the current selection.
func (m *Machine) CustomOptions(badges []models.Badge) models.CustomOptions {
	known := make([]string, 0, len(m.sel.AddOns.BadgeIDs))
	for _, id := range m.sel.AddOns.BadgeIDs {
		if slices.ContainsFunc(badges, func(b models.Badge) bool { return b.ID == id }) {
			known = append(known, id)
		}
	}
	return models.CustomOptions{
		Name:       m.sel.AddOns.PlayerName,
		Number:     m.sel.AddOns.JerseyNumber,
		Badges:     known,
		BadgeTotal: NewPricer().BadgeTotal(badges, known),
		Size:       m.sel.Size,
		Fabric:     m.sel.Fabric,
	}
}

func (m *Machine) autoSelect() {
	if m.product == nil || m.kind() == models.KindSimple || m.sel.Fabric != "" {
		return
	}
	options := SelectableOptions(m.product)
	if len(options) == 1 {
		m.sel.Fabric = options[0]
		m.sel.Size = ""
		m.bump()
	}
}

func (m *Machine) bump() {
	m.sel.Revision++
}

func cloneSelection(sel models.Selection) models.Selection {
	sel.AddOns.BadgeIDs = slices.Clone(sel.AddOns.BadgeIDs)
	return sel
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
