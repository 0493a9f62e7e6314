package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CategoryKind int

const (
	KindSimple CategoryKind = iota
	KindFabric
	KindType
)

const (
	CategoryJersey    = "jersey"
	CategoryTracksuit = "tracksuit"
	CategorySneaker   = "sneaker"
	CategoryShorts    = "shorts"
	CategoryWatch     = "watch"
)

const (
	FabricFan    = "Fan Version"
	FabricPlayer = "Player Version"

	TracksuitSet   = "Set"
	TracksuitUpper = "Upper"
)

type Category struct {
	Slug string `json:"slug" yaml:"slug"`
}

// Kind reports which option axis the category uses.
func (c Category) Kind() CategoryKind {
	switch c.Slug {
	case CategoryJersey:
		return KindFabric
	case CategoryTracksuit:
		return KindType
	default:
		return KindSimple
	}
}

type Product struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Slug            string              `json:"slug"`
	BasePrice       decimal.Decimal     `json:"basePrice"`
	ComparePrice    decimal.NullDecimal `json:"comparePrice"`
	Category        Category            `json:"category"`
	Images          []string            `json:"images"`
	AllowNameNumber bool                `json:"allowNameNumber"`
	NameNumberPrice decimal.NullDecimal `json:"nameNumberPrice"`
	Variants        []Variant           `json:"variants"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// OptionVariant returns the fabric/type variant carrying the given option label.
func (p *Product) OptionVariant(option string) *Variant {
	if p == nil || option == "" {
		return nil
	}
	for i := range p.Variants {
		if p.Variants[i].Option() == option {
			return &p.Variants[i]
		}
	}
	return nil
}

func (p *Product) VariantByID(id string) *Variant {
	if p == nil || id == "" {
		return nil
	}
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// Variant is either a simple name/value variant or a fabric/type variant
// holding a sizes collection.
type Variant struct {
	ID            string              `json:"id"`
	ProductID     string              `json:"productId"`
	Name          string              `json:"name,omitempty"`
	Value         string              `json:"value,omitempty"`
	Price         decimal.NullDecimal `json:"price"`
	Stock         int                 `json:"stock"`
	FabricType    string              `json:"fabricType,omitempty"`
	TracksuitType string              `json:"tracksuitType,omitempty"`
	Sizes         []SizeEntry         `json:"sizes,omitempty"`
	Manual        bool                `json:"manual,omitempty"`
}

// Option returns the fabric or tracksuit type label, empty for simple variants.
func (v *Variant) Option() string {
	if v.FabricType != "" {
		return v.FabricType
	}
	return v.TracksuitType
}

func (v *Variant) IsSimple() bool {
	return v.Option() == ""
}

func (v *Variant) SizeEntry(size string) *SizeEntry {
	for i := range v.Sizes {
		if v.Sizes[i].Size == size {
			return &v.Sizes[i]
		}
	}
	return nil
}

type SizeEntry struct {
	Size   string              `json:"size"`
	Price  decimal.NullDecimal `json:"price"`
	Stock  int                 `json:"stock"`
	Manual bool                `json:"manual,omitempty"`
}

type Badge struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}
