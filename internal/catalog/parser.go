package catalog

// Package catalog provides decoding of catalog payloads at the I/O edge.

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kitbazar/kitbazar/internal/models"
)

// DataIssue records malformed catalog data that was degraded instead of
// failing the whole payload.
type DataIssue struct {
	VariantID string
	Field     string
	Err       error
}

func (i DataIssue) Error() string {
	return fmt.Sprintf("variant %s: %s: %v", i.VariantID, i.Field, i.Err)
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

type productWire struct {
	models.Product
	Variants []variantWire `json:"variants"`
}

type variantWire struct {
	models.Variant
	Sizes json.RawMessage `json:"sizes"`
}

// ParseProduct decodes a product payload. A variant whose sizes cannot be
// decoded is kept with no sizes and reported as a DataIssue.
func (p *Parser) ParseProduct(content []byte) (*models.Product, []DataIssue, error) {
	var wire productWire
	if err := json.Unmarshal(content, &wire); err != nil {
		return nil, nil, fmt.Errorf("failed to parse product JSON: %w", err)
	}

	product := wire.Product
	product.Variants = make([]models.Variant, 0, len(wire.Variants))
	var issues []DataIssue
	for _, vw := range wire.Variants {
		variant := vw.Variant
		sizes, err := p.DecodeSizes(vw.Sizes)
		if err != nil {
			issues = append(issues, DataIssue{VariantID: variant.ID, Field: "sizes", Err: err})
			sizes = nil
		}
		variant.Sizes = sizes
		if variant.ProductID == "" {
			variant.ProductID = product.ID
		}
		product.Variants = append(product.Variants, variant)
	}
	return &product, issues, nil
}

// DecodeSizes accepts a JSON array of size entries or a JSON string holding
// one. Empty and null input decode to no sizes.
func (p *Parser) DecodeSizes(raw []byte) ([]models.SizeEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSizes, err)
		}
		return p.DecodeSizes([]byte(encoded))
	}

	var sizes []models.SizeEntry
	if err := json.Unmarshal(raw, &sizes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSizes, err)
	}
	seen := make(map[string]bool, len(sizes))
	for _, entry := range sizes {
		if seen[entry.Size] {
			return nil, fmt.Errorf("%w: duplicate size %q", ErrMalformedSizes, entry.Size)
		}
		seen[entry.Size] = true
	}
	return sizes, nil
}

// Seed is the YAML file used to bootstrap a catalog.
type Seed struct {
	Products []SeedProduct `yaml:"products"`
	Badges   []SeedBadge   `yaml:"badges"`
}

type SeedProduct struct {
	Name            string         `yaml:"name"`
	Slug            string         `yaml:"slug"`
	Category        string         `yaml:"category"`
	BasePrice       float64        `yaml:"base_price"`
	ComparePrice    *float64       `yaml:"compare_price"`
	Images          []string       `yaml:"images"`
	AllowNameNumber bool           `yaml:"allow_name_number"`
	NameNumberPrice *float64       `yaml:"name_number_price"`
	Options         []SeedOption   `yaml:"options"`
	Stock           map[string]int `yaml:"stock"`
}

type SeedOption struct {
	Name      string         `yaml:"name"`
	BasePrice float64        `yaml:"base_price"`
	Stock     map[string]int `yaml:"stock"`
}

type SeedBadge struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
	Image string  `yaml:"image"`
}

func (p *Parser) ParseSeed(content []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(content, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &seed, nil
}
