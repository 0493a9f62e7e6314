package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/models"
)

// ProductFromSeed builds a product with its generated variant matrix and
// applies the seeded stock counts on top.
func (g *Generator) ProductFromSeed(sp SeedProduct) (*models.Product, error) {
	product := &models.Product{
		ID:              uuid.NewString(),
		Name:            sp.Name,
		Slug:            sp.Slug,
		BasePrice:       decimal.NewFromFloat(sp.BasePrice),
		Category:        models.Category{Slug: sp.Category},
		Images:          sp.Images,
		AllowNameNumber: sp.AllowNameNumber,
	}
	if sp.ComparePrice != nil {
		product.ComparePrice = decimal.NewNullDecimal(decimal.NewFromFloat(*sp.ComparePrice))
	}
	if sp.NameNumberPrice != nil {
		product.NameNumberPrice = decimal.NewNullDecimal(decimal.NewFromFloat(*sp.NameNumberPrice))
	}

	input := GenerateInput{BasePrice: product.BasePrice}
	for _, option := range sp.Options {
		input.Options = append(input.Options, OptionPrice{
			Option:    option.Name,
			BasePrice: decimal.NewFromFloat(option.BasePrice),
		})
	}
	variants, err := g.Generate(sp.Category, input)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", sp.Slug, err)
	}

	for i := range variants {
		variant := &variants[i]
		variant.ProductID = product.ID
		if variant.IsSimple() {
			variant.Stock = sp.Stock[variant.Value]
			continue
		}
		for _, option := range sp.Options {
			if option.Name != variant.Option() {
				continue
			}
			for j := range variant.Sizes {
				variant.Sizes[j].Stock = option.Stock[variant.Sizes[j].Size]
			}
		}
	}
	product.Variants = variants
	return product, nil
}

func BadgeFromSeed(sb SeedBadge) models.Badge {
	return models.Badge{
		ID:    sb.ID,
		Name:  sb.Name,
		Price: decimal.NewFromFloat(sb.Price),
		Image: sb.Image,
	}
}
