package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/models"
)

func money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func price(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func jerseyProduct() *models.Product {
	return &models.Product{
		ID:              "p-jersey",
		Name:            "Home Jersey",
		Slug:            "home-jersey",
		BasePrice:       money(900),
		Category:        models.Category{Slug: models.CategoryJersey},
		AllowNameNumber: true,
		Variants: []models.Variant{
			{
				ID:         "v-fan",
				FabricType: models.FabricFan,
				Price:      price(800),
				Sizes: []models.SizeEntry{
					{Size: "M", Price: price(800), Stock: 10},
					{Size: "L", Price: price(800), Stock: 3},
					{Size: "3XL", Price: price(1050), Stock: 0},
				},
			},
			{
				ID:         "v-player",
				FabricType: models.FabricPlayer,
				Price:      price(1200),
				Sizes: []models.SizeEntry{
					{Size: "M", Price: price(1200), Stock: 4},
					{Size: "XL", Price: price(1200), Stock: 0},
				},
			},
		},
	}
}

func tracksuitProduct() *models.Product {
	return &models.Product{
		ID:        "p-tracksuit",
		Name:      "Training Tracksuit",
		Slug:      "training-tracksuit",
		BasePrice: money(2000),
		Category:  models.Category{Slug: models.CategoryTracksuit},
		Variants: []models.Variant{
			{
				ID:            "v-set",
				TracksuitType: models.TracksuitSet,
				Price:         price(2500),
				Sizes: []models.SizeEntry{
					{Size: "S", Price: price(2500), Stock: 2},
					{Size: "M", Stock: 7},
				},
			},
			{
				ID:            "v-upper",
				TracksuitType: models.TracksuitUpper,
				Price:         price(1800),
				Sizes: []models.SizeEntry{
					{Size: "S", Price: price(1800), Stock: 0},
				},
			},
		},
	}
}

func sneakerProduct() *models.Product {
	return &models.Product{
		ID:        "p-sneaker",
		Name:      "Runner",
		Slug:      "runner",
		BasePrice: money(1500),
		Category:  models.Category{Slug: models.CategorySneaker},
		Variants: []models.Variant{
			{ID: "v-38", Name: "Size", Value: "38", Price: price(1500), Stock: 6},
			{ID: "v-42", Name: "Size", Value: "42", Price: price(1700), Stock: 1},
			{ID: "v-44", Name: "Size", Value: "44", Price: price(1500), Stock: 0},
		},
	}
}
