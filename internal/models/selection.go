package models

import "github.com/shopspring/decimal"

// Selection is the in-progress set of shopper choices for one product.
type Selection struct {
	ProductID string `json:"productId"`
	Fabric    string `json:"fabric,omitempty"`
	Size      string `json:"size,omitempty"`
	VariantID string `json:"variantId,omitempty"`
	AddOns    AddOns `json:"addOns"`
	Revision  int64  `json:"revision"`
}

type AddOns struct {
	PlayerName   string   `json:"playerName,omitempty"`
	JerseyNumber string   `json:"jerseyNumber,omitempty"`
	BadgeIDs     []string `json:"badgeIds,omitempty"`
}

// CustomOptions is the payload handed to the cart when an item is added.
type CustomOptions struct {
	Name       string          `json:"name"`
	Number     string          `json:"number"`
	Badges     []string        `json:"badges"`
	BadgeTotal decimal.Decimal `json:"badgeTotal"`
	Size       string          `json:"size"`
	Fabric     string          `json:"fabric"`
}

type CartItem struct {
	ProductID     string          `json:"productId"`
	VariantID     string          `json:"variantId,omitempty"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Image         string          `json:"image,omitempty"`
	UnitPrice     decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	CustomOptions CustomOptions   `json:"customOptions"`
}
