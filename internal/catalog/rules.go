package catalog

import "github.com/shopspring/decimal"

// LowStockThreshold is the stock level at or below which a size is flagged
// as running low. It never blocks selection.
// TODO: move to per-category data once the admin exposes a setting for it.
const LowStockThreshold = 5

const (
	sneakerMinSize = 25
	sneakerMaxSize = 46

	OneSize = "One Size"
)

var (
	DefaultNameNumberPrice    = decimal.NewFromInt(250)
	DefaultLargeSizeSurcharge = decimal.NewFromInt(250)

	legacyPlayerMultiplier = decimal.RequireFromString("1.3")
)

var (
	ApparelSizes   = []string{"S", "M", "L", "XL", "XXL", "3XL", "4XL", "5XL"}
	TracksuitSizes = []string{"S", "M", "L", "XL", "XXL"}

	largeSizes = map[string]bool{"3XL": true, "4XL": true, "5XL": true}
)

// Rules holds the pricing knobs used when generating size matrices.
type Rules struct {
	LargeSizeSurcharge decimal.Decimal
	// LegacyPlayerMultiplier applies ×1.3 to the Player Version base price
	// before the large size surcharge.
	LegacyPlayerMultiplier bool
}

func DefaultRules() Rules {
	return Rules{LargeSizeSurcharge: DefaultLargeSizeSurcharge}
}

func IsLargeSize(size string) bool {
	return largeSizes[size]
}
