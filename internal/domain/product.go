package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is a concession item or combo sold alongside tickets. Combos carry
// their own flat discount percent, applied before any other discount.
type Product struct {
	ID              int
	Name            string
	UnitPrice       decimal.Decimal
	IsCombo         bool
	DiscountPercent decimal.Decimal
	Active          bool
}

type ProductRepository interface {
	GetByIDs(ctx context.Context, ids []int) ([]Product, error)
}
