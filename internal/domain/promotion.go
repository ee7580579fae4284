package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypeFlat    DiscountType = "flat"
	DiscountTypePercent DiscountType = "percent"
)

type Promotion struct {
	ID            int
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	StartDate     time.Time
	EndDate       time.Time
	// ExchangeScore is the loyalty-score cost of redeeming the promotion.
	ExchangeScore int
	Active        bool
	// OwnerID restricts a personal voucher to a single account.
	OwnerID *int
}

func (p *Promotion) ValidAt(t time.Time) bool {
	return p.Active && !t.Before(p.StartDate) && !t.After(p.EndDate)
}

type PromotionRepository interface {
	GetByID(ctx context.Context, id int) (*Promotion, error)
}
