// Package pricing computes and validates order prices. It is pure: callers
// resolve seats, products and promotion terms and get back the final total
// plus the per-line amounts that become OrderDetail and OrderExtra rows.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrZeroQuantity  = errors.New("product lines must have a positive quantity")
	ErrTotalMismatch = errors.New("submitted total does not match the computed total")
)

// roundStep is the granularity of every stored amount: totals and line
// amounts are rounded up to the nearest 1,000 currency minor units.
var (
	roundStep = decimal.NewFromInt(1000)
	hundred   = decimal.NewFromInt(100)
	tolerance = decimal.NewFromFloat(0.01)
)

type SeatSelection struct {
	ScheduleSeatID int
	BasePrice      decimal.Decimal
	// DiscountPercent is the audience-category discount (child, student, ...).
	DiscountPercent decimal.Decimal
}

type ProductSelection struct {
	ProductID int
	UnitPrice decimal.Decimal
	Quantity  int
	// ComboDiscountPercent applies before every other discount; zero for
	// plain concession items.
	ComboDiscountPercent decimal.Decimal
}

type PromotionTerms struct {
	Percentage bool
	Discount   decimal.Decimal
}

type SeatLine struct {
	ScheduleSeatID int
	// Price is the audience-discounted seat price before promotion.
	Price decimal.Decimal
	// Amount is the final stored amount after promotion allocation.
	Amount decimal.Decimal
}

type ProductLine struct {
	ProductID int
	Quantity  int
	// UnitPrice is the final per-unit price after all discounts.
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type Allocation struct {
	SeatsTotal      decimal.Decimal
	ProductsTotal   decimal.Decimal
	Subtotal        decimal.Decimal
	PromotionAmount decimal.Decimal
	Total           decimal.Decimal
	Seats           []SeatLine
	Products        []ProductLine
}

// Allocate computes the order total and allocates the promotion discount
// across seat and product lines pro-rata to their pre-discount prices.
// Discounts compose in a fixed order: combo, then audience, then promotion.
// The client-submitted total is an echo, never an input to the price: any
// difference beyond the tolerance is rejected.
func Allocate(
	seats []SeatSelection,
	products []ProductSelection,
	promo *PromotionTerms,
	submitted decimal.Decimal) (*Allocation, error) {

	alloc := &Allocation{
		Seats:    make([]SeatLine, 0, len(seats)),
		Products: make([]ProductLine, 0, len(products)),
	}

	seatsTotal := decimal.Zero
	for _, s := range seats {
		price := discounted(s.BasePrice, s.DiscountPercent).Round(0)
		seatsTotal = seatsTotal.Add(price)
		alloc.Seats = append(alloc.Seats, SeatLine{
			ScheduleSeatID: s.ScheduleSeatID,
			Price:          price,
		})
	}

	productsTotal := decimal.Zero
	for _, p := range products {
		if p.Quantity <= 0 {
			return nil, ErrZeroQuantity
		}

		unit := discounted(p.UnitPrice, p.ComboDiscountPercent).Round(0)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(p.Quantity)))
		productsTotal = productsTotal.Add(lineTotal)
		alloc.Products = append(alloc.Products, ProductLine{
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
	}

	subtotal := seatsTotal.Add(productsTotal)

	promotionAmount := decimal.Zero
	if promo != nil {
		if promo.Percentage {
			promotionAmount = subtotal.Mul(promo.Discount).Div(hundred).Round(0)
		} else {
			promotionAmount = promo.Discount.Round(0)
		}
	}

	total := roundUpToStep(subtotal.Sub(promotionAmount))

	if total.Sub(submitted).Abs().GreaterThan(tolerance) {
		return nil, ErrTotalMismatch
	}

	alloc.SeatsTotal = seatsTotal
	alloc.ProductsTotal = productsTotal
	alloc.Subtotal = subtotal
	alloc.PromotionAmount = promotionAmount
	alloc.Total = total

	allocatePromotion(alloc)

	return alloc, nil
}

// allocatePromotion splits the promotion amount between seats and products
// proportionally, then lets every line absorb its share pro-rata to its own
// pre-discount price. Each line is rounded up to the step; any surplus the
// per-line round-ups created over the order total is taken back from the
// largest line so that the stored lines always sum to the stored total.
func allocatePromotion(alloc *Allocation) {
	if alloc.Subtotal.IsZero() {
		// Nothing to allocate; all ratios would divide by zero.
		for i := range alloc.Seats {
			alloc.Seats[i].Amount = decimal.Zero
		}
		for i := range alloc.Products {
			alloc.Products[i].UnitPrice = decimal.Zero
			alloc.Products[i].LineTotal = decimal.Zero
		}
		return
	}

	seatShare := alloc.PromotionAmount.Mul(alloc.SeatsTotal).Div(alloc.Subtotal).Round(0)
	productShare := alloc.PromotionAmount.Sub(seatShare)

	linesTotal := decimal.Zero
	largestSeat := -1
	largestProduct := -1

	for i := range alloc.Seats {
		line := &alloc.Seats[i]

		lineDiscount := decimal.Zero
		if !alloc.SeatsTotal.IsZero() {
			lineDiscount = seatShare.Mul(line.Price).Div(alloc.SeatsTotal).Round(0)
		}

		line.Amount = roundUpToStep(line.Price.Sub(lineDiscount))
		linesTotal = linesTotal.Add(line.Amount)

		if largestSeat < 0 || line.Amount.GreaterThan(alloc.Seats[largestSeat].Amount) {
			largestSeat = i
		}
	}

	for i := range alloc.Products {
		line := &alloc.Products[i]

		lineDiscount := decimal.Zero
		if !alloc.ProductsTotal.IsZero() {
			lineDiscount = productShare.Mul(line.LineTotal).Div(alloc.ProductsTotal).Round(0)
		}

		line.LineTotal = roundUpToStep(line.LineTotal.Sub(lineDiscount))
		line.UnitPrice = line.LineTotal.Div(decimal.NewFromInt(int64(line.Quantity)))
		linesTotal = linesTotal.Add(line.LineTotal)

		if largestProduct < 0 || line.LineTotal.GreaterThan(alloc.Products[largestProduct].LineTotal) {
			largestProduct = i
		}
	}

	surplus := linesTotal.Sub(alloc.Total)
	if surplus.IsZero() {
		return
	}

	// Product-only orders have no seat line to absorb the surplus.
	switch {
	case largestSeat >= 0:
		alloc.Seats[largestSeat].Amount = alloc.Seats[largestSeat].Amount.Sub(surplus)
	case largestProduct >= 0:
		line := &alloc.Products[largestProduct]
		line.LineTotal = line.LineTotal.Sub(surplus)
		line.UnitPrice = line.LineTotal.Div(decimal.NewFromInt(int64(line.Quantity)))
	}
}

func discounted(price, percent decimal.Decimal) decimal.Decimal {
	if percent.IsZero() {
		return price
	}
	return price.Mul(hundred.Sub(percent)).Div(hundred)
}

func roundUpToStep(v decimal.Decimal) decimal.Decimal {
	if v.Sign() <= 0 {
		return decimal.Zero
	}
	return v.Div(roundStep).Ceil().Mul(roundStep)
}
