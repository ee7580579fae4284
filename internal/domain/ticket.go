package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ticket is created at order-creation time and finalized at settlement:
// Paid flips when the order settles successfully, Used flips at check-in.
type Ticket struct {
	ID             int64
	OrderID        int64
	ScheduleSeatID int
	ShowtimeID     int
	TicketTypeID   int
	Paid           bool
	Used           bool
}

// TicketType is the audience category (adult, child, student, ...) carrying
// the per-ticket percentage discount.
type TicketType struct {
	ID              int
	Name            string
	DiscountPercent decimal.Decimal
}

type TicketTypeRepository interface {
	GetByIDs(ctx context.Context, ids []int) ([]TicketType, error)
}
