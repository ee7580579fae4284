package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusSuccess OrderStatus = "SUCCESS"
	OrderStatusFailed  OrderStatus = "FAILED"
	OrderStatusRefund  OrderStatus = "REFUND"
)

// CanTransitionTo encodes the only legal edges of the order state machine:
// PENDING -> SUCCESS, PENDING -> FAILED, SUCCESS -> REFUND.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusSuccess || next == OrderStatusFailed
	case OrderStatusSuccess:
		return next == OrderStatusRefund
	default:
		return false
	}
}

type Order struct {
	ID          int64
	PublicCode  string
	UserID      int
	CustomerID  *int
	ShowtimeID  int
	PromotionID *int
	TotalPrice  decimal.Decimal
	Status      OrderStatus
	QRToken     *string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   *time.Time

	Transaction Transaction
	Details     []OrderDetail
	Extras      []OrderExtra
	Tickets     []Ticket
}

// Beneficiary is the account that earns loyalty score when the order
// settles: the attached customer if a staff member booked on their behalf,
// otherwise the ordering user.
func (o *Order) Beneficiary() int {
	if o.CustomerID != nil {
		return *o.CustomerID
	}
	return o.UserID
}

type TransactionStatus = OrderStatus

type Transaction struct {
	ID        int64
	OrderID   int64
	Code      string
	Method    string
	Status    TransactionStatus
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// OrderDetail is the per-seat price line, after every discount has been
// allocated. One row per seat in the order.
type OrderDetail struct {
	ID         int64
	OrderID    int64
	TicketID   int64
	ShowtimeID int
	SeatID     int
	Amount     decimal.Decimal
}

type OrderExtra struct {
	ID        int64
	OrderID   int64
	ProductID int
	Quantity  int
	UnitPrice decimal.Decimal
	Status    OrderStatus
}

type OrderSummary struct {
	PublicCode string
	MovieTitle string
	StartTime  time.Time
	TotalPrice decimal.Decimal
	Status     OrderStatus
	SeatCount  int
	CreatedAt  time.Time
}

// SettledOrder carries everything the post-settlement side effects (email,
// seat events, score audit) need, resolved inside the settlement transaction.
type SettledOrder struct {
	Order        Order
	SeatIDs      []int
	ShowtimeID   int
	ScoreAwarded int
}

type OrderRepository interface {
	// Create persists the order with every dependent row (transaction,
	// tickets, details, extras) and transitions the schedule seats in a
	// single database transaction. A seat that is no longer in the expected
	// state aborts the whole write with ErrSeatConflict.
	Create(ctx context.Context, order *Order, tickets []Ticket, seatStatus SeatStatus) error

	GetByCode(ctx context.Context, publicCode string) (*Order, error)
	GetByTransactionCode(ctx context.Context, code string) (*Order, error)
	ListByUser(ctx context.Context, userID int, p Pagination) ([]OrderSummary, *Metadata, error)

	// SettleSuccess finalizes payment for the transaction identified by
	// reference. The write is guarded by Transaction.status == PENDING; a
	// transaction in any other state returns ErrAlreadySettled.
	SettleSuccess(ctx context.Context, reference, admissionToken string) (*SettledOrder, error)
	SettleFailure(ctx context.Context, reference string) (*SettledOrder, error)

	// Repay swaps the pending order's transaction reference and method.
	Repay(ctx context.Context, orderID int64, method, reference string) error

	// Update replaces the pending order's price lines, extras, promotion,
	// total and transaction reference in one transaction.
	Update(ctx context.Context, order *Order) error

	Cancel(ctx context.Context, orderID int64) (*SettledOrder, error)
	Refund(ctx context.Context, orderID int64) (*SettledOrder, error)

	// MarkTicketsUsed flips every ticket of the order to used and returns
	// how many tickets were newly marked.
	MarkTicketsUsed(ctx context.Context, orderID int64) (int, error)
}
