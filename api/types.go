// Package api defines the request and response payloads of the HTTP API.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

type HoldSeatsRequest struct {
	SeatIds []int `json:"seatIds" validate:"required,min=1,max=8,dive,gt=0"`
}

type HoldSeatsResponse struct {
	ShowtimeId int       `json:"showtimeId"`
	SeatIds    []int     `json:"seatIds"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type OrderSeatRequest struct {
	ScheduleSeatId int `json:"scheduleSeatId" validate:"required,gt=0"`
	TicketTypeId   int `json:"ticketTypeId" validate:"required,gt=0"`
}

type OrderProductRequest struct {
	ProductId int `json:"productId" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	ShowtimeId    int                   `json:"showtimeId" validate:"required,gt=0"`
	CustomerId    *int                  `json:"customerId,omitempty" validate:"omitempty,gt=0"`
	Seats         []OrderSeatRequest    `json:"seats" validate:"required,min=1,max=8,dive"`
	Products      []OrderProductRequest `json:"products,omitempty" validate:"omitempty,dive"`
	PromotionId   *int                  `json:"promotionId,omitempty" validate:"omitempty,gt=0"`
	PaymentMethod string                `json:"paymentMethod" validate:"required,payment_method"`
	TotalPrice    decimal.Decimal       `json:"totalPrice" validate:"required"`
}

type UpdateOrderRequest struct {
	Products    []OrderProductRequest `json:"products,omitempty" validate:"omitempty,dive"`
	PromotionId *int                  `json:"promotionId,omitempty" validate:"omitempty,gt=0"`
	TotalPrice  decimal.Decimal       `json:"totalPrice" validate:"required"`
}

type RepayOrderRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required,payment_method"`
}

type OrderSeatResponse struct {
	ScheduleSeatId int             `json:"scheduleSeatId"`
	Amount         decimal.Decimal `json:"amount"`
}

type OrderProductResponse struct {
	ProductId int             `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type OrderResponse struct {
	OrderCode     string                 `json:"orderCode"`
	Status        string                 `json:"status"`
	PaymentMethod string                 `json:"paymentMethod"`
	TotalPrice    decimal.Decimal        `json:"totalPrice"`
	PayUrl        string                 `json:"payUrl,omitempty"`
	QrToken       *string                `json:"qrToken,omitempty"`
	Seats         []OrderSeatResponse    `json:"seats"`
	Products      []OrderProductResponse `json:"products,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

type OrderSummaryResponse struct {
	OrderCode  string          `json:"orderCode"`
	MovieTitle string          `json:"movieTitle"`
	StartTime  time.Time       `json:"startTime"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Status     string          `json:"status"`
	SeatCount  int             `json:"seatCount"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type OrderListResponse struct {
	Orders   []OrderSummaryResponse `json:"orders"`
	Metadata Metadata               `json:"metadata"`
}

type CheckinRequest struct {
	Token string `json:"token" validate:"required"`
}

type CheckinResponse struct {
	OrderCode   string `json:"orderCode"`
	TicketsUsed int    `json:"ticketsUsed"`
}
