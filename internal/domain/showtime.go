package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Showtime struct {
	ID         int
	MovieTitle string
	HallName   string
	StartTime  time.Time
	EndTime    time.Time
	BasePrice  decimal.Decimal
}

type ShowtimeRepository interface {
	GetByID(ctx context.Context, id int) (*Showtime, error)
}
