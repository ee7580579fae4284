package domain

import "context"

type SeatStatus string

const (
	SeatStatusNotYet SeatStatus = "NOT_YET"
	SeatStatusHeld   SeatStatus = "HELD"
	SeatStatusBooked SeatStatus = "BOOKED"
)

// ScheduleSeat is the reservable unit: one row per (seat, showtime) pair,
// created when the showtime is scheduled and only ever transitioned after
// that, never deleted.
type ScheduleSeat struct {
	ID         int
	ShowtimeID int
	SeatID     int
	Row        string
	Col        int
	Status     SeatStatus
}

type ScheduleSeatRepository interface {
	GetByShowtimeAndIDs(ctx context.Context, showtimeID int, ids []int) ([]ScheduleSeat, error)
}
