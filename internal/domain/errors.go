package domain

import "errors"

var (
	ErrRecordNotFound       = errors.New("record not found")
	ErrEditConflict         = errors.New("edit conflict")
	ErrSeatConflict         = errors.New("seat(s) are held by another customer")
	ErrLeaseExpired         = errors.New("your seat selection has expired, please select your seats again")
	ErrSeatNotReservable    = errors.New("seat(s) are no longer available for this showtime")
	ErrAlreadySettled       = errors.New("transaction has already been settled")
	ErrInvalidTransition    = errors.New("illegal order status transition")
	ErrInsufficientScore    = errors.New("not enough loyalty score to redeem this promotion")
	ErrPromotionNotEligible = errors.New("promotion cannot be redeemed by this customer")
)
