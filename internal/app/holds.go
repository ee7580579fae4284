package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/minhlq-dev/cinebook/api"
	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/minhlq-dev/cinebook/internal/notifier"
)

// HoldSeatsHandler places a short-lived lease on the requested seats. The
// lease is a claim in the cache, not a database write: seats stay NOT_YET
// until an order is actually created against the lease.
func (app *application) HoldSeatsHandler(w http.ResponseWriter, r *http.Request) {
	showtimeId, err := app.readIntParam(r, "showtimeId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.HoldSeatsRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	showtime, err := app.showtimeRepo.GetByID(r.Context(), showtimeId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if !time.Now().Before(showtime.StartTime) {
		app.badRequestResponse(w, r, errors.New("showtime has already started"))
		return
	}

	seats, err := app.scheduleSeatRepo.GetByShowtimeAndIDs(r.Context(), showtimeId, input.SeatIds)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if len(seats) != len(input.SeatIds) {
		app.badRequestResponse(w, r, errors.New("one or more seats do not exist for this showtime"))
		return
	}

	for _, seat := range seats {
		if seat.Status != domain.SeatStatusNotYet {
			app.conflictResponse(w, r, domain.ErrSeatNotReservable)
			return
		}
	}

	holderId := app.sessionManager.Token(r.Context())

	err = app.seats.Acquire(r.Context(), showtimeId, holderId, input.SeatIds)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSeatConflict):
			app.conflictResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.notifySeatEvent(r, notifier.SeatEvent{
		Event:      notifier.EventSeatsHeld,
		ShowtimeID: showtimeId,
		SeatIDs:    input.SeatIds,
	})

	resp := api.HoldSeatsResponse{
		ShowtimeId: showtimeId,
		SeatIds:    input.SeatIds,
		ExpiresAt:  time.Now().Add(app.seats.TTL()),
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) ReleaseSeatsHandler(w http.ResponseWriter, r *http.Request) {
	showtimeId, err := app.readIntParam(r, "showtimeId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	holderId := app.sessionManager.Token(r.Context())

	err = app.seats.Release(r.Context(), showtimeId, holderId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.notifySeatEvent(r, notifier.SeatEvent{
		Event:      notifier.EventSeatsReleased,
		ShowtimeID: showtimeId,
	})

	w.WriteHeader(http.StatusNoContent)
}

// notifySeatEvent publishes best-effort: a broker outage must never fail
// the request that triggered the event.
func (app *application) notifySeatEvent(r *http.Request, event notifier.SeatEvent) {
	err := app.notifier.Notify(r.Context(), event)
	if err != nil {
		app.logger.Error("failed to publish seat event", "event", event.Event, "error", err)
	}
}
