package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/minhlq-dev/cinebook/internal/notifier"
	"github.com/minhlq-dev/cinebook/internal/payment"
)

// settleSuccess finalizes a paid transaction: it mints the admission token,
// runs the guarded settlement write, and fires the post-commit effects.
// Every payment path converges here, whether the money arrived through a
// provider callback, a status poll, or synchronously at the counter.
func (app *application) settleSuccess(ctx context.Context, reference string) (*domain.SettledOrder, error) {
	order, err := app.orderRepo.GetByTransactionCode(ctx, reference)
	if err != nil {
		return nil, err
	}

	showtime, err := app.showtimeRepo.GetByID(ctx, order.ShowtimeID)
	if err != nil {
		return nil, err
	}

	admissionToken, err := app.tokens.Sign(order.PublicCode, showtime.EndTime)
	if err != nil {
		return nil, err
	}

	settled, err := app.orderRepo.SettleSuccess(ctx, reference, admissionToken)
	if err != nil {
		return nil, err
	}

	// Post-commit effects are best effort: the money has moved and the
	// settlement is durable, so failures here are logged, never surfaced.
	err = app.notifier.Notify(ctx, notifier.SeatEvent{
		Event:      notifier.EventSeatsBooked,
		ShowtimeID: settled.ShowtimeID,
		SeatIDs:    settled.SeatIDs,
		OrderCode:  settled.Order.PublicCode,
	})
	if err != nil {
		app.logger.Error("failed to publish booked event", "orderCode", settled.Order.PublicCode, "error", err)
	}

	data := map[string]any{
		"OrderCode":     settled.Order.PublicCode,
		"ShowtimeStart": showtime.StartTime,
		"Seats":         len(settled.SeatIDs),
		"TotalPrice":    settled.Order.TotalPrice,
	}

	err = app.mailer.Send(settled.Order.Email, "order_confirmation.tmpl", data)
	if err != nil {
		app.logger.Error("failed to send confirmation email", "orderCode", settled.Order.PublicCode, "error", err)
	}

	return settled, nil
}

// ReconcileOrderHandler polls the provider for the authoritative payment
// state of a pending order. It covers callbacks that never arrived: staff
// trigger it out of band and the order settles exactly as if the provider
// had called back.
func (app *application) ReconcileOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, ok := app.fetchOrder(w, r)
	if !ok {
		return
	}

	if order.Status != domain.OrderStatusPending {
		app.conflictResponse(w, r, domain.ErrAlreadySettled)
		return
	}

	gateway, err := app.gateways.Get(order.Transaction.Method)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	status, err := gateway.QueryStatus(r.Context(), order.Transaction.Code)
	if err != nil {
		if errors.Is(err, payment.ErrUnsupported) {
			app.badRequestResponse(w, r, errors.New("this payment method cannot be reconciled"))
			return
		}
		app.logger.Error("provider status query failed",
			"orderCode", order.PublicCode, "method", order.Transaction.Method, "error", err)
		app.errorResponse(w, r, http.StatusBadGateway, "The payment provider did not answer the status query")
		return
	}

	if status.Paid && !status.Amount.IsZero() && !status.Amount.Equal(order.TotalPrice) {
		app.conflictResponse(w, r, payment.ErrAmountMismatch)
		return
	}

	var settled *domain.SettledOrder
	if status.Paid {
		settled, err = app.settleSuccess(r.Context(), order.Transaction.Code)
	} else {
		settled, err = app.settleFailure(r.Context(), order.Transaction.Code)
	}
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadySettled):
			app.conflictResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	order.Status = settled.Order.Status
	order.QRToken = settled.Order.QRToken
	resp := app.orderResponse(order, "")

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// settleFailure releases the order's seats after a failed or abandoned
// payment.
func (app *application) settleFailure(ctx context.Context, reference string) (*domain.SettledOrder, error) {
	settled, err := app.orderRepo.SettleFailure(ctx, reference)
	if err != nil {
		return nil, err
	}

	err = app.notifier.Notify(ctx, notifier.SeatEvent{
		Event:      notifier.EventSeatsReleased,
		ShowtimeID: settled.ShowtimeID,
		SeatIDs:    settled.SeatIDs,
		OrderCode:  settled.Order.PublicCode,
	})
	if err != nil {
		app.logger.Error("failed to publish released event", "orderCode", settled.Order.PublicCode, "error", err)
	}

	return settled, nil
}
