package app

import (
	"errors"
	"net/http"

	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/minhlq-dev/cinebook/internal/payment"
)

// Provider callbacks are the only unauthenticated mutating endpoints, so
// each handler authenticates the request with the gateway's signature
// scheme before touching any state. Settlement itself is idempotent: a
// replayed callback hits ErrAlreadySettled and is acknowledged positively
// so the provider stops retrying.

// verifyCallback runs the gateway signature check and cross-checks the
// reported amount against the stored order total. It returns the verified
// result, or nil with the error already classified by the caller's acks.
func (app *application) verifyCallback(r *http.Request, method string) (*payment.CallbackResult, error) {
	gateway, err := app.gateways.Get(method)
	if err != nil {
		return nil, err
	}

	result, err := gateway.VerifyCallback(r)
	if err != nil {
		return nil, err
	}

	order, err := app.orderRepo.GetByTransactionCode(r.Context(), result.Reference)
	if err != nil {
		return nil, err
	}

	if !result.Amount.IsZero() && !result.Amount.Equal(order.TotalPrice) {
		return nil, payment.ErrAmountMismatch
	}

	return result, nil
}

// settleCallback routes a verified callback into the settlement paths.
func (app *application) settleCallback(r *http.Request, result *payment.CallbackResult) error {
	if result.Succeeded {
		_, err := app.settleSuccess(r.Context(), result.Reference)
		return err
	}

	_, err := app.settleFailure(r.Context(), result.Reference)
	return err
}

// VNPayWebhookHandler implements the VNPay IPN contract: the response is
// always HTTP 200 with a JSON body whose RspCode tells VNPay whether to
// retry.
func (app *application) VNPayWebhookHandler(w http.ResponseWriter, r *http.Request) {
	ack := func(code, message string) {
		err := app.writeJSON(w, http.StatusOK, map[string]string{
			"RspCode": code,
			"Message": message,
		}, nil)
		if err != nil {
			app.logError(r, err)
		}
	}

	result, err := app.verifyCallback(r, payment.MethodVNPay)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			ack("97", "Invalid signature")
		case errors.Is(err, payment.ErrAmountMismatch):
			ack("04", "Invalid amount")
		case errors.Is(err, domain.ErrRecordNotFound):
			ack("01", "Order not found")
		default:
			app.logError(r, err)
			ack("99", "Unknown error")
		}
		return
	}

	err = app.settleCallback(r, result)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadySettled):
			ack("02", "Order already confirmed")
		case errors.Is(err, domain.ErrRecordNotFound):
			ack("01", "Order not found")
		default:
			app.logError(r, err)
			ack("99", "Unknown error")
		}
		return
	}

	ack("00", "Confirm success")
}

// MoMoWebhookHandler handles the MoMo IPN. MoMo expects a bare 204 on
// success and retries on anything else.
func (app *application) MoMoWebhookHandler(w http.ResponseWriter, r *http.Request) {
	result, err := app.verifyCallback(r, payment.MethodMoMo)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			w.WriteHeader(http.StatusForbidden)
		case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, payment.ErrAmountMismatch):
			w.WriteHeader(http.StatusBadRequest)
		default:
			app.logError(r, err)
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	err = app.settleCallback(r, result)
	if err != nil && !errors.Is(err, domain.ErrAlreadySettled) {
		if errors.Is(err, domain.ErrRecordNotFound) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ZaloPayWebhookHandler handles the ZaloPay callback. return_code 1 stops
// the retries, -1 asks ZaloPay to try again.
func (app *application) ZaloPayWebhookHandler(w http.ResponseWriter, r *http.Request) {
	ack := func(code int, message string) {
		err := app.writeJSON(w, http.StatusOK, map[string]any{
			"return_code":    code,
			"return_message": message,
		}, nil)
		if err != nil {
			app.logError(r, err)
		}
	}

	result, err := app.verifyCallback(r, payment.MethodZaloPay)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			ack(-1, "mac not equal")
		case errors.Is(err, domain.ErrRecordNotFound):
			ack(-1, "order not found")
		case errors.Is(err, payment.ErrAmountMismatch):
			ack(-1, "amount mismatch")
		default:
			app.logError(r, err)
			ack(-1, "internal error")
		}
		return
	}

	err = app.settleCallback(r, result)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadySettled):
			ack(1, "order already confirmed")
		case errors.Is(err, domain.ErrRecordNotFound):
			ack(-1, "order not found")
		default:
			app.logError(r, err)
			ack(-1, "internal error")
		}
		return
	}

	ack(1, "success")
}

// PayPalWebhookHandler handles PayPal webhook events.
func (app *application) PayPalWebhookHandler(w http.ResponseWriter, r *http.Request) {
	result, err := app.verifyCallback(r, payment.MethodPayPal)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			app.errorResponse(w, r, http.StatusForbidden, "invalid webhook signature")
		case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, payment.ErrAmountMismatch):
			app.badRequestResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.settleCallback(r, result)
	if err != nil && !errors.Is(err, domain.ErrAlreadySettled) {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// StripeWebhookHandler handles Stripe webhook events. Stripe retries on any
// non-2xx status.
func (app *application) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	result, err := app.verifyCallback(r, payment.MethodStripe)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, payment.ErrIgnoredEvent):
			// An event type we do not consume; ack it so Stripe stops
			// resending.
			w.WriteHeader(http.StatusOK)
		case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, payment.ErrAmountMismatch):
			app.badRequestResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.settleCallback(r, result)
	if err != nil && !errors.Is(err, domain.ErrAlreadySettled) {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
