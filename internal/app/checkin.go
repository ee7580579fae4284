package app

import (
	"errors"
	"net/http"

	"github.com/minhlq-dev/cinebook/api"
	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/minhlq-dev/cinebook/internal/token"
)

// CheckinHandler redeems an admission QR token at the hall entrance. The
// token is self-contained: its signature and expiry are checked offline,
// then the order is cross-checked so a refunded order or a reused token is
// turned away.
func (app *application) CheckinHandler(w http.ResponseWriter, r *http.Request) {
	var input api.CheckinRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	orderCode, err := app.tokens.Verify(input.Token)
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			app.badRequestResponse(w, r, errors.New("admission token is invalid or expired"))
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	order, err := app.orderRepo.GetByCode(r.Context(), orderCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if order.QRToken == nil || *order.QRToken != input.Token {
		app.badRequestResponse(w, r, errors.New("admission token does not match the order"))
		return
	}

	if order.Status != domain.OrderStatusSuccess {
		app.conflictResponse(w, r, errors.New("order is not in a paid state"))
		return
	}

	used, err := app.orderRepo.MarkTicketsUsed(r.Context(), order.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if used == 0 {
		app.conflictResponse(w, r, errors.New("tickets have already been used"))
		return
	}

	resp := api.CheckinResponse{
		OrderCode:   order.PublicCode,
		TicketsUsed: used,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
