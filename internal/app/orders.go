package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/minhlq-dev/cinebook/api"
	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/minhlq-dev/cinebook/internal/notifier"
	"github.com/minhlq-dev/cinebook/internal/payment"
	"github.com/minhlq-dev/cinebook/internal/pricing"
)

func newOrderCode() string {
	return fmt.Sprintf("ORD-%s", strings.ToUpper(uuid.NewString()[:12]))
}

func (app *application) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var input api.CreateOrderRequest

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

	userId := app.contextGetUserId(r)

	user, err := app.userRepo.GetByID(r.Context(), userId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	// A staff member can book on behalf of a customer; the customer then
	// receives the tickets and earns the loyalty score.
	beneficiary := user
	if input.CustomerId != nil {
		if user.Role != domain.RoleStaff && user.Role != domain.RoleAdmin {
			app.forbiddenResponse(w, r)
			return
		}

		beneficiary, err = app.userRepo.GetByID(r.Context(), *input.CustomerId)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrRecordNotFound):
				app.badRequestResponse(w, r, errors.New("customer not found"))
			default:
				app.serverErrorResponse(w, r, err)
			}
			return
		}
	}

	showtime, err := app.showtimeRepo.GetByID(r.Context(), input.ShowtimeId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.badRequestResponse(w, r, errors.New("showtime not found"))
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if !time.Now().Before(showtime.StartTime) {
		app.badRequestResponse(w, r, errors.New("showtime has already started"))
		return
	}

	seatIds := make([]int, 0, len(input.Seats))
	for _, seat := range input.Seats {
		seatIds = append(seatIds, seat.ScheduleSeatId)
	}

	seats, err := app.scheduleSeatRepo.GetByShowtimeAndIDs(r.Context(), input.ShowtimeId, seatIds)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if len(seats) != len(seatIds) {
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

	err = app.seats.ValidateHold(r.Context(), input.ShowtimeId, holderId, seatIds)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLeaseExpired):
			// The hold lapsed, so the seats are back on the market.
			app.notifySeatEvent(r, notifier.SeatEvent{
				Event:      notifier.EventSeatsReleased,
				ShowtimeID: input.ShowtimeId,
				SeatIDs:    seatIds,
			})
			app.badRequestResponse(w, r, err)
		case errors.Is(err, domain.ErrSeatConflict):
			app.conflictResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	seatSelections, err := app.resolveSeatSelections(r, showtime, input.Seats)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	productSelections, err := app.resolveProductSelections(r, input.Products)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	promoTerms, err := app.resolvePromotionTerms(r, input.PromotionId, beneficiary)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientScore):
			app.conflictResponse(w, r, err)
		default:
			app.badRequestResponse(w, r, err)
		}
		return
	}

	allocation, err := pricing.Allocate(seatSelections, productSelections, promoTerms, input.TotalPrice)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	gateway, err := app.gateways.Get(input.PaymentMethod)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	publicCode := newOrderCode()

	initiated, err := gateway.Initiate(r.Context(), payment.InitiateRequest{
		Amount:    allocation.Total,
		OrderCode: publicCode,
		OrderInfo: fmt.Sprintf("Payment for order %s", publicCode),
		ClientIP:  r.RemoteAddr,
	})
	if err != nil {
		app.logger.Error("payment initiation failed", "method", input.PaymentMethod, "error", err)
		app.errorResponse(w, r, http.StatusBadGateway, "The payment provider rejected the request, please try again")
		return
	}

	order := &domain.Order{
		PublicCode:  publicCode,
		UserID:      user.ID,
		CustomerID:  input.CustomerId,
		ShowtimeID:  input.ShowtimeId,
		PromotionID: input.PromotionId,
		TotalPrice:  allocation.Total,
		Status:      domain.OrderStatusPending,
		Email:       beneficiary.Email,
		Transaction: domain.Transaction{
			Code:   initiated.Reference,
			Method: input.PaymentMethod,
			Status: domain.OrderStatusPending,
		},
		Extras: orderExtras(allocation.Products),
	}

	tickets := make([]domain.Ticket, 0, len(input.Seats))
	for _, seat := range input.Seats {
		tickets = append(tickets, domain.Ticket{
			ScheduleSeatID: seat.ScheduleSeatId,
			ShowtimeID:     input.ShowtimeId,
			TicketTypeID:   seat.TicketTypeId,
		})
	}

	for _, line := range allocation.Seats {
		order.Details = append(order.Details, domain.OrderDetail{
			ShowtimeID: input.ShowtimeId,
			SeatID:     line.ScheduleSeatID,
			Amount:     line.Amount,
		})
	}

	err = app.orderRepo.Create(r.Context(), order, tickets, domain.SeatStatusHeld)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSeatConflict):
			app.conflictResponse(w, r, err)
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.notifySeatEvent(r, notifier.SeatEvent{
		Event:      notifier.EventSeatsHeld,
		ShowtimeID: input.ShowtimeId,
		SeatIDs:    seatIds,
		OrderCode:  publicCode,
	})

	// Cash settles at the counter, synchronously: there is no callback
	// coming, so the settlement path runs before the response.
	if initiated.Paid {
		settled, err := app.settleSuccess(r.Context(), initiated.Reference)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
		order.Status = settled.Order.Status
		order.QRToken = settled.Order.QRToken
	}

	resp := app.orderResponse(order, initiated.PayURL)

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) resolveSeatSelections(
	r *http.Request,
	showtime *domain.Showtime,
	seats []api.OrderSeatRequest) ([]pricing.SeatSelection, error) {

	typeIds := make([]int, 0, len(seats))
	seen := make(map[int]bool)
	for _, seat := range seats {
		if !seen[seat.TicketTypeId] {
			seen[seat.TicketTypeId] = true
			typeIds = append(typeIds, seat.TicketTypeId)
		}
	}

	ticketTypes, err := app.ticketTypeRepo.GetByIDs(r.Context(), typeIds)
	if err != nil {
		return nil, err
	}

	typesById := make(map[int]domain.TicketType, len(ticketTypes))
	for _, t := range ticketTypes {
		typesById[t.ID] = t
	}

	selections := make([]pricing.SeatSelection, 0, len(seats))
	for _, seat := range seats {
		ticketType, ok := typesById[seat.TicketTypeId]
		if !ok {
			return nil, fmt.Errorf("ticket type %d does not exist", seat.TicketTypeId)
		}

		selections = append(selections, pricing.SeatSelection{
			ScheduleSeatID:  seat.ScheduleSeatId,
			BasePrice:       showtime.BasePrice,
			DiscountPercent: ticketType.DiscountPercent,
		})
	}

	return selections, nil
}

func (app *application) resolveProductSelections(
	r *http.Request,
	products []api.OrderProductRequest) ([]pricing.ProductSelection, error) {

	if len(products) == 0 {
		return nil, nil
	}

	productIds := make([]int, 0, len(products))
	for _, p := range products {
		productIds = append(productIds, p.ProductId)
	}

	catalog, err := app.productRepo.GetByIDs(r.Context(), productIds)
	if err != nil {
		return nil, err
	}

	byId := make(map[int]domain.Product, len(catalog))
	for _, p := range catalog {
		byId[p.ID] = p
	}

	selections := make([]pricing.ProductSelection, 0, len(products))

	for _, p := range products {
		product, ok := byId[p.ProductId]
		if !ok || !product.Active {
			return nil, fmt.Errorf("product %d is not available", p.ProductId)
		}

		selection := pricing.ProductSelection{
			ProductID: product.ID,
			UnitPrice: product.UnitPrice,
			Quantity:  p.Quantity,
		}
		if product.IsCombo {
			selection.ComboDiscountPercent = product.DiscountPercent
		}
		selections = append(selections, selection)
	}

	return selections, nil
}

// orderExtras converts the allocated product lines into the rows persisted
// alongside the order.
func orderExtras(lines []pricing.ProductLine) []domain.OrderExtra {
	if len(lines) == 0 {
		return nil
	}

	extras := make([]domain.OrderExtra, 0, len(lines))
	for _, line := range lines {
		extras = append(extras, domain.OrderExtra{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Status:    domain.OrderStatusPending,
		})
	}

	return extras
}

func (app *application) resolvePromotionTerms(
	r *http.Request,
	promotionId *int,
	beneficiary *domain.User) (*pricing.PromotionTerms, error) {

	if promotionId == nil {
		return nil, nil
	}

	promotion, err := app.promotionRepo.GetByID(r.Context(), *promotionId)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, errors.New("promotion not found")
		}
		return nil, err
	}

	if !promotion.ValidAt(time.Now()) {
		return nil, domain.ErrPromotionNotEligible
	}

	if promotion.OwnerID != nil && *promotion.OwnerID != beneficiary.ID {
		return nil, domain.ErrPromotionNotEligible
	}

	// Score-funded promotions are paid with loyalty score, which only
	// customer accounts accrue and spend.
	if promotion.ExchangeScore > 0 && beneficiary.Role != domain.RoleCustomer {
		return nil, domain.ErrPromotionNotEligible
	}

	if beneficiary.Score < promotion.ExchangeScore {
		return nil, domain.ErrInsufficientScore
	}

	return &pricing.PromotionTerms{
		Percentage: promotion.DiscountType == domain.DiscountTypePercent,
		Discount:   promotion.DiscountValue,
	}, nil
}

func (app *application) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, ok := app.fetchOwnedOrder(w, r)
	if !ok {
		return
	}

	resp := app.orderResponse(order, "")

	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	userId := app.contextGetUserId(r)
	page, pageSize := app.readPagination(r)

	orders, metadata, err := app.orderRepo.ListByUser(r.Context(), userId, domain.Pagination{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.OrderListResponse{
		Orders: make([]api.OrderSummaryResponse, 0, len(orders)),
		Metadata: api.Metadata{
			CurrentPage:  metadata.CurrentPage,
			FirstPage:    metadata.FirstPage,
			LastPage:     metadata.LastPage,
			PageSize:     metadata.PageSize,
			TotalRecords: metadata.TotalRecords,
		},
	}

	for _, order := range orders {
		resp.Orders = append(resp.Orders, api.OrderSummaryResponse{
			OrderCode:  order.PublicCode,
			MovieTitle: order.MovieTitle,
			StartTime:  order.StartTime,
			TotalPrice: order.TotalPrice,
			Status:     string(order.Status),
			SeatCount:  order.SeatCount,
			CreatedAt:  order.CreatedAt,
		})
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// RepayOrderHandler swaps the payment method of a pending order. The old
// transaction reference is replaced, which also invalidates any callback
// the abandoned provider might still deliver.
func (app *application) RepayOrderHandler(w http.ResponseWriter, r *http.Request) {
	var input api.RepayOrderRequest

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

	order, ok := app.fetchOwnedOrder(w, r)
	if !ok {
		return
	}

	if order.Status != domain.OrderStatusPending {
		app.conflictResponse(w, r, domain.ErrAlreadySettled)
		return
	}

	gateway, err := app.gateways.Get(input.PaymentMethod)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	initiated, err := gateway.Initiate(r.Context(), payment.InitiateRequest{
		Amount:    order.TotalPrice,
		OrderCode: order.PublicCode,
		OrderInfo: fmt.Sprintf("Payment for order %s", order.PublicCode),
		ClientIP:  r.RemoteAddr,
	})
	if err != nil {
		app.logger.Error("payment initiation failed", "method", input.PaymentMethod, "error", err)
		app.errorResponse(w, r, http.StatusBadGateway, "The payment provider rejected the request, please try again")
		return
	}

	err = app.orderRepo.Repay(r.Context(), order.ID, input.PaymentMethod, initiated.Reference)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadySettled):
			app.conflictResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	order.Transaction.Code = initiated.Reference
	order.Transaction.Method = input.PaymentMethod

	if initiated.Paid {
		settled, err := app.settleSuccess(r.Context(), initiated.Reference)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
		order.Status = settled.Order.Status
		order.QRToken = settled.Order.QRToken
	}

	resp := app.orderResponse(order, initiated.PayURL)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// UpdateOrderHandler lets staff adjust the concessions and promotion of a
// pending order. Seats are immutable after creation; the price lines are
// recomputed from scratch so the promotion allocation stays consistent.
// The new total re-initiates payment with the provider and replaces the
// transaction reference, so a late callback for the old amount no longer
// matches anything.
func (app *application) UpdateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var input api.UpdateOrderRequest

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

	order, ok := app.fetchOrder(w, r)
	if !ok {
		return
	}

	if order.Status != domain.OrderStatusPending {
		app.conflictResponse(w, r, domain.ErrAlreadySettled)
		return
	}

	showtime, err := app.showtimeRepo.GetByID(r.Context(), order.ShowtimeID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	beneficiary, err := app.userRepo.GetByID(r.Context(), order.Beneficiary())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	seatRequests := make([]api.OrderSeatRequest, 0, len(order.Tickets))
	for _, ticket := range order.Tickets {
		seatRequests = append(seatRequests, api.OrderSeatRequest{
			ScheduleSeatId: ticket.ScheduleSeatID,
			TicketTypeId:   ticket.TicketTypeID,
		})
	}

	seatSelections, err := app.resolveSeatSelections(r, showtime, seatRequests)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	productSelections, err := app.resolveProductSelections(r, input.Products)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	promoTerms, err := app.resolvePromotionTerms(r, input.PromotionId, beneficiary)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientScore):
			app.conflictResponse(w, r, err)
		default:
			app.badRequestResponse(w, r, err)
		}
		return
	}

	allocation, err := pricing.Allocate(seatSelections, productSelections, promoTerms, input.TotalPrice)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	gateway, err := app.gateways.Get(order.Transaction.Method)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	initiated, err := gateway.Initiate(r.Context(), payment.InitiateRequest{
		Amount:    allocation.Total,
		OrderCode: order.PublicCode,
		OrderInfo: fmt.Sprintf("Payment for order %s", order.PublicCode),
		ClientIP:  r.RemoteAddr,
	})
	if err != nil {
		app.logger.Error("payment initiation failed", "method", order.Transaction.Method, "error", err)
		app.errorResponse(w, r, http.StatusBadGateway, "The payment provider rejected the request, please try again")
		return
	}

	order.PromotionID = input.PromotionId
	order.TotalPrice = allocation.Total
	order.Extras = orderExtras(allocation.Products)
	order.Transaction.Code = initiated.Reference

	order.Details = order.Details[:0]
	for _, line := range allocation.Seats {
		order.Details = append(order.Details, domain.OrderDetail{
			ShowtimeID: order.ShowtimeID,
			SeatID:     line.ScheduleSeatID,
			Amount:     line.Amount,
		})
	}

	err = app.orderRepo.Update(r.Context(), order)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadySettled):
			app.conflictResponse(w, r, err)
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if initiated.Paid {
		settled, err := app.settleSuccess(r.Context(), initiated.Reference)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
		order.Status = settled.Order.Status
		order.QRToken = settled.Order.QRToken
	}

	resp := app.orderResponse(order, initiated.PayURL)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, ok := app.fetchOwnedOrder(w, r)
	if !ok {
		return
	}

	settled, err := app.orderRepo.Cancel(r.Context(), order.ID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			app.conflictResponse(w, r, errors.New("only pending orders can be cancelled"))
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.notifySeatEvent(r, notifier.SeatEvent{
		Event:      notifier.EventSeatsReleased,
		ShowtimeID: settled.ShowtimeID,
		SeatIDs:    settled.SeatIDs,
		OrderCode:  settled.Order.PublicCode,
	})

	data := map[string]any{
		"OrderCode":  settled.Order.PublicCode,
		"TotalPrice": settled.Order.TotalPrice,
		"Refunded":   false,
	}

	err = app.mailer.Send(settled.Order.Email, "order_cancellation.tmpl", data)
	if err != nil {
		app.logger.Error("failed to send cancellation email", "orderCode", settled.Order.PublicCode, "error", err)
	}

	order.Status = settled.Order.Status
	resp := app.orderResponse(order, "")

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// RefundOrderHandler reverses a settled order. The local state transition
// is the source of truth; the provider-side refund is triggered afterwards
// and reconciled out of band when the provider cannot do it inline.
func (app *application) RefundOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, ok := app.fetchOrder(w, r)
	if !ok {
		return
	}

	settled, err := app.orderRepo.Refund(r.Context(), order.ID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			app.conflictResponse(w, r, errors.New("only successfully paid orders can be refunded"))
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	gateway, err := app.gateways.Get(order.Transaction.Method)
	if err == nil {
		err = gateway.Refund(r.Context(), order.Transaction.Code, order.TotalPrice)
		if err != nil && !errors.Is(err, payment.ErrUnsupported) {
			app.logger.Error("provider refund failed, manual reconciliation needed",
				"orderCode", order.PublicCode, "method", order.Transaction.Method, "error", err)
		}
	}

	app.notifySeatEvent(r, notifier.SeatEvent{
		Event:      notifier.EventSeatsReleased,
		ShowtimeID: settled.ShowtimeID,
		SeatIDs:    settled.SeatIDs,
		OrderCode:  settled.Order.PublicCode,
	})

	data := map[string]any{
		"OrderCode":  settled.Order.PublicCode,
		"TotalPrice": settled.Order.TotalPrice,
		"Refunded":   true,
	}

	err = app.mailer.Send(settled.Order.Email, "order_cancellation.tmpl", data)
	if err != nil {
		app.logger.Error("failed to send refund email", "orderCode", settled.Order.PublicCode, "error", err)
	}

	order.Status = settled.Order.Status
	resp := app.orderResponse(order, "")

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// fetchOrder loads the order named in the URL without an ownership check,
// for staff-only endpoints.
func (app *application) fetchOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	orderCode := chi.URLParam(r, "orderCode")
	if orderCode == "" {
		app.badRequestResponse(w, r, errors.New("invalid order code"))
		return nil, false
	}

	order, err := app.orderRepo.GetByCode(r.Context(), orderCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return nil, false
	}

	return order, true
}

// fetchOwnedOrder additionally hides orders the requester neither placed
// nor benefits from.
func (app *application) fetchOwnedOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	order, ok := app.fetchOrder(w, r)
	if !ok {
		return nil, false
	}

	userId := app.contextGetUserId(r)
	if order.UserID != userId && order.Beneficiary() != userId {
		app.notFoundResponse(w, r)
		return nil, false
	}

	return order, true
}

func (app *application) orderResponse(order *domain.Order, payUrl string) api.OrderResponse {
	resp := api.OrderResponse{
		OrderCode:     order.PublicCode,
		Status:        string(order.Status),
		PaymentMethod: order.Transaction.Method,
		TotalPrice:    order.TotalPrice,
		PayUrl:        payUrl,
		QrToken:       order.QRToken,
		Seats:         make([]api.OrderSeatResponse, 0, len(order.Details)),
		CreatedAt:     order.CreatedAt,
	}

	for _, detail := range order.Details {
		resp.Seats = append(resp.Seats, api.OrderSeatResponse{
			ScheduleSeatId: detail.SeatID,
			Amount:         detail.Amount,
		})
	}

	for _, extra := range order.Extras {
		resp.Products = append(resp.Products, api.OrderProductResponse{
			ProductId: extra.ProductID,
			Quantity:  extra.Quantity,
			UnitPrice: extra.UnitPrice,
		})
	}

	return resp
}
