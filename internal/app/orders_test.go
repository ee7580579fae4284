package app

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/minhlq-dev/cinebook/api"
	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/minhlq-dev/cinebook/internal/mocks"
	"github.com/minhlq-dev/cinebook/internal/notifier"
	"github.com/minhlq-dev/cinebook/internal/payment"
	"github.com/minhlq-dev/cinebook/internal/seathold"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type OrdersTestSuite struct {
	suite.Suite
	app              *application
	userRepo         *mocks.MockUserRepo
	showtimeRepo     *mocks.MockShowtimeRepo
	scheduleSeatRepo *mocks.MockScheduleSeatRepo
	ticketTypeRepo   *mocks.MockTicketTypeRepo
	productRepo      *mocks.MockProductRepo
	promotionRepo    *mocks.MockPromotionRepo
	orderRepo        *mocks.MockOrderRepo
	leaseStore       *mocks.MockLeaseStore
	cashGateway      *mocks.MockGateway
	cardGateway      *mocks.MockGateway
	sessionManager   *scs.SessionManager
}

func (s *OrdersTestSuite) SetupTest() {
	s.userRepo = new(mocks.MockUserRepo)
	s.showtimeRepo = new(mocks.MockShowtimeRepo)
	s.scheduleSeatRepo = new(mocks.MockScheduleSeatRepo)
	s.ticketTypeRepo = new(mocks.MockTicketTypeRepo)
	s.productRepo = new(mocks.MockProductRepo)
	s.promotionRepo = new(mocks.MockPromotionRepo)
	s.orderRepo = new(mocks.MockOrderRepo)
	s.leaseStore = new(mocks.MockLeaseStore)
	s.cashGateway = &mocks.MockGateway{GatewayName: payment.MethodCash}
	s.cardGateway = &mocks.MockGateway{GatewayName: payment.MethodVNPay}
	s.sessionManager = scs.New()

	s.app = newTestApplication(func(a *application) {
		a.userRepo = s.userRepo
		a.showtimeRepo = s.showtimeRepo
		a.scheduleSeatRepo = s.scheduleSeatRepo
		a.ticketTypeRepo = s.ticketTypeRepo
		a.productRepo = s.productRepo
		a.promotionRepo = s.promotionRepo
		a.orderRepo = s.orderRepo
		a.seats = newTestCoordinator(s.leaseStore)
		a.gateways = payment.NewRegistry(s.cashGateway, s.cardGateway)
		a.sessionManager = s.sessionManager
	})
}

func TestOrdersSuite(t *testing.T) {
	suite.Run(t, new(OrdersTestSuite))
}

func (s *OrdersTestSuite) customer() *domain.User {
	return &domain.User{
		ID:    1,
		Email: "alice@example.com",
		Role:  domain.RoleCustomer,
		Score: 50,
	}
}

func (s *OrdersTestSuite) showtime() *domain.Showtime {
	return &domain.Showtime{
		ID:         7,
		MovieTitle: "Dune: Part Two",
		HallName:   "Hall 1",
		StartTime:  time.Now().Add(2 * time.Hour),
		EndTime:    time.Now().Add(5 * time.Hour),
		BasePrice:  decimal.NewFromInt(100000),
	}
}

func (s *OrdersTestSuite) seats(ids ...int) []domain.ScheduleSeat {
	seats := make([]domain.ScheduleSeat, 0, len(ids))
	for _, id := range ids {
		seats = append(seats, domain.ScheduleSeat{ID: id, ShowtimeID: 7, Status: domain.SeatStatusNotYet})
	}
	return seats
}

func (s *OrdersTestSuite) createRequest(method string, total int64) api.CreateOrderRequest {
	return api.CreateOrderRequest{
		ShowtimeId: 7,
		Seats: []api.OrderSeatRequest{
			{ScheduleSeatId: 5, TicketTypeId: 1},
			{ScheduleSeatId: 6, TicketTypeId: 1},
		},
		PaymentMethod: method,
		TotalPrice:    decimal.NewFromInt(total),
	}
}

// mockCatalog wires the read-side mocks for the default two-seat order.
func (s *OrdersTestSuite) mockCatalog() {
	s.userRepo.On("GetByID", mock.Anything, 1).Return(s.customer(), nil).Once()
	s.showtimeRepo.On("GetByID", mock.Anything, 7).Return(s.showtime(), nil).Once()
	s.scheduleSeatRepo.On("GetByShowtimeAndIDs", mock.Anything, 7, []int{5, 6}).
		Return(s.seats(5, 6), nil).Once()
}

// mockValidLease makes the coordinator accept and consume the caller's hold.
// The holder must be the session token the handler resolves.
func (s *OrdersTestSuite) mockValidLease(holder string) {
	lease := seathold.Lease{ShowtimeID: 7, HolderID: holder, SeatIDs: []int{5, 6}}
	s.leaseStore.On("Get", mock.Anything, 7, holder).Return(&lease, nil).Once()
	s.leaseStore.On("Scan", mock.Anything, 7).Return([]seathold.Lease{lease}, nil).Once()
	s.leaseStore.On("Delete", mock.Anything, 7, holder).Return(nil).Once()
}

func (s *OrdersTestSuite) mockTicketTypes() {
	s.ticketTypeRepo.On("GetByIDs", mock.Anything, []int{1}).
		Return([]domain.TicketType{{ID: 1, Name: "adult", DiscountPercent: decimal.Zero}}, nil).Once()
}

func (s *OrdersTestSuite) TestCreateOrderHandler() {
	tests := []struct {
		name           string
		body           api.CreateOrderRequest
		setupMocks     func(holder string)
		wantStatus     int
		wantErrMessage string
		wantOrder      func(resp api.OrderResponse)
	}{
		{
			name: "should fail when the seat hold has expired",
			body: s.createRequest(payment.MethodVNPay, 200000),
			setupMocks: func(holder string) {
				s.mockCatalog()
				s.leaseStore.On("Get", mock.Anything, 7, holder).
					Return((*seathold.Lease)(nil), seathold.ErrLeaseNotFound).Once()
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: domain.ErrLeaseExpired.Error(),
		},
		{
			name: "should fail when another holder contests a seat",
			body: s.createRequest(payment.MethodVNPay, 200000),
			setupMocks: func(holder string) {
				s.mockCatalog()
				lease := seathold.Lease{ShowtimeID: 7, HolderID: holder, SeatIDs: []int{5, 6}}
				rival := seathold.Lease{ShowtimeID: 7, HolderID: "rival", SeatIDs: []int{6}}
				s.leaseStore.On("Get", mock.Anything, 7, holder).Return(&lease, nil).Once()
				s.leaseStore.On("Scan", mock.Anything, 7).Return([]seathold.Lease{lease, rival}, nil).Once()
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "should fail when the submitted total does not match",
			body: s.createRequest(payment.MethodVNPay, 150000),
			setupMocks: func(holder string) {
				s.mockCatalog()
				s.mockValidLease(holder)
				s.mockTicketTypes()
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "submitted total does not match the computed total",
		},
		{
			name: "should fail when the promotion window has closed",
			body: func() api.CreateOrderRequest {
				req := s.createRequest(payment.MethodVNPay, 200000)
				req.PromotionId = ptr(3)
				return req
			}(),
			setupMocks: func(holder string) {
				s.mockCatalog()
				s.mockValidLease(holder)
				s.mockTicketTypes()
				s.promotionRepo.On("GetByID", mock.Anything, 3).Return(&domain.Promotion{
					ID:            3,
					DiscountType:  domain.DiscountTypeFlat,
					DiscountValue: decimal.NewFromInt(20000),
					StartDate:     time.Now().Add(-48 * time.Hour),
					EndDate:       time.Now().Add(-24 * time.Hour),
					Active:        true,
				}, nil).Once()
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: domain.ErrPromotionNotEligible.Error(),
		},
		{
			name: "should fail when the buyer lacks the promotion's exchange score",
			body: func() api.CreateOrderRequest {
				req := s.createRequest(payment.MethodVNPay, 180000)
				req.PromotionId = ptr(3)
				return req
			}(),
			setupMocks: func(holder string) {
				s.mockCatalog()
				s.mockValidLease(holder)
				s.mockTicketTypes()
				s.promotionRepo.On("GetByID", mock.Anything, 3).Return(&domain.Promotion{
					ID:            3,
					DiscountType:  domain.DiscountTypeFlat,
					DiscountValue: decimal.NewFromInt(20000),
					StartDate:     time.Now().Add(-time.Hour),
					EndDate:       time.Now().Add(time.Hour),
					ExchangeScore: 100,
					Active:        true,
				}, nil).Once()
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: domain.ErrInsufficientScore.Error(),
		},
		{
			name: "should fail when a database seat conflict aborts the write",
			body: s.createRequest(payment.MethodVNPay, 200000),
			setupMocks: func(holder string) {
				s.mockCatalog()
				s.mockValidLease(holder)
				s.mockTicketTypes()
				s.cardGateway.On("Initiate", mock.Anything, mock.Anything).Return(&payment.InitiateResult{
					PayURL:    "https://pay.example/redirect",
					Reference: "VNP-1",
				}, nil).Once()
				s.orderRepo.On("Create", mock.Anything, mock.Anything, mock.Anything, domain.SeatStatusHeld).
					Return(domain.ErrSeatConflict).Once()
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "should create a pending order with a provider redirect",
			body: s.createRequest(payment.MethodVNPay, 200000),
			setupMocks: func(holder string) {
				s.mockCatalog()
				s.mockValidLease(holder)
				s.mockTicketTypes()
				s.cardGateway.On("Initiate", mock.Anything, mock.Anything).Return(&payment.InitiateResult{
					PayURL:    "https://pay.example/redirect",
					Reference: "VNP-1",
				}, nil).Once()
				s.orderRepo.On("Create", mock.Anything, mock.Anything, mock.Anything, domain.SeatStatusHeld).
					Return(nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantOrder: func(resp api.OrderResponse) {
				s.Equal(string(domain.OrderStatusPending), resp.Status)
				s.Equal("https://pay.example/redirect", resp.PayUrl)
				s.Len(resp.Seats, 2)
				s.True(decimal.NewFromInt(200000).Equal(resp.TotalPrice))
			},
		},
		{
			name: "should settle a cash order synchronously",
			body: s.createRequest(payment.MethodCash, 200000),
			setupMocks: func(holder string) {
				s.mockCatalog()
				s.mockValidLease(holder)
				s.mockTicketTypes()
				s.cashGateway.On("Initiate", mock.Anything, mock.Anything).Return(&payment.InitiateResult{
					Reference: "CASH-1",
					Paid:      true,
				}, nil).Once()
				s.orderRepo.On("Create", mock.Anything, mock.Anything, mock.Anything, domain.SeatStatusHeld).
					Return(nil).Once()

				settled := &domain.SettledOrder{
					Order: domain.Order{
						PublicCode: "ORD-TEST",
						ShowtimeID: 7,
						Status:     domain.OrderStatusSuccess,
						QRToken:    ptr("signed-token"),
						Email:      "alice@example.com",
						TotalPrice: decimal.NewFromInt(200000),
					},
					SeatIDs:    []int{5, 6},
					ShowtimeID: 7,
				}
				s.orderRepo.On("GetByTransactionCode", mock.Anything, "CASH-1").Return(&domain.Order{
					PublicCode: "ORD-TEST",
					ShowtimeID: 7,
					Status:     domain.OrderStatusPending,
				}, nil).Once()
				s.showtimeRepo.On("GetByID", mock.Anything, 7).Return(s.showtime(), nil).Once()
				s.orderRepo.On("SettleSuccess", mock.Anything, "CASH-1", mock.Anything).Return(settled, nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantOrder: func(resp api.OrderResponse) {
				s.Equal(string(domain.OrderStatusSuccess), resp.Status)
				s.Require().NotNil(resp.QrToken)
				s.Equal("signed-token", *resp.QrToken)
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			defer s.orderRepo.AssertExpectations(s.T())
			defer s.leaseStore.AssertExpectations(s.T())
			defer s.cashGateway.AssertExpectations(s.T())
			defer s.cardGateway.AssertExpectations(s.T())

			w, r := executeRequest(s.T(), http.MethodPost, "/orders", tt.body)
			r = setupTestSession(s.T(), s.app, r, 1, "")

			if tt.setupMocks != nil {
				tt.setupMocks(s.app.sessionManager.Token(r.Context()))
			}

			s.app.CreateOrderHandler(w, r)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantOrder != nil {
				var resp api.OrderResponse
				err := json.NewDecoder(w.Body).Decode(&resp)
				s.Require().NoError(err)
				tt.wantOrder(resp)
			}

			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)
		})
	}
}

func (s *OrdersTestSuite) TestCreateOrderHandlerForbidsCustomerBookingForOthers() {
	s.userRepo.On("GetByID", mock.Anything, 1).Return(s.customer(), nil).Once()

	body := s.createRequest(payment.MethodVNPay, 200000)
	body.CustomerId = ptr(2)

	w, r := executeRequest(s.T(), http.MethodPost, "/orders", body)
	r = setupTestSession(s.T(), s.app, r, 1, "")

	s.app.CreateOrderHandler(w, r)

	s.Equal(http.StatusForbidden, w.Code)
}

func (s *OrdersTestSuite) TestCreateOrderHandlerAnnouncesReleaseOnExpiredHold() {
	s.mockCatalog()
	s.leaseStore.On("Get", mock.Anything, 7, mock.Anything).
		Return((*seathold.Lease)(nil), seathold.ErrLeaseNotFound).Once()

	w, r := executeRequest(s.T(), http.MethodPost, "/orders", s.createRequest(payment.MethodVNPay, 200000))
	r = setupTestSession(s.T(), s.app, r, 1, "")

	s.app.CreateOrderHandler(w, r)

	s.Equal(http.StatusBadRequest, w.Code)

	events := s.app.notifier.(*notifier.MockNotifier).Events()
	s.Require().Len(events, 1)
	s.Equal(notifier.EventSeatsReleased, events[0].Event)
	s.Equal(7, events[0].ShowtimeID)
	s.ElementsMatch([]int{5, 6}, events[0].SeatIDs)
}

func (s *OrdersTestSuite) TestCreateOrderHandlerRejectsScoreFundedPromotionForStaff() {
	staff := &domain.User{ID: 1, Email: "staff@example.com", Role: domain.RoleStaff, Score: 500}
	s.userRepo.On("GetByID", mock.Anything, 1).Return(staff, nil).Once()
	s.showtimeRepo.On("GetByID", mock.Anything, 7).Return(s.showtime(), nil).Once()
	s.scheduleSeatRepo.On("GetByShowtimeAndIDs", mock.Anything, 7, []int{5, 6}).
		Return(s.seats(5, 6), nil).Once()
	s.mockTicketTypes()
	s.promotionRepo.On("GetByID", mock.Anything, 3).Return(&domain.Promotion{
		ID:            3,
		DiscountType:  domain.DiscountTypeFlat,
		DiscountValue: decimal.NewFromInt(20000),
		StartDate:     time.Now().Add(-time.Hour),
		EndDate:       time.Now().Add(time.Hour),
		ExchangeScore: 10,
		Active:        true,
	}, nil).Once()

	body := s.createRequest(payment.MethodVNPay, 180000)
	body.PromotionId = ptr(3)

	w, r := executeRequest(s.T(), http.MethodPost, "/orders", body)
	r = setupTestSession(s.T(), s.app, r, 1, string(domain.RoleStaff))
	s.mockValidLease(s.app.sessionManager.Token(r.Context()))

	s.app.CreateOrderHandler(w, r)

	s.Equal(http.StatusBadRequest, w.Code)
	checkErrorResponse(s.T(), w, http.StatusBadRequest, domain.ErrPromotionNotEligible.Error())
}

func (s *OrdersTestSuite) TestUpdateOrderHandler() {
	order := &domain.Order{
		ID:         10,
		PublicCode: "ORD-AAA",
		UserID:     1,
		ShowtimeID: 7,
		Status:     domain.OrderStatusPending,
		TotalPrice: decimal.NewFromInt(200000),
		Transaction: domain.Transaction{
			Code:   "VNP-1",
			Method: payment.MethodVNPay,
			Status: domain.OrderStatusPending,
		},
		Tickets: []domain.Ticket{
			{ScheduleSeatID: 5, ShowtimeID: 7, TicketTypeID: 1},
			{ScheduleSeatID: 6, ShowtimeID: 7, TicketTypeID: 1},
		},
	}

	s.orderRepo.On("GetByCode", mock.Anything, "ORD-AAA").Return(order, nil).Once()
	s.showtimeRepo.On("GetByID", mock.Anything, 7).Return(s.showtime(), nil).Once()
	s.userRepo.On("GetByID", mock.Anything, 1).Return(s.customer(), nil).Once()
	s.mockTicketTypes()
	s.productRepo.On("GetByIDs", mock.Anything, []int{2}).Return([]domain.Product{
		{ID: 2, Name: "popcorn", UnitPrice: decimal.NewFromInt(50000), Active: true},
	}, nil).Once()

	// The new total goes back to the provider and the stored transaction
	// reference is replaced, so the stale reference can never settle.
	s.cardGateway.On("Initiate", mock.Anything, mock.MatchedBy(func(req payment.InitiateRequest) bool {
		return req.Amount.Equal(decimal.NewFromInt(250000))
	})).Return(&payment.InitiateResult{
		PayURL:    "https://pay.example/redirect-2",
		Reference: "VNP-2",
	}, nil).Once()
	s.orderRepo.On("Update", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.Transaction.Code == "VNP-2"
	})).Return(nil).Once()

	body := api.UpdateOrderRequest{
		Products:   []api.OrderProductRequest{{ProductId: 2, Quantity: 1}},
		TotalPrice: decimal.NewFromInt(250000),
	}

	w, r := executeRequest(s.T(), http.MethodPatch, "/orders/ORD-AAA", body)
	r = withURLParams(r, map[string]string{"orderCode": "ORD-AAA"})
	r = setupTestSession(s.T(), s.app, r, 2, string(domain.RoleStaff))

	s.app.UpdateOrderHandler(w, r)

	s.Equal(http.StatusOK, w.Code)

	var resp api.OrderResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	s.Require().NoError(err)
	s.Equal(string(domain.OrderStatusPending), resp.Status)
	s.Equal("https://pay.example/redirect-2", resp.PayUrl)
	s.True(decimal.NewFromInt(250000).Equal(resp.TotalPrice))

	s.cardGateway.AssertExpectations(s.T())
	s.orderRepo.AssertExpectations(s.T())
}

func (s *OrdersTestSuite) TestGetOrderHandler() {
	order := &domain.Order{
		ID:         10,
		PublicCode: "ORD-AAA",
		UserID:     1,
		ShowtimeID: 7,
		Status:     domain.OrderStatusPending,
		TotalPrice: decimal.NewFromInt(200000),
		Transaction: domain.Transaction{
			Code:   "VNP-1",
			Method: payment.MethodVNPay,
			Status: domain.OrderStatusPending,
		},
	}

	s.Run("should hide another user's order", func() {
		s.orderRepo.On("GetByCode", mock.Anything, "ORD-AAA").Return(order, nil).Once()

		w, r := executeRequest(s.T(), http.MethodGet, "/orders/ORD-AAA", nil)
		r = withURLParams(r, map[string]string{"orderCode": "ORD-AAA"})
		r = setupTestSession(s.T(), s.app, r, 99, "")

		s.app.GetOrderHandler(w, r)

		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("should return the owner's order", func() {
		s.orderRepo.On("GetByCode", mock.Anything, "ORD-AAA").Return(order, nil).Once()

		w, r := executeRequest(s.T(), http.MethodGet, "/orders/ORD-AAA", nil)
		r = withURLParams(r, map[string]string{"orderCode": "ORD-AAA"})
		r = setupTestSession(s.T(), s.app, r, 1, "")

		s.app.GetOrderHandler(w, r)

		s.Equal(http.StatusOK, w.Code)

		var resp api.OrderResponse
		err := json.NewDecoder(w.Body).Decode(&resp)
		s.Require().NoError(err)
		s.Equal("ORD-AAA", resp.OrderCode)
		s.Equal(payment.MethodVNPay, resp.PaymentMethod)
	})
}

func (s *OrdersTestSuite) TestRepayOrderHandler() {
	pendingOrder := func() *domain.Order {
		return &domain.Order{
			ID:         10,
			PublicCode: "ORD-AAA",
			UserID:     1,
			ShowtimeID: 7,
			Status:     domain.OrderStatusPending,
			TotalPrice: decimal.NewFromInt(200000),
			Transaction: domain.Transaction{
				Code:   "VNP-1",
				Method: payment.MethodVNPay,
				Status: domain.OrderStatusPending,
			},
		}
	}

	s.Run("should reject repay on a settled order", func() {
		order := pendingOrder()
		order.Status = domain.OrderStatusSuccess
		s.orderRepo.On("GetByCode", mock.Anything, "ORD-AAA").Return(order, nil).Once()

		w, r := executeRequest(s.T(), http.MethodPost, "/orders/ORD-AAA/repay",
			api.RepayOrderRequest{PaymentMethod: payment.MethodCash})
		r = withURLParams(r, map[string]string{"orderCode": "ORD-AAA"})
		r = setupTestSession(s.T(), s.app, r, 1, "")

		s.app.RepayOrderHandler(w, r)

		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("should swap the payment method and settle cash immediately", func() {
		s.orderRepo.On("GetByCode", mock.Anything, "ORD-AAA").Return(pendingOrder(), nil).Once()
		s.cashGateway.On("Initiate", mock.Anything, mock.Anything).Return(&payment.InitiateResult{
			Reference: "CASH-2",
			Paid:      true,
		}, nil).Once()
		s.orderRepo.On("Repay", mock.Anything, int64(10), payment.MethodCash, "CASH-2").Return(nil).Once()

		s.orderRepo.On("GetByTransactionCode", mock.Anything, "CASH-2").Return(pendingOrder(), nil).Once()
		s.showtimeRepo.On("GetByID", mock.Anything, 7).Return(s.showtime(), nil).Once()
		s.orderRepo.On("SettleSuccess", mock.Anything, "CASH-2", mock.Anything).Return(&domain.SettledOrder{
			Order: domain.Order{
				PublicCode: "ORD-AAA",
				Status:     domain.OrderStatusSuccess,
				QRToken:    ptr("signed-token"),
				TotalPrice: decimal.NewFromInt(200000),
			},
			SeatIDs:    []int{5, 6},
			ShowtimeID: 7,
		}, nil).Once()

		w, r := executeRequest(s.T(), http.MethodPost, "/orders/ORD-AAA/repay",
			api.RepayOrderRequest{PaymentMethod: payment.MethodCash})
		r = withURLParams(r, map[string]string{"orderCode": "ORD-AAA"})
		r = setupTestSession(s.T(), s.app, r, 1, "")

		s.app.RepayOrderHandler(w, r)

		s.Equal(http.StatusOK, w.Code)

		var resp api.OrderResponse
		err := json.NewDecoder(w.Body).Decode(&resp)
		s.Require().NoError(err)
		s.Equal(string(domain.OrderStatusSuccess), resp.Status)
		s.Equal(payment.MethodCash, resp.PaymentMethod)

		s.orderRepo.AssertExpectations(s.T())
	})
}

func (s *OrdersTestSuite) TestCancelOrderHandler() {
	order := &domain.Order{
		ID:         10,
		PublicCode: "ORD-AAA",
		UserID:     1,
		ShowtimeID: 7,
		Status:     domain.OrderStatusPending,
	}

	s.Run("should reject cancelling a settled order", func() {
		s.orderRepo.On("GetByCode", mock.Anything, "ORD-AAA").Return(order, nil).Once()
		s.orderRepo.On("Cancel", mock.Anything, int64(10)).
			Return((*domain.SettledOrder)(nil), domain.ErrInvalidTransition).Once()

		w, r := executeRequest(s.T(), http.MethodPost, "/orders/ORD-AAA/cancel", nil)
		r = withURLParams(r, map[string]string{"orderCode": "ORD-AAA"})
		r = setupTestSession(s.T(), s.app, r, 1, "")

		s.app.CancelOrderHandler(w, r)

		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("should cancel a pending order and release its seats", func() {
		s.orderRepo.On("GetByCode", mock.Anything, "ORD-AAA").Return(order, nil).Once()
		s.orderRepo.On("Cancel", mock.Anything, int64(10)).Return(&domain.SettledOrder{
			Order: domain.Order{
				PublicCode: "ORD-AAA",
				Status:     domain.OrderStatusFailed,
				Email:      "alice@example.com",
			},
			SeatIDs:    []int{5, 6},
			ShowtimeID: 7,
		}, nil).Once()

		w, r := executeRequest(s.T(), http.MethodPost, "/orders/ORD-AAA/cancel", nil)
		r = withURLParams(r, map[string]string{"orderCode": "ORD-AAA"})
		r = setupTestSession(s.T(), s.app, r, 1, "")

		s.app.CancelOrderHandler(w, r)

		s.Equal(http.StatusOK, w.Code)

		var resp api.OrderResponse
		err := json.NewDecoder(w.Body).Decode(&resp)
		s.Require().NoError(err)
		s.Equal(string(domain.OrderStatusFailed), resp.Status)
	})
}

func (s *OrdersTestSuite) TestRefundOrderHandler() {
	order := &domain.Order{
		ID:         10,
		PublicCode: "ORD-AAA",
		UserID:     1,
		ShowtimeID: 7,
		Status:     domain.OrderStatusSuccess,
		TotalPrice: decimal.NewFromInt(200000),
		Transaction: domain.Transaction{
			Code:   "VNP-1",
			Method: payment.MethodVNPay,
			Status: domain.OrderStatusSuccess,
		},
	}

	s.orderRepo.On("GetByCode", mock.Anything, "ORD-AAA").Return(order, nil).Once()
	s.orderRepo.On("Refund", mock.Anything, int64(10)).Return(&domain.SettledOrder{
		Order: domain.Order{
			PublicCode: "ORD-AAA",
			Status:     domain.OrderStatusRefund,
			Email:      "alice@example.com",
			TotalPrice: decimal.NewFromInt(200000),
		},
		SeatIDs:    []int{5, 6},
		ShowtimeID: 7,
	}, nil).Once()
	s.cardGateway.On("Refund", mock.Anything, "VNP-1", mock.Anything).Return(nil).Once()

	w, r := executeRequest(s.T(), http.MethodPost, "/orders/ORD-AAA/refund", nil)
	r = withURLParams(r, map[string]string{"orderCode": "ORD-AAA"})
	r = setupTestSession(s.T(), s.app, r, 2, string(domain.RoleStaff))

	s.app.RefundOrderHandler(w, r)

	s.Equal(http.StatusOK, w.Code)

	var resp api.OrderResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	s.Require().NoError(err)
	s.Equal(string(domain.OrderStatusRefund), resp.Status)

	s.orderRepo.AssertExpectations(s.T())
	s.cardGateway.AssertExpectations(s.T())
}
