package app

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/minhlq-dev/cinebook/api"
	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/minhlq-dev/cinebook/internal/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type CheckinTestSuite struct {
	suite.Suite
	app       *application
	orderRepo *mocks.MockOrderRepo
}

func (s *CheckinTestSuite) SetupTest() {
	s.orderRepo = new(mocks.MockOrderRepo)

	s.app = newTestApplication(func(a *application) {
		a.orderRepo = s.orderRepo
	})
}

func TestCheckinSuite(t *testing.T) {
	suite.Run(t, new(CheckinTestSuite))
}

func (s *CheckinTestSuite) signToken(orderCode string) string {
	token, err := s.app.tokens.Sign(orderCode, time.Now().Add(3*time.Hour))
	s.Require().NoError(err)
	return token
}

func (s *CheckinTestSuite) paidOrder(qrToken string) *domain.Order {
	return &domain.Order{
		ID:         10,
		PublicCode: "ORD-AAA",
		Status:     domain.OrderStatusSuccess,
		QRToken:    &qrToken,
	}
}

func (s *CheckinTestSuite) TestCheckinHandler() {
	tests := []struct {
		name           string
		token          func() string
		setupMocks     func(token string)
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:           "should reject a malformed token",
			token:          func() string { return "not-a-token" },
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "admission token is invalid or expired",
		},
		{
			name:  "should reject a token the order does not carry",
			token: func() string { return s.signToken("ORD-AAA") },
			setupMocks: func(token string) {
				s.orderRepo.On("GetByCode", mock.Anything, "ORD-AAA").
					Return(s.paidOrder("a-different-token"), nil).Once()
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "admission token does not match the order",
		},
		{
			name:  "should reject a refunded order",
			token: func() string { return s.signToken("ORD-AAA") },
			setupMocks: func(token string) {
				order := s.paidOrder(token)
				order.Status = domain.OrderStatusRefund
				s.orderRepo.On("GetByCode", mock.Anything, "ORD-AAA").Return(order, nil).Once()
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: "order is not in a paid state",
		},
		{
			name:  "should reject tickets that were already used",
			token: func() string { return s.signToken("ORD-AAA") },
			setupMocks: func(token string) {
				s.orderRepo.On("GetByCode", mock.Anything, "ORD-AAA").
					Return(s.paidOrder(token), nil).Once()
				s.orderRepo.On("MarkTicketsUsed", mock.Anything, int64(10)).Return(0, nil).Once()
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: "tickets have already been used",
		},
		{
			name:  "should admit a paid order once",
			token: func() string { return s.signToken("ORD-AAA") },
			setupMocks: func(token string) {
				s.orderRepo.On("GetByCode", mock.Anything, "ORD-AAA").
					Return(s.paidOrder(token), nil).Once()
				s.orderRepo.On("MarkTicketsUsed", mock.Anything, int64(10)).Return(2, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			defer s.orderRepo.AssertExpectations(s.T())

			token := tt.token()
			if tt.setupMocks != nil {
				tt.setupMocks(token)
			}

			w, r := executeRequest(s.T(), http.MethodPost, "/checkin", api.CheckinRequest{Token: token})
			r = setupTestSession(s.T(), s.app, r, 2, string(domain.RoleStaff))

			s.app.CheckinHandler(w, r)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				var resp api.CheckinResponse
				err := json.NewDecoder(w.Body).Decode(&resp)
				s.Require().NoError(err)
				s.Equal("ORD-AAA", resp.OrderCode)
				s.Equal(2, resp.TicketsUsed)
			}

			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)
		})
	}
}
