package payment

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashGateway settles at the counter: Initiate fabricates a reference and
// reports the order as already paid, so the caller runs the settle-success
// path synchronously. There is no callback and nothing to query.
type CashGateway struct{}

func NewCashGateway() *CashGateway {
	return &CashGateway{}
}

func (g *CashGateway) Name() string {
	return MethodCash
}

func (g *CashGateway) Initiate(_ context.Context, _ InitiateRequest) (*InitiateResult, error) {
	reference := fmt.Sprintf("CASH-%s", strings.ToUpper(uuid.NewString()[:8]))

	return &InitiateResult{
		Reference: reference,
		Paid:      true,
	}, nil
}

func (g *CashGateway) VerifyCallback(_ *http.Request) (*CallbackResult, error) {
	return nil, ErrUnsupported
}

func (g *CashGateway) QueryStatus(_ context.Context, _ string) (*StatusResult, error) {
	return nil, ErrUnsupported
}

func (g *CashGateway) Refund(_ context.Context, _ string, _ decimal.Decimal) error {
	// Handed back at the counter; nothing provider-side to do.
	return nil
}
