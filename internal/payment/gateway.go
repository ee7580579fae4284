// Package payment abstracts the six settlement providers behind a single
// capability set. Callback verification never trusts provider fields before
// the signature check has passed, and every adapter is safe to call twice
// for the same reference: settlement idempotency itself is enforced by the
// caller through the transaction-status guard.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MethodCash    = "cash"
	MethodVNPay   = "vnpay"
	MethodMoMo    = "momo"
	MethodZaloPay = "zalopay"
	MethodPayPal  = "paypal"
	MethodStripe  = "stripe"
)

var (
	ErrInvalidSignature = errors.New("callback signature mismatch")
	ErrUnsupported      = errors.New("operation not supported by this provider")
	ErrUnknownMethod    = errors.New("unknown payment method")
	ErrAmountMismatch   = errors.New("callback amount does not match the order total")
	ErrIgnoredEvent     = errors.New("callback event type not consumed")
)

type InitiateRequest struct {
	Amount    decimal.Decimal
	OrderCode string
	OrderInfo string
	ClientIP  string
}

type InitiateResult struct {
	// PayURL is where the client is redirected to complete payment; empty
	// for providers that settle synchronously.
	PayURL string
	// Reference is the gateway-assigned code that becomes the transaction
	// code and the settlement correlation key.
	Reference string
	// Paid reports synchronous settlement (cash).
	Paid bool
}

type CallbackResult struct {
	Reference string
	Amount    decimal.Decimal
	Succeeded bool
}

type StatusResult struct {
	Paid   bool
	Amount decimal.Decimal
}

type Gateway interface {
	Name() string
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	// VerifyCallback authenticates a provider callback request. It returns
	// ErrInvalidSignature before reading any payment outcome if the request
	// cannot be proven to originate from the provider.
	VerifyCallback(r *http.Request) (*CallbackResult, error)
	// QueryStatus asks the provider for the payment state out of band, for
	// reconciliation.
	QueryStatus(ctx context.Context, reference string) (*StatusResult, error)
	// Refund triggers a provider-side refund where the provider supports
	// one; others return ErrUnsupported and the refund completes locally.
	Refund(ctx context.Context, reference string, amount decimal.Decimal) error
}

type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, gw := range gateways {
		r.gateways[gw.Name()] = gw
	}
	return r
}

func (r *Registry) Get(method string) (Gateway, error) {
	gw, ok := r.gateways[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return gw, nil
}

func (r *Registry) Methods() []string {
	methods := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
