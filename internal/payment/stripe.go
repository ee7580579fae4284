package payment

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/webhook"
)

type StripeConfig struct {
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Currency      string
}

// StripeGateway wraps Checkout Sessions. The session id is the transaction
// reference; webhook authenticity is delegated to Stripe's signed-event
// verification.
type StripeGateway struct {
	cfg StripeConfig
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	if cfg.Currency == "" {
		cfg.Currency = string(stripe.CurrencyVND)
	}
	return &StripeGateway{cfg: cfg}
}

func (g *StripeGateway) Name() string {
	return MethodStripe
}

func (g *StripeGateway) Initiate(_ context.Context, req InitiateRequest) (*InitiateResult, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.cfg.SuccessURL),
		CancelURL:  stripe.String(g.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.cfg.Currency),
				UnitAmount: stripe.Int64(g.unitAmount(req.Amount)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(fmt.Sprintf("Order %s", req.OrderCode)),
					Description: stripe.String(req.OrderInfo),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		ClientReferenceID: stripe.String(req.OrderCode),
		Metadata: map[string]string{
			"order_code": req.OrderCode,
		},
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}

	return &InitiateResult{
		PayURL:    sess.URL,
		Reference: sess.ID,
	}, nil
}

func (g *StripeGateway) VerifyCallback(r *http.Request) (*CallbackResult, error) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), g.cfg.WebhookSecret)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		sess, err := parseSessionEvent(event)
		if err != nil {
			return nil, err
		}
		return &CallbackResult{
			Reference: sess.ID,
			Amount:    g.fromUnitAmount(sess.AmountTotal),
			Succeeded: sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		}, nil

	case "checkout.session.expired", "checkout.session.async_payment_failed":
		sess, err := parseSessionEvent(event)
		if err != nil {
			return nil, err
		}
		return &CallbackResult{
			Reference: sess.ID,
			Amount:    g.fromUnitAmount(sess.AmountTotal),
			Succeeded: false,
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrIgnoredEvent, event.Type)
}

func parseSessionEvent(event stripe.Event) (*stripe.CheckoutSession, error) {
	var sess stripe.CheckoutSession
	if err := sess.UnmarshalJSON(event.Data.Raw); err != nil {
		return nil, fmt.Errorf("stripe event payload: %w", err)
	}
	return &sess, nil
}

func (g *StripeGateway) QueryStatus(_ context.Context, reference string) (*StatusResult, error) {
	sess, err := session.Get(reference, nil)
	if err != nil {
		return nil, fmt.Errorf("stripe session get: %w", err)
	}

	return &StatusResult{
		Paid:   sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Amount: g.fromUnitAmount(sess.AmountTotal),
	}, nil
}

func (g *StripeGateway) Refund(_ context.Context, reference string, amount decimal.Decimal) error {
	sess, err := session.Get(reference, nil)
	if err != nil {
		return fmt.Errorf("stripe session get: %w", err)
	}

	if sess.PaymentIntent == nil {
		return fmt.Errorf("stripe session %s has no payment intent", reference)
	}

	_, err = refund.New(&stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
		Amount:        stripe.Int64(g.unitAmount(amount)),
	})
	if err != nil {
		return fmt.Errorf("stripe refund: %w", err)
	}

	return nil
}

// unitAmount converts to Stripe's smallest-unit integer. VND is a
// zero-decimal currency; everything else is charged in hundredths.
func (g *StripeGateway) unitAmount(amount decimal.Decimal) int64 {
	if g.zeroDecimal() {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (g *StripeGateway) fromUnitAmount(v int64) decimal.Decimal {
	if g.zeroDecimal() {
		return decimal.NewFromInt(v)
	}
	return decimal.NewFromInt(v).Div(decimal.NewFromInt(100))
}

func (g *StripeGateway) zeroDecimal() bool {
	return g.cfg.Currency == string(stripe.CurrencyVND)
}
