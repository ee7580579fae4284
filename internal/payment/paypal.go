package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

type PayPalConfig struct {
	ClientID  string
	Secret    string
	BaseURL   string
	ReturnURL string
	CancelURL string
	Currency  string
}

// PayPalGateway follows the REST orders flow: create an order, redirect the
// payer to the approval link, then capture server-to-server when the return
// callback arrives. Authenticity comes from the capture call itself rather
// than a signed query string.
type PayPalGateway struct {
	cfg    PayPalConfig
	client *http.Client
}

func NewPayPalGateway(cfg PayPalConfig) *PayPalGateway {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &PayPalGateway{cfg: cfg, client: newHTTPClient()}
}

func (g *PayPalGateway) Name() string {
	return MethodPayPal
}

func (g *PayPalGateway) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": req.OrderCode,
			"description":  req.OrderInfo,
			"amount": map[string]string{
				"currency_code": g.cfg.Currency,
				"value":         req.Amount.StringFixed(2),
			},
		}},
		"application_context": map[string]string{
			"return_url": g.cfg.ReturnURL,
			"cancel_url": g.cfg.CancelURL,
		},
	}

	var resp struct {
		ID    string `json:"id"`
		Links []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}

	if err := g.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", token, body, &resp); err != nil {
		return nil, fmt.Errorf("paypal create order: %w", err)
	}

	approveURL := ""
	for _, link := range resp.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}
	if approveURL == "" {
		return nil, fmt.Errorf("paypal create order: no approval link in response")
	}

	return &InitiateResult{
		PayURL:    approveURL,
		Reference: resp.ID,
	}, nil
}

func (g *PayPalGateway) VerifyCallback(r *http.Request) (*CallbackResult, error) {
	// The return redirect carries the order id as "token"; the capture call
	// against the API is the authenticity check.
	orderID := r.URL.Query().Get("token")
	if orderID == "" {
		return nil, ErrInvalidSignature
	}

	token, err := g.accessToken(r.Context())
	if err != nil {
		return nil, err
	}

	var resp struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					Status string `json:"status"`
					Amount struct {
						Value string `json:"value"`
					} `json:"amount"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}

	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", orderID)
	if err := g.doJSON(r.Context(), http.MethodPost, path, token, map[string]any{}, &resp); err != nil {
		return nil, fmt.Errorf("paypal capture: %w", err)
	}

	amount := decimal.Zero
	for _, unit := range resp.PurchaseUnits {
		for _, capture := range unit.Payments.Captures {
			value, err := decimal.NewFromString(capture.Amount.Value)
			if err != nil {
				return nil, fmt.Errorf("paypal capture amount: %w", err)
			}
			amount = amount.Add(value)
		}
	}

	return &CallbackResult{
		Reference: resp.ID,
		Amount:    amount,
		Succeeded: resp.Status == "COMPLETED",
	}, nil
}

func (g *PayPalGateway) QueryStatus(ctx context.Context, reference string) (*StatusResult, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Amount struct {
				Value string `json:"value"`
			} `json:"amount"`
		} `json:"purchase_units"`
	}

	path := fmt.Sprintf("/v2/checkout/orders/%s", reference)
	if err := g.doJSON(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, fmt.Errorf("paypal get order: %w", err)
	}

	amount := decimal.Zero
	for _, unit := range resp.PurchaseUnits {
		value, err := decimal.NewFromString(unit.Amount.Value)
		if err != nil {
			return nil, fmt.Errorf("paypal order amount: %w", err)
		}
		amount = amount.Add(value)
	}

	return &StatusResult{
		Paid:   resp.Status == "COMPLETED",
		Amount: amount,
	}, nil
}

func (g *PayPalGateway) Refund(ctx context.Context, reference string, amount decimal.Decimal) error {
	token, err := g.accessToken(ctx)
	if err != nil {
		return err
	}

	var order struct {
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID string `json:"id"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}

	path := fmt.Sprintf("/v2/checkout/orders/%s", reference)
	if err := g.doJSON(ctx, http.MethodGet, path, token, nil, &order); err != nil {
		return fmt.Errorf("paypal get order for refund: %w", err)
	}

	for _, unit := range order.PurchaseUnits {
		for _, capture := range unit.Payments.Captures {
			body := map[string]any{
				"amount": map[string]string{
					"currency_code": g.cfg.Currency,
					"value":         amount.StringFixed(2),
				},
			}

			refundPath := fmt.Sprintf("/v2/payments/captures/%s/refund", capture.ID)
			if err := g.doJSON(ctx, http.MethodPost, refundPath, token, body, &struct{}{}); err != nil {
				return fmt.Errorf("paypal refund capture %s: %w", capture.ID, err)
			}
		}
	}

	return nil
}

func (g *PayPalGateway) accessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, g.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(g.cfg.ClientID, g.cfg.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal token: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("paypal token: %w", err)
	}

	return body.AccessToken, nil
}

func (g *PayPalGateway) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	var reader *strings.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(payload))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
