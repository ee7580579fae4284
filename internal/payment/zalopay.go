package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ZaloPayConfig struct {
	AppID       string
	Key1        string
	Key2        string
	Endpoint    string
	CallbackURL string
}

// ZaloPayGateway signs create-order requests with key1 over a pipe-joined
// field string and authenticates callbacks with key2 over the raw data
// blob, both HMAC-SHA256.
type ZaloPayGateway struct {
	cfg    ZaloPayConfig
	client *http.Client
	now    func() time.Time
}

func NewZaloPayGateway(cfg ZaloPayConfig) *ZaloPayGateway {
	return &ZaloPayGateway{cfg: cfg, client: newHTTPClient(), now: time.Now}
}

func (g *ZaloPayGateway) Name() string {
	return MethodZaloPay
}

func (g *ZaloPayGateway) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	now := g.now()
	appTransID := fmt.Sprintf("%s_%s", now.Format("060102"), strings.ToUpper(uuid.NewString()[:12]))
	appTime := fmt.Sprintf("%d", now.UnixMilli())
	amount := req.Amount.Round(0).String()
	embedData := fmt.Sprintf(`{"order_code":%q}`, req.OrderCode)

	raw := strings.Join([]string{
		g.cfg.AppID, appTransID, req.OrderCode, amount, appTime, embedData, "[]",
	}, "|")

	form := url.Values{}
	form.Set("app_id", g.cfg.AppID)
	form.Set("app_trans_id", appTransID)
	form.Set("app_user", req.OrderCode)
	form.Set("app_time", appTime)
	form.Set("amount", amount)
	form.Set("item", "[]")
	form.Set("embed_data", embedData)
	form.Set("description", req.OrderInfo)
	form.Set("callback_url", g.cfg.CallbackURL)
	form.Set("mac", g.signKey1(raw))

	var resp struct {
		ReturnCode    int    `json:"return_code"`
		ReturnMessage string `json:"return_message"`
		OrderURL      string `json:"order_url"`
	}

	if err := g.postForm(ctx, g.cfg.Endpoint+"/v2/create", form, &resp); err != nil {
		return nil, fmt.Errorf("zalopay create: %w", err)
	}

	if resp.ReturnCode != 1 {
		return nil, fmt.Errorf("zalopay create rejected: %s", resp.ReturnMessage)
	}

	return &InitiateResult{
		PayURL:    resp.OrderURL,
		Reference: appTransID,
	}, nil
}

func (g *ZaloPayGateway) VerifyCallback(r *http.Request) (*CallbackResult, error) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	var cb struct {
		Data string `json:"data"`
		Mac  string `json:"mac"`
	}
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("zalopay callback body: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(g.cfg.Key2))
	mac.Write([]byte(cb.Data))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(cb.Mac), []byte(expected)) {
		return nil, ErrInvalidSignature
	}

	var data struct {
		AppTransID string `json:"app_trans_id"`
		Amount     int64  `json:"amount"`
	}
	if err := json.Unmarshal([]byte(cb.Data), &data); err != nil {
		return nil, fmt.Errorf("zalopay callback data: %w", err)
	}

	// ZaloPay only calls back on success; failures simply never settle.
	return &CallbackResult{
		Reference: data.AppTransID,
		Amount:    decimal.NewFromInt(data.Amount),
		Succeeded: true,
	}, nil
}

func (g *ZaloPayGateway) QueryStatus(ctx context.Context, reference string) (*StatusResult, error) {
	raw := strings.Join([]string{g.cfg.AppID, reference, g.cfg.Key1}, "|")

	form := url.Values{}
	form.Set("app_id", g.cfg.AppID)
	form.Set("app_trans_id", reference)
	form.Set("mac", g.signKey1(raw))

	var resp struct {
		ReturnCode int   `json:"return_code"`
		Amount     int64 `json:"amount"`
	}

	if err := g.postForm(ctx, g.cfg.Endpoint+"/v2/query", form, &resp); err != nil {
		return nil, fmt.Errorf("zalopay query: %w", err)
	}

	return &StatusResult{
		Paid:   resp.ReturnCode == 1,
		Amount: decimal.NewFromInt(resp.Amount),
	}, nil
}

func (g *ZaloPayGateway) Refund(_ context.Context, _ string, _ decimal.Decimal) error {
	return ErrUnsupported
}

func (g *ZaloPayGateway) signKey1(data string) string {
	mac := hmac.New(sha256.New, []byte(g.cfg.Key1))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *ZaloPayGateway) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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
