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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MoMoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RedirectURL string
	IPNURL      string
}

// MoMoGateway talks to the MoMo AIO API. Requests and IPN callbacks are
// signed with HMAC-SHA256 over an ampersand-joined key=value string whose
// field order is fixed by the provider.
type MoMoGateway struct {
	cfg    MoMoConfig
	client *http.Client
}

func NewMoMoGateway(cfg MoMoConfig) *MoMoGateway {
	return &MoMoGateway{cfg: cfg, client: newHTTPClient()}
}

func (g *MoMoGateway) Name() string {
	return MethodMoMo
}

type momoIPN struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

func (g *MoMoGateway) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	requestID := uuid.NewString()
	orderID := fmt.Sprintf("MOMO-%s", requestID)
	amount := req.Amount.Round(0).String()

	raw := fmt.Sprintf(
		"accessKey=%s&amount=%s&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		g.cfg.AccessKey, amount, "", g.cfg.IPNURL, orderID, req.OrderInfo,
		g.cfg.PartnerCode, g.cfg.RedirectURL, requestID, "captureWallet",
	)

	body := map[string]any{
		"partnerCode": g.cfg.PartnerCode,
		"requestId":   requestID,
		"amount":      amount,
		"orderId":     orderID,
		"orderInfo":   req.OrderInfo,
		"redirectUrl": g.cfg.RedirectURL,
		"ipnUrl":      g.cfg.IPNURL,
		"requestType": "captureWallet",
		"extraData":   "",
		"lang":        "vi",
		"signature":   g.sign(raw),
	}

	var resp struct {
		PayURL     string `json:"payUrl"`
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
	}

	if err := postJSON(ctx, g.client, g.cfg.Endpoint+"/v2/gateway/api/create", body, &resp); err != nil {
		return nil, fmt.Errorf("momo create: %w", err)
	}

	if resp.ResultCode != 0 {
		return nil, fmt.Errorf("momo create rejected: %s", resp.Message)
	}

	return &InitiateResult{
		PayURL:    resp.PayURL,
		Reference: orderID,
	}, nil
}

func (g *MoMoGateway) VerifyCallback(r *http.Request) (*CallbackResult, error) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	var ipn momoIPN
	if err := json.Unmarshal(payload, &ipn); err != nil {
		return nil, fmt.Errorf("momo ipn body: %w", err)
	}

	raw := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		g.cfg.AccessKey, ipn.Amount, ipn.ExtraData, ipn.Message, ipn.OrderID,
		ipn.OrderInfo, ipn.OrderType, ipn.PartnerCode, ipn.PayType,
		ipn.RequestID, ipn.ResponseTime, ipn.ResultCode, ipn.TransID,
	)

	if !hmac.Equal([]byte(ipn.Signature), []byte(g.sign(raw))) {
		return nil, ErrInvalidSignature
	}

	return &CallbackResult{
		Reference: ipn.OrderID,
		Amount:    decimal.NewFromInt(ipn.Amount),
		Succeeded: ipn.ResultCode == 0,
	}, nil
}

func (g *MoMoGateway) QueryStatus(ctx context.Context, reference string) (*StatusResult, error) {
	requestID := uuid.NewString()

	raw := fmt.Sprintf(
		"accessKey=%s&orderId=%s&partnerCode=%s&requestId=%s",
		g.cfg.AccessKey, reference, g.cfg.PartnerCode, requestID,
	)

	body := map[string]any{
		"partnerCode": g.cfg.PartnerCode,
		"requestId":   requestID,
		"orderId":     reference,
		"lang":        "vi",
		"signature":   g.sign(raw),
	}

	var resp struct {
		ResultCode int   `json:"resultCode"`
		Amount     int64 `json:"amount"`
	}

	if err := postJSON(ctx, g.client, g.cfg.Endpoint+"/v2/gateway/api/query", body, &resp); err != nil {
		return nil, fmt.Errorf("momo query: %w", err)
	}

	return &StatusResult{
		Paid:   resp.ResultCode == 0,
		Amount: decimal.NewFromInt(resp.Amount),
	}, nil
}

func (g *MoMoGateway) Refund(_ context.Context, _ string, _ decimal.Decimal) error {
	return ErrUnsupported
}

func (g *MoMoGateway) sign(data string) string {
	mac := hmac.New(sha256.New, []byte(g.cfg.SecretKey))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
