package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	vnpVersion    = "2.1.0"
	vnpDateLayout = "20060102150405"
)

type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	QueryURL   string
	ReturnURL  string
}

// VNPayGateway signs redirect URLs and verifies callbacks with HMAC-SHA512
// over the sorted, URL-encoded parameter string. Amounts travel multiplied
// by 100 on the wire.
type VNPayGateway struct {
	cfg    VNPayConfig
	client *http.Client
	now    func() time.Time
}

func NewVNPayGateway(cfg VNPayConfig) *VNPayGateway {
	return &VNPayGateway{
		cfg:    cfg,
		client: newHTTPClient(),
		now:    time.Now,
	}
}

func (g *VNPayGateway) Name() string {
	return MethodVNPay
}

func (g *VNPayGateway) Initiate(_ context.Context, req InitiateRequest) (*InitiateResult, error) {
	reference := fmt.Sprintf("VNP%s%s", g.now().Format(vnpDateLayout), strings.ToUpper(uuid.NewString()[:6]))

	params := url.Values{}
	params.Set("vnp_Version", vnpVersion)
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", g.cfg.TmnCode)
	params.Set("vnp_Amount", wireAmount(req.Amount))
	params.Set("vnp_CreateDate", g.now().Format(vnpDateLayout))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_IpAddr", req.ClientIP)
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_OrderInfo", req.OrderInfo)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_ReturnUrl", g.cfg.ReturnURL)
	params.Set("vnp_TxnRef", reference)
	params.Set("vnp_ExpireDate", g.now().Add(15*time.Minute).Format(vnpDateLayout))

	query := params.Encode()
	signed := query + "&vnp_SecureHash=" + g.sign(query)

	return &InitiateResult{
		PayURL:    g.cfg.BaseURL + "?" + signed,
		Reference: reference,
	}, nil
}

func (g *VNPayGateway) VerifyCallback(r *http.Request) (*CallbackResult, error) {
	query := r.URL.Query()

	secureHash := query.Get("vnp_SecureHash")
	if secureHash == "" {
		return nil, ErrInvalidSignature
	}
	query.Del("vnp_SecureHash")
	query.Del("vnp_SecureHashType")

	expected := g.sign(query.Encode())
	if !hmac.Equal([]byte(strings.ToLower(secureHash)), []byte(expected)) {
		return nil, ErrInvalidSignature
	}

	amount, err := parseWireAmount(query.Get("vnp_Amount"))
	if err != nil {
		return nil, fmt.Errorf("vnpay callback amount: %w", err)
	}

	return &CallbackResult{
		Reference: query.Get("vnp_TxnRef"),
		Amount:    amount,
		Succeeded: query.Get("vnp_ResponseCode") == "00",
	}, nil
}

func (g *VNPayGateway) QueryStatus(ctx context.Context, reference string) (*StatusResult, error) {
	requestID := uuid.NewString()
	createDate := g.now().Format(vnpDateLayout)

	// querydr signs a pipe-joined field string rather than the sorted query.
	raw := strings.Join([]string{
		requestID, vnpVersion, "querydr", g.cfg.TmnCode,
		reference, createDate,
	}, "|")

	body := map[string]string{
		"vnp_RequestId":  requestID,
		"vnp_Version":    vnpVersion,
		"vnp_Command":    "querydr",
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_TxnRef":     reference,
		"vnp_CreateDate": createDate,
		"vnp_SecureHash": g.sign(raw),
	}

	var resp struct {
		ResponseCode      string `json:"vnp_ResponseCode"`
		TransactionStatus string `json:"vnp_TransactionStatus"`
		Amount            string `json:"vnp_Amount"`
	}

	if err := postJSON(ctx, g.client, g.cfg.QueryURL, body, &resp); err != nil {
		return nil, fmt.Errorf("vnpay querydr: %w", err)
	}

	amount := decimal.Zero
	if resp.Amount != "" {
		parsed, err := parseWireAmount(resp.Amount)
		if err != nil {
			return nil, fmt.Errorf("vnpay querydr amount: %w", err)
		}
		amount = parsed
	}

	return &StatusResult{
		Paid:   resp.ResponseCode == "00" && resp.TransactionStatus == "00",
		Amount: amount,
	}, nil
}

func (g *VNPayGateway) Refund(_ context.Context, _ string, _ decimal.Decimal) error {
	// Refunds are reconciled with the merchant portal out of band.
	return ErrUnsupported
}

func (g *VNPayGateway) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(g.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// wireAmount renders the amount multiplied by 100, the VNPay convention.
func wireAmount(amount decimal.Decimal) string {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).String()
}

func parseWireAmount(raw string) (decimal.Decimal, error) {
	cents, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)), nil
}

func postJSON(ctx context.Context, client *http.Client, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
