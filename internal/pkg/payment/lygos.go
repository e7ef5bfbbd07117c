package payment

import (
	"context"
	"fmt"
	"net/http"

	"github.com/qs3c/datawarfare_server/config"
)

// Lygos 订阅制支付渠道，按价格 ID 创建结账会话
type Lygos struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewLygos(cfg *config.LygosConfig) *Lygos {
	return &Lygos{
		baseURL:    trimBaseURL(cfg.BaseURL),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
	}
}

func (l *Lygos) Name() string { return ProviderLygos }

type lygosCheckoutRequest struct {
	PriceID       string            `json:"price_id"`
	CustomerEmail string            `json:"customer_email"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata"`
}

type lygosCheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

func (l *Lygos) CreateCheckout(ctx context.Context, req *CheckoutRequest) (string, error) {
	if l.apiKey == "" {
		return "", fmt.Errorf("%w: lygos api key", ErrNotConfigured)
	}
	if req.PriceID == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlan, req.Plan)
	}

	body := lygosCheckoutRequest{
		PriceID:       req.PriceID,
		CustomerEmail: req.Email,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		Metadata:      map[string]string{"user_id": req.UserID},
	}

	var resp lygosCheckoutResponse
	if err := postJSON(ctx, l.httpClient, ProviderLygos, l.baseURL+"/v1/checkouts", l.apiKey, body, &resp); err != nil {
		return "", err
	}
	if resp.CheckoutURL == "" {
		return "", fmt.Errorf("%w: lygos response without checkout_url", ErrProvider)
	}
	return resp.CheckoutURL, nil
}
