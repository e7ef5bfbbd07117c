package payment

import (
	"context"
	"fmt"
	"net/http"

	"github.com/qs3c/datawarfare_server/config"
)

const monerooCurrency = "XOF"

// Moneroo 移动支付渠道，按套餐金额（XOF）创建一次性支付
type Moneroo struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewMoneroo(cfg *config.MonerooConfig) *Moneroo {
	return &Moneroo{
		baseURL:    trimBaseURL(cfg.BaseURL),
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{},
	}
}

func (m *Moneroo) Name() string { return ProviderMoneroo }

type monerooCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type monerooPaymentRequest struct {
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Customer      monerooCustomer   `json:"customer"`
	PaymentMethod string            `json:"payment_method"`
	RedirectURL   string            `json:"redirect_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata"`
}

type monerooPaymentResponse struct {
	CheckoutURL string `json:"checkout_url"`
	Data        struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

func (m *Moneroo) CreateCheckout(ctx context.Context, req *CheckoutRequest) (string, error) {
	if m.secretKey == "" {
		return "", fmt.Errorf("%w: moneroo secret key", ErrNotConfigured)
	}
	if req.AmountXOF <= 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlan, req.Plan)
	}

	body := monerooPaymentRequest{
		Amount:        req.AmountXOF,
		Currency:      monerooCurrency,
		Customer:      monerooCustomer{Email: req.Email, Name: req.Email},
		PaymentMethod: "mobile_money",
		RedirectURL:   req.SuccessURL,
		CancelURL:     req.CancelURL,
		Metadata: map[string]string{
			"user_id": req.UserID,
			"plan_id": req.Plan,
		},
	}

	var resp monerooPaymentResponse
	if err := postJSON(ctx, m.httpClient, ProviderMoneroo, m.baseURL+"/v1/payments", m.secretKey, body, &resp); err != nil {
		return "", err
	}

	url := resp.CheckoutURL
	if url == "" {
		url = resp.Data.CheckoutURL
	}
	if url == "" {
		return "", fmt.Errorf("%w: moneroo response without checkout_url", ErrProvider)
	}
	return url, nil
}
