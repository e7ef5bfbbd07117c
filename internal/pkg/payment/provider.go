package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// 支付渠道名称
const (
	ProviderMoneroo = "moneroo"
	ProviderLygos   = "lygos"
	ProviderStripe  = "stripe"
)

var (
	ErrNotConfigured  = errors.New("payment provider not configured")
	ErrUnknownPlan    = errors.New("plan not purchasable with this provider")
	ErrProvider       = errors.New("payment provider error")
	ErrInvalidPayload = errors.New("invalid webhook payload")
	ErrSignature      = errors.New("webhook signature verification failed")
)

// CheckoutRequest 创建支付会话所需的信息，价格字段由调用方按渠道填好
type CheckoutRequest struct {
	UserID     string
	Email      string
	Plan       string
	PriceID    string
	AmountXOF  int64
	SuccessURL string
	CancelURL  string
}

// Provider 可替换的支付渠道
type Provider interface {
	Name() string
	CreateCheckout(ctx context.Context, req *CheckoutRequest) (string, error)
}

// PlanChange 从渠道 webhook 中解析出的套餐变更
type PlanChange struct {
	Provider  string
	EventID   string
	EventType string
	UserID    string
	Email     string
	Plan      string
}

// PriceResolver 把渠道价格 ID 映射为套餐名
type PriceResolver func(priceID string) (string, bool)

const requestTimeout = 30 * time.Second

// providerError 渠道返回的错误信息
type providerError struct {
	provider string
	status   int
	message  string
}

func (e *providerError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("%s returned %d: %s", e.provider, e.status, e.message)
	}
	return fmt.Sprintf("%s returned %d", e.provider, e.status)
}

func (e *providerError) Unwrap() error { return ErrProvider }

// postJSON 以 Bearer 认证发送 JSON 请求并解码响应
func postJSON(ctx context.Context, client *http.Client, provider, url, apiKey string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", provider, err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build %s request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrProvider, provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %s: read body: %v", ErrProvider, provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &eb)
		return &providerError{provider: provider, status: resp.StatusCode, message: eb.Message}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", ErrProvider, provider, err)
	}
	return nil
}

func trimBaseURL(u string) string {
	return strings.TrimRight(u, "/")
}
