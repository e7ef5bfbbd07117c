package payment

import (
	"encoding/json"
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/qs3c/datawarfare_server/config"
)

// VerifySignedWebhook 按 Standard Webhooks (svix) 规范校验签名
// secret 为空时不校验
func VerifySignedWebhook(secret string, payload []byte, header http.Header) error {
	if secret == "" {
		return nil
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}

	headers := http.Header{}
	headers.Set("svix-id", header.Get("svix-id"))
	headers.Set("svix-timestamp", header.Get("svix-timestamp"))
	headers.Set("svix-signature", header.Get("svix-signature"))
	if err := wh.Verify(payload, headers); err != nil {
		return fmt.Errorf("%w: %v", ErrSignature, err)
	}
	return nil
}

type priceRef struct {
	ID string `json:"id"`
}

type lygosObject struct {
	ID         string            `json:"id"`
	Status     string            `json:"status"`
	CustomerID string            `json:"customer_id"`
	Email      string            `json:"customer_email"`
	Metadata   map[string]string `json:"metadata"`
	Price      *priceRef         `json:"price"`
	Items      struct {
		Data []struct {
			Price *priceRef `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type lygosEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object lygosObject `json:"object"`
	} `json:"data"`
}

// ResolveLygosEvent 把 Lygos 事件映射为套餐变更
// 无法确定账户或套餐、以及未处理的事件类型返回 nil
func ResolveLygosEvent(payload []byte, resolve PriceResolver) (*PlanChange, error) {
	var ev lygosEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	obj := ev.Data.Object

	change := &PlanChange{
		Provider:  ProviderLygos,
		EventID:   ev.ID,
		EventType: ev.Type,
		Email:     obj.Email,
	}

	switch ev.Type {
	case "checkout.completed":
		change.UserID = obj.Metadata["user_id"]
		if obj.Price != nil {
			change.Plan = paidPlan(obj.Price.ID, resolve)
		}
	case "subscription.created", "subscription.updated":
		change.UserID = firstNonEmpty(obj.Metadata["user_id"], obj.CustomerID)
		var priceID string
		if len(obj.Items.Data) > 0 && obj.Items.Data[0].Price != nil {
			priceID = obj.Items.Data[0].Price.ID
		}
		if plan := paidPlan(priceID, resolve); plan != "" {
			change.Plan = plan
		} else if obj.Status == "canceled" || obj.Status == "unpaid" || obj.Status == "incomplete" {
			change.Plan = config.PlanFree
		}
	case "subscription.deleted":
		change.UserID = firstNonEmpty(obj.Metadata["user_id"], obj.CustomerID)
		change.Plan = config.PlanFree
	default:
		return nil, nil
	}

	if change.UserID == "" || change.Plan == "" {
		return nil, nil
	}
	return change, nil
}

// paidPlan 只接受付费套餐的价格 ID
func paidPlan(priceID string, resolve PriceResolver) string {
	plan, ok := resolve(priceID)
	if !ok || plan == config.PlanFree {
		return ""
	}
	return plan
}

type monerooEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID       string            `json:"id"`
		Status   string            `json:"status"`
		Metadata map[string]string `json:"metadata"`
		Customer struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// ResolveMonerooEvent 支付成功后按 metadata 中的 plan_id 升级套餐
func ResolveMonerooEvent(payload []byte, plans map[string]config.PlanConfig) (*PlanChange, error) {
	var ev monerooEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if ev.Event != "payment.success" {
		return nil, nil
	}

	plan := ev.Data.Metadata["plan_id"]
	if _, ok := plans[plan]; !ok || plan == config.PlanFree {
		return nil, nil
	}
	userID := ev.Data.Metadata["user_id"]
	if userID == "" {
		return nil, nil
	}

	return &PlanChange{
		Provider:  ProviderMoneroo,
		EventID:   ev.Data.ID,
		EventType: ev.Event,
		UserID:    userID,
		Email:     ev.Data.Customer.Email,
		Plan:      plan,
	}, nil
}
