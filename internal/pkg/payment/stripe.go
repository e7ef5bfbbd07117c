package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/qs3c/datawarfare_server/config"
)

// Stripe 订阅结账
type Stripe struct {
	sessions *session.Client
}

func NewStripe(cfg *config.StripeConfig) *Stripe {
	return newStripe(cfg.SecretKey, stripe.GetBackend(stripe.APIBackend))
}

func newStripe(key string, backend stripe.Backend) *Stripe {
	return &Stripe{sessions: &session.Client{B: backend, Key: key}}
}

func (s *Stripe) Name() string { return ProviderStripe }

func (s *Stripe) CreateCheckout(ctx context.Context, req *CheckoutRequest) (string, error) {
	if s.sessions.Key == "" {
		return "", fmt.Errorf("%w: stripe secret key", ErrNotConfigured)
	}
	if req.PriceID == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlan, req.Plan)
	}

	metadata := map[string]string{"user_id": req.UserID, "plan": req.Plan}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(req.UserID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.sessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: stripe: %v", ErrProvider, err)
	}
	return sess.URL, nil
}

// ParseStripeEvent 校验 Stripe-Signature 并解析出套餐变更，无关事件返回 nil
func ParseStripeEvent(payload []byte, sigHeader, secret string, resolve PriceResolver) (*PlanChange, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: stripe webhook secret", ErrNotConfigured)
	}
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	change := &PlanChange{
		Provider:  ProviderStripe,
		EventID:   event.ID,
		EventType: string(event.Type),
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		change.UserID = firstNonEmpty(sess.ClientReferenceID, sess.Metadata["user_id"])
		change.Plan = sess.Metadata["plan"]
		change.Email = sess.CustomerEmail
		if sess.CustomerDetails != nil && change.Email == "" {
			change.Email = sess.CustomerDetails.Email
		}
	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		change.UserID = sub.Metadata["user_id"]
		if sub.Status == stripe.SubscriptionStatusCanceled || sub.Status == stripe.SubscriptionStatusUnpaid ||
			sub.Status == stripe.SubscriptionStatusIncompleteExpired {
			change.Plan = config.PlanFree
		} else if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			change.Plan, _ = resolve(sub.Items.Data[0].Price.ID)
		}
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		change.UserID = sub.Metadata["user_id"]
		change.Plan = config.PlanFree
	default:
		return nil, nil
	}

	if change.UserID == "" || change.Plan == "" {
		return nil, nil
	}
	return change, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
