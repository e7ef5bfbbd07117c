package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
	svix "github.com/svix/svix-webhooks/go"
	"gorm.io/gorm"

	"github.com/qs3c/datawarfare_server/config"
	"github.com/qs3c/datawarfare_server/internal/model"
	"github.com/qs3c/datawarfare_server/internal/model/dto"
	"github.com/qs3c/datawarfare_server/internal/pkg/payment"
	"github.com/qs3c/datawarfare_server/internal/repository"
	"github.com/qs3c/datawarfare_server/internal/testutil"
)

type fakeProvider struct {
	name string
	req  *payment.CheckoutRequest
	err  error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) CreateCheckout(ctx context.Context, req *payment.CheckoutRequest) (string, error) {
	f.req = req
	if f.err != nil {
		return "", f.err
	}
	return "https://pay.example.com/" + f.name, nil
}

func billingConfig() *config.Config {
	cfg := testConfig()
	cfg.Plans = map[string]config.PlanConfig{
		config.PlanFree:  {Analyses: 1},
		config.PlanPro:   {Analyses: 30, AmountXOF: 15000, LygosPriceID: "price_pro", StripePriceID: "sprice_pro"},
		config.PlanElite: {Analyses: 104, AmountXOF: 45000, LygosPriceID: "price_elite", StripePriceID: "sprice_elite"},
	}
	cfg.Payment = config.PaymentConfig{
		DefaultProvider: payment.ProviderMoneroo,
		FrontendURL:     "https://app.example.com/",
		Lygos:           config.LygosConfig{WebhookSecret: "whsec_" + base64.StdEncoding.EncodeToString([]byte("lygos-secret"))},
		Stripe:          config.StripeConfig{WebhookSecret: "whsec_stripe_test"},
	}
	return cfg
}

func setupBillingService(t *testing.T, providers ...payment.Provider) (*BillingService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	return NewBillingService(repository.NewPlanChangeRepository(db), providers, nil, billingConfig()), db
}

func TestBillingService_Checkout(t *testing.T) {
	moneroo := &fakeProvider{name: payment.ProviderMoneroo}
	lygos := &fakeProvider{name: payment.ProviderLygos}
	stripe := &fakeProvider{name: payment.ProviderStripe}
	s, _ := setupBillingService(t, moneroo, lygos, stripe)
	ctx := context.Background()

	t.Run("default provider uses amount", func(t *testing.T) {
		resp, err := s.Checkout(ctx, "u1", "a@example.com", &dto.CheckoutRequest{PlanID: config.PlanPro})
		require.NoError(t, err)

		assert.Equal(t, payment.ProviderMoneroo, resp.Provider)
		assert.Equal(t, "https://pay.example.com/moneroo", resp.CheckoutURL)
		assert.Equal(t, int64(15000), moneroo.req.AmountXOF)
		assert.Empty(t, moneroo.req.PriceID)
		assert.Equal(t, "https://app.example.com/dashboard?success=true", moneroo.req.SuccessURL)
		assert.Equal(t, "https://app.example.com/pricing?canceled=true", moneroo.req.CancelURL)
	})

	t.Run("price id resolves plan", func(t *testing.T) {
		_, err := s.Checkout(ctx, "u1", "", &dto.CheckoutRequest{PriceID: "price_elite", Provider: payment.ProviderLygos})
		require.NoError(t, err)
		assert.Equal(t, config.PlanElite, lygos.req.Plan)
		assert.Equal(t, "price_elite", lygos.req.PriceID)
	})

	t.Run("stripe price", func(t *testing.T) {
		_, err := s.Checkout(ctx, "u1", "", &dto.CheckoutRequest{PlanID: config.PlanPro, Provider: payment.ProviderStripe})
		require.NoError(t, err)
		assert.Equal(t, "sprice_pro", stripe.req.PriceID)
		assert.Equal(t, "u1", stripe.req.UserID)
	})

	t.Run("invalid plans", func(t *testing.T) {
		for _, req := range []*dto.CheckoutRequest{
			{PlanID: config.PlanFree},
			{PlanID: "platinum"},
			{PriceID: "price_unknown"},
			{},
		} {
			_, err := s.Checkout(ctx, "u1", "", req)
			assert.ErrorIs(t, err, ErrInvalidPlan)
		}
	})
}

func TestBillingService_Checkout_ProviderErrors(t *testing.T) {
	failing := &fakeProvider{name: payment.ProviderMoneroo, err: payment.ErrProvider}
	s, _ := setupBillingService(t, failing)

	_, err := s.Checkout(context.Background(), "u1", "", &dto.CheckoutRequest{PlanID: config.PlanPro})
	assert.ErrorIs(t, err, payment.ErrProvider)

	_, err = s.Checkout(context.Background(), "u1", "", &dto.CheckoutRequest{PlanID: config.PlanPro, Provider: payment.ProviderStripe})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestBillingService_Checkout_Moneroo(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"checkout_url":"https://pay.moneroo.io/xyz"}`))
	}))
	defer server.Close()

	s, _ := setupBillingService(t, payment.NewMoneroo(&config.MonerooConfig{BaseURL: server.URL, SecretKey: "sk"}))

	resp, err := s.Checkout(context.Background(), "u1", "a@example.com", &dto.CheckoutRequest{PlanID: config.PlanElite})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.moneroo.io/xyz", resp.CheckoutURL)
	assert.Equal(t, float64(45000), body["amount"])
}

func TestBillingService_ApplyPlanChange(t *testing.T) {
	s, db := setupBillingService(t)
	ctx := context.Background()
	p := testutil.TestProfile(t, db, testutil.WithRemaining(0), testutil.WithCount(1))

	change := &payment.PlanChange{
		Provider:  payment.ProviderLygos,
		EventID:   "evt_1",
		EventType: "checkout.completed",
		UserID:    p.ID,
		Plan:      config.PlanPro,
	}
	require.NoError(t, s.ApplyPlanChange(ctx, change))

	var got model.Profile
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, config.PlanPro, got.Plan)
	assert.Equal(t, 30, got.AnalysesRemaining)
	assert.Equal(t, 1, got.AnalysesCount)

	// 重放同一事件不会再次重置额度
	require.NoError(t, db.Model(&model.Profile{}).Where("id = ?", p.ID).Update("analyses_remaining", 12).Error)
	require.NoError(t, s.ApplyPlanChange(ctx, change))
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, 12, got.AnalysesRemaining)

	var n int64
	db.Model(&model.PlanChange{}).Where("user_id = ?", p.ID).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestBillingService_ApplyPlanChange_Edges(t *testing.T) {
	s, db := setupBillingService(t)
	ctx := context.Background()

	assert.NoError(t, s.ApplyPlanChange(ctx, nil))
	assert.ErrorIs(t, s.ApplyPlanChange(ctx, &payment.PlanChange{UserID: "u1", Plan: "platinum"}), ErrInvalidPlan)

	// 没有事件 ID 时各自生成，不会互相去重
	for i := 0; i < 2; i++ {
		require.NoError(t, s.ApplyPlanChange(ctx, &payment.PlanChange{
			Provider: payment.ProviderMoneroo,
			UserID:   "new-user",
			Email:    "new@example.com",
			Plan:     config.PlanElite,
		}))
	}

	var got model.Profile
	require.NoError(t, db.First(&got, "id = ?", "new-user").Error)
	assert.Equal(t, config.PlanElite, got.Plan)
	assert.Equal(t, 104, got.AnalysesRemaining)
	assert.Equal(t, "new@example.com", got.Email)

	var n int64
	db.Model(&model.PlanChange{}).Where("user_id = ?", "new-user").Count(&n)
	assert.Equal(t, int64(2), n)
}

func signLygos(t *testing.T, secret string, payload []byte) http.Header {
	t.Helper()
	wh, err := svix.NewWebhook(secret)
	require.NoError(t, err)
	now := time.Now()
	sig, err := wh.Sign("msg_1", now, payload)
	require.NoError(t, err)

	h := http.Header{}
	h.Set("svix-id", "msg_1")
	h.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
	h.Set("svix-signature", sig)
	return h
}

func TestBillingService_HandleLygosWebhook(t *testing.T) {
	s, db := setupBillingService(t)
	p := testutil.TestProfile(t, db)
	secret := s.cfg.Payment.Lygos.WebhookSecret
	payload := []byte(`{"id":"evt_l1","type":"subscription.updated","data":{"object":{"customer_id":"` + p.ID +
		`","status":"active","items":{"data":[{"price":{"id":"price_elite"}}]}}}}`)

	err := s.HandleLygosWebhook(context.Background(), payload, http.Header{})
	assert.ErrorIs(t, err, payment.ErrSignature)

	require.NoError(t, s.HandleLygosWebhook(context.Background(), payload, signLygos(t, secret, payload)))

	var got model.Profile
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, config.PlanElite, got.Plan)
	assert.Equal(t, 104, got.AnalysesRemaining)
}

func TestBillingService_HandleMonerooWebhook(t *testing.T) {
	s, db := setupBillingService(t)
	p := testutil.TestProfile(t, db)
	ctx := context.Background()

	payload := []byte(`{"event":"payment.success","data":{"id":"pay_1","metadata":{"user_id":"` + p.ID + `","plan_id":"pro"}}}`)
	require.NoError(t, s.HandleMonerooWebhook(ctx, payload, http.Header{}))

	var got model.Profile
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, config.PlanPro, got.Plan)

	err := s.HandleMonerooWebhook(ctx, []byte("{"), http.Header{})
	assert.True(t, errors.Is(err, payment.ErrInvalidPayload))

	// 无关事件被忽略
	require.NoError(t, s.HandleMonerooWebhook(ctx, []byte(`{"event":"payment.failed"}`), http.Header{}))
}

func TestBillingService_HandleStripeWebhook(t *testing.T) {
	s, db := setupBillingService(t)
	p := testutil.TestProfile(t, db, testutil.WithPlan(config.PlanPro, 10))
	secret := s.cfg.Payment.Stripe.WebhookSecret

	payload := []byte(`{"id":"evt_s1","object":"event","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1","object":"subscription","metadata":{"user_id":"` + p.ID + `"}}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret, Timestamp: time.Now()})

	err := s.HandleStripeWebhook(context.Background(), payload, "t=1,v1=bad")
	assert.ErrorIs(t, err, payment.ErrSignature)

	require.NoError(t, s.HandleStripeWebhook(context.Background(), payload, signed.Header))

	var got model.Profile
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, config.PlanFree, got.Plan)
	assert.Equal(t, 1, got.AnalysesRemaining)
}

func TestBillingService_History(t *testing.T) {
	s, db := setupBillingService(t)
	ctx := context.Background()
	p := testutil.TestProfile(t, db)

	require.NoError(t, s.ApplyPlanChange(ctx, &payment.PlanChange{Provider: payment.ProviderStripe, EventID: "evt_a", EventType: "checkout.session.completed", UserID: p.ID, Plan: config.PlanElite}))
	require.NoError(t, s.ApplyPlanChange(ctx, &payment.PlanChange{Provider: payment.ProviderStripe, EventID: "evt_b", EventType: "customer.subscription.deleted", UserID: p.ID, Plan: config.PlanFree}))

	items, total, err := s.History(ctx, p.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, config.PlanFree, items[0].Plan)
	assert.Equal(t, 1, items[0].Analyses)
	assert.Equal(t, config.PlanElite, items[1].Plan)
	assert.Equal(t, 104, items[1].Analyses)

	items, total, err = s.History(ctx, "nobody", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}
