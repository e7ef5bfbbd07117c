package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/qs3c/datawarfare_server/config"
	"github.com/qs3c/datawarfare_server/internal/model"
	"github.com/qs3c/datawarfare_server/internal/model/dto"
	"github.com/qs3c/datawarfare_server/internal/pkg/payment"
	"github.com/qs3c/datawarfare_server/internal/pkg/pubsub"
	"github.com/qs3c/datawarfare_server/internal/repository"
)

var (
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrInvalidPlan         = errors.New("invalid plan")
)

type BillingService struct {
	planChangeRepo *repository.PlanChangeRepository
	providers      map[string]payment.Provider
	publisher      *pubsub.Publisher
	cfg            *config.Config
}

func NewBillingService(
	planChangeRepo *repository.PlanChangeRepository,
	providers []payment.Provider,
	publisher *pubsub.Publisher,
	cfg *config.Config,
) *BillingService {
	byName := make(map[string]payment.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &BillingService{
		planChangeRepo: planChangeRepo,
		providers:      byName,
		publisher:      publisher,
		cfg:            cfg,
	}
}

// Checkout 为付费套餐创建支付会话，plan_id 优先，其次按 price_id 反查
func (s *BillingService) Checkout(ctx context.Context, userID, email string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	name := req.Provider
	if name == "" {
		name = s.cfg.Payment.DefaultProvider
	}
	provider, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, name)
	}

	plan := req.PlanID
	if plan == "" {
		plan, _ = s.cfg.PlanByPriceID(req.PriceID)
	}
	planCfg, ok := s.cfg.Plans[plan]
	if !ok || plan == config.PlanFree {
		return nil, ErrInvalidPlan
	}

	frontend := strings.TrimRight(s.cfg.Payment.FrontendURL, "/")
	cr := &payment.CheckoutRequest{
		UserID:     userID,
		Email:      email,
		Plan:       plan,
		AmountXOF:  planCfg.AmountXOF,
		SuccessURL: frontend + "/dashboard?success=true",
		CancelURL:  frontend + "/pricing?canceled=true",
	}
	switch name {
	case payment.ProviderLygos:
		cr.PriceID = planCfg.LygosPriceID
	case payment.ProviderStripe:
		cr.PriceID = planCfg.StripePriceID
	}

	checkoutURL, err := provider.CreateCheckout(ctx, cr)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("provider", name).Str("plan", plan).Msg("create checkout failed")
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("provider", name).Str("plan", plan).Msg("checkout created")
	return &dto.CheckoutResponse{CheckoutURL: checkoutURL, Provider: name}, nil
}

// ApplyPlanChange 写入变更记录并重置套餐额度，重复事件直接忽略
func (s *BillingService) ApplyPlanChange(ctx context.Context, change *payment.PlanChange) error {
	if change == nil {
		return nil
	}
	if _, ok := s.cfg.Plans[change.Plan]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, change.Plan)
	}

	eventID := change.EventID
	if eventID == "" {
		eventID = ulid.Make().String()
	}
	logger := log.With().
		Str("user_id", change.UserID).
		Str("provider", change.Provider).
		Str("event_id", eventID).
		Logger()

	err := s.planChangeRepo.Apply(ctx, &model.PlanChange{
		UserID:    change.UserID,
		Provider:  change.Provider,
		EventID:   eventID,
		EventType: change.EventType,
		Plan:      change.Plan,
		Analyses:  s.cfg.Plan(change.Plan).Analyses,
	}, change.Email)
	if errors.Is(err, repository.ErrDuplicateEvent) {
		logger.Info().Msg("plan change already applied")
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Msg("apply plan change failed")
		return err
	}

	logger.Info().Str("plan", change.Plan).Str("event_type", change.EventType).Msg("plan changed")
	if err := s.publisher.PublishChange(ctx, &pubsub.ChangeMessage{
		UserID:   change.UserID,
		Table:    pubsub.TableProfiles,
		Event:    pubsub.EventUpdate,
		RecordID: change.UserID,
	}); err != nil {
		logger.Warn().Err(err).Msg("publish change failed")
	}
	return nil
}

// History 分页获取套餐变更记录
func (s *BillingService) History(ctx context.Context, userID string, page, pageSize int) ([]*dto.PlanChangeItem, int64, error) {
	changes, total, err := s.planChangeRepo.ListByUserID(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items := lo.Map(changes, func(c *model.PlanChange, _ int) *dto.PlanChangeItem {
		return &dto.PlanChangeItem{
			Provider:  c.Provider,
			EventType: c.EventType,
			Plan:      c.Plan,
			Analyses:  c.Analyses,
			CreatedAt: c.CreatedAt,
		}
	})
	return items, total, nil
}

// HandleLygosWebhook 校验签名后处理 Lygos 事件
func (s *BillingService) HandleLygosWebhook(ctx context.Context, payload []byte, header http.Header) error {
	if err := payment.VerifySignedWebhook(s.cfg.Payment.Lygos.WebhookSecret, payload, header); err != nil {
		return err
	}
	change, err := payment.ResolveLygosEvent(payload, s.cfg.PlanByPriceID)
	if err != nil {
		return err
	}
	return s.ApplyPlanChange(ctx, change)
}

// HandleMonerooWebhook 校验签名后处理 Moneroo 事件
func (s *BillingService) HandleMonerooWebhook(ctx context.Context, payload []byte, header http.Header) error {
	if err := payment.VerifySignedWebhook(s.cfg.Payment.Moneroo.WebhookSecret, payload, header); err != nil {
		return err
	}
	change, err := payment.ResolveMonerooEvent(payload, s.cfg.Plans)
	if err != nil {
		return err
	}
	return s.ApplyPlanChange(ctx, change)
}

// HandleStripeWebhook 校验 Stripe-Signature 后处理订阅事件
func (s *BillingService) HandleStripeWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	change, err := payment.ParseStripeEvent(payload, sigHeader, s.cfg.Payment.Stripe.WebhookSecret, s.cfg.PlanByPriceID)
	if err != nil {
		return err
	}
	return s.ApplyPlanChange(ctx, change)
}
