package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/qs3c/datawarfare_server/internal/api/middleware"
	"github.com/qs3c/datawarfare_server/internal/model/dto"
	"github.com/qs3c/datawarfare_server/internal/pkg/payment"
	"github.com/qs3c/datawarfare_server/internal/pkg/response"
	"github.com/qs3c/datawarfare_server/internal/service"
)

const maxWebhookBody = 1 << 20

type BillingHandler struct {
	billingService *service.BillingService
}

func NewBillingHandler(billingService *service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// Checkout 创建支付会话
// POST /api/v1/billing/checkout
func (h *BillingHandler) Checkout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.billingService.Checkout(c.Request.Context(), userID, middleware.GetEmail(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlan), errors.Is(err, payment.ErrUnknownPlan):
			response.ParamError(c, "Offre invalide")
		case errors.Is(err, service.ErrProviderUnavailable), errors.Is(err, payment.ErrNotConfigured):
			response.ParamError(c, "Moyen de paiement indisponible")
		default:
			response.ServerError(c, "Impossible de créer la session de paiement")
		}
		return
	}

	response.Success(c, resp)
}

// History 套餐变更记录
// GET /api/v1/billing/history?page=1&page_size=20
func (h *BillingHandler) History(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var q dto.BillingHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 20
	}

	items, total, err := h.billingService.History(c.Request.Context(), userID, q.Page, q.PageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, q.Page, q.PageSize, items)
}

// LygosWebhook Lygos 订阅事件
// POST /api/v1/webhooks/lygos
func (h *BillingHandler) LygosWebhook(c *gin.Context) {
	payload, ok := readWebhookBody(c)
	if !ok {
		return
	}
	h.writeWebhookResult(c, payment.ProviderLygos,
		h.billingService.HandleLygosWebhook(c.Request.Context(), payload, c.Request.Header))
}

// MonerooWebhook Moneroo 支付事件
// POST /api/v1/webhooks/moneroo
func (h *BillingHandler) MonerooWebhook(c *gin.Context) {
	payload, ok := readWebhookBody(c)
	if !ok {
		return
	}
	h.writeWebhookResult(c, payment.ProviderMoneroo,
		h.billingService.HandleMonerooWebhook(c.Request.Context(), payload, c.Request.Header))
}

// StripeWebhook Stripe 订阅事件
// POST /api/v1/webhooks/stripe
func (h *BillingHandler) StripeWebhook(c *gin.Context) {
	payload, ok := readWebhookBody(c)
	if !ok {
		return
	}
	h.writeWebhookResult(c, payment.ProviderStripe,
		h.billingService.HandleStripeWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")))
}

func readWebhookBody(c *gin.Context) ([]byte, bool) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.ParamError(c, "")
		return nil, false
	}
	return payload, true
}

// writeWebhookResult 签名和报文错误返回 4xx，其余失败返回 5xx 以便渠道重试
func (h *BillingHandler) writeWebhookResult(c *gin.Context, provider string, err error) {
	logger := log.With().Str("provider", provider).Logger()
	switch {
	case err == nil:
		c.JSON(200, gin.H{"received": true})
	case errors.Is(err, payment.ErrSignature):
		logger.Warn().Err(err).Msg("webhook signature rejected")
		c.JSON(401, gin.H{"error": "invalid signature"})
	case errors.Is(err, payment.ErrInvalidPayload), errors.Is(err, service.ErrInvalidPlan):
		logger.Warn().Err(err).Msg("webhook payload rejected")
		c.JSON(400, gin.H{"error": "invalid payload"})
	default:
		logger.Error().Err(err).Msg("webhook processing failed")
		c.JSON(500, gin.H{"error": "processing failed"})
	}
}
