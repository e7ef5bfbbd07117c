package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/datawarfare_server/internal/api/middleware"
	"github.com/qs3c/datawarfare_server/internal/pkg/response"
	"github.com/qs3c/datawarfare_server/internal/service"
)

type QuotaHandler struct {
	quotaService *service.QuotaService
}

func NewQuotaHandler(quotaService *service.QuotaService) *QuotaHandler {
	return &QuotaHandler{
		quotaService: quotaService,
	}
}

// GetQuota 获取当前用户配额信息
// GET /api/v1/user/quota
func (h *QuotaHandler) GetQuota(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	info, err := h.quotaService.GetQuotaInfo(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			response.NotFoundError(c, "Profil introuvable")
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, info)
}

// GetProfile 获取当前会话的档案，首次访问时自动开通免费套餐
// GET /api/v1/user/profile
func (h *QuotaHandler) GetProfile(c *gin.Context) {
	session := middleware.GetSession(c)
	if !session.Authenticated() {
		response.AuthError(c, "")
		return
	}
	response.Success(c, session.Info())
}
