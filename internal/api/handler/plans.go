package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/datawarfare_server/internal/pkg/response"
	"github.com/qs3c/datawarfare_server/internal/service"
)

type PlansHandler struct {
	quotaService *service.QuotaService
}

func NewPlansHandler(quotaService *service.QuotaService) *PlansHandler {
	return &PlansHandler{quotaService: quotaService}
}

// List 获取套餐目录
// GET /api/v1/plans
func (h *PlansHandler) List(c *gin.Context) {
	response.Success(c, gin.H{
		"plans": h.quotaService.Plans(),
	})
}
