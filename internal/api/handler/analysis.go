package handler

import (
	"context"
	"errors"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/qs3c/datawarfare_server/internal/api/middleware"
	"github.com/qs3c/datawarfare_server/internal/generator"
	"github.com/qs3c/datawarfare_server/internal/model/dto"
	"github.com/qs3c/datawarfare_server/internal/pkg/response"
	"github.com/qs3c/datawarfare_server/internal/service"
)

type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
	}
}

// Run 发起一次竞品分析
// POST /api/v1/analyses/run
func (h *AnalysisHandler) Run(c *gin.Context) {
	var req dto.RunAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 请求体无效时按空 URL 处理，登录和额度检查仍然优先
		req.TargetURL = ""
	}

	session := middleware.GetSession(c)
	outcome, err := h.analysisService.RunAnalysis(c.Request.Context(), session, req.TargetURL)
	if err != nil {
		var se *generator.ServerError
		switch {
		case errors.Is(err, service.ErrNeedsAuth):
			response.NeedsAuthError(c)
		case errors.Is(err, service.ErrQuotaExhausted):
			response.QuotaError(c, "")
		case errors.Is(err, service.ErrInvalidURL):
			response.InvalidURLError(c)
		case errors.Is(err, service.ErrNetwork):
			response.NetworkError(c)
		case errors.As(err, &se):
			response.GenerationError(c, se.Message)
		case errors.Is(err, service.ErrServer):
			response.GenerationError(c, "")
		case errors.Is(err, context.Canceled):
			log.Debug().Str("user_id", session.AccountID()).Msg("analysis request canceled")
			response.ServerError(c, "")
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, &dto.RunAnalysisResponse{
		AnalysisID: outcome.AnalysisID,
		TargetURL:  outcome.TargetURL,
		Report:     outcome.Report,
		Cached:     outcome.Cached,
		Warnings:   lo.Map(outcome.Warnings, func(w service.Warning, _ int) string { return string(w) }),
		Profile:    session.Info(),
	})
}

// List 获取分析历史
// GET /api/v1/analyses
func (h *AnalysisHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var q dto.ListAnalysesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	items, err := h.analysisService.List(c.Request.Context(), userID, &q)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"items": items})
}

// Get 获取分析详情
// GET /api/v1/analyses/:id
func (h *AnalysisHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	detail, err := h.analysisService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeLookupError(c, err)
		return
	}

	response.Success(c, detail)
}

// Delete 删除分析
// DELETE /api/v1/analyses/:id
func (h *AnalysisHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	if err := h.analysisService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.writeLookupError(c, err)
		return
	}

	response.SuccessWithMessage(c, "Analyse supprimée", nil)
}

// Export 下载格式化后的 markdown 报告
// GET /api/v1/analyses/:id/export
func (h *AnalysisHandler) Export(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	filename, markdown, err := h.analysisService.Export(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeLookupError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(200, "text/markdown; charset=utf-8", []byte(markdown))
}

// Publish 发布报告到对象存储
// POST /api/v1/analyses/:id/publish
func (h *AnalysisHandler) Publish(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	publicURL, err := h.analysisService.Publish(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPublishUnavailable) {
			response.ParamError(c, "La publication des rapports n'est pas disponible")
			return
		}
		h.writeLookupError(c, err)
		return
	}

	response.Success(c, &dto.PublishResponse{URL: publicURL})
}

// Stats 最近 30 天的分析统计
// GET /api/v1/user/stats
func (h *AnalysisHandler) Stats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	stats, err := h.analysisService.Stats(c.Request.Context(), userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, stats)
}

func (h *AnalysisHandler) writeLookupError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrAnalysisNotFound) {
		response.NotFoundError(c, "Analyse introuvable")
		return
	}
	log.Error().Err(err).Str("analysis_id", c.Param("id")).Msg("analysis lookup failed")
	response.ServerError(c, "")
}
