package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/datawarfare_server/config"
	"github.com/qs3c/datawarfare_server/internal/api/handler"
	"github.com/qs3c/datawarfare_server/internal/api/middleware"
	"github.com/qs3c/datawarfare_server/internal/pkg/jwt"
	"github.com/qs3c/datawarfare_server/internal/service"
)

type Router struct {
	analysisHandler  *handler.AnalysisHandler
	quotaHandler     *handler.QuotaHandler
	plansHandler     *handler.PlansHandler
	billingHandler   *handler.BillingHandler
	websocketHandler *handler.WebSocketHandler
	sessions         *service.SessionProvider
	verifier         jwt.Verifier
	cfg              *config.Config
}

func NewRouter(
	analysisHandler *handler.AnalysisHandler,
	quotaHandler *handler.QuotaHandler,
	plansHandler *handler.PlansHandler,
	billingHandler *handler.BillingHandler,
	websocketHandler *handler.WebSocketHandler,
	sessions *service.SessionProvider,
	verifier jwt.Verifier,
	cfg *config.Config,
) *Router {
	return &Router{
		analysisHandler:  analysisHandler,
		quotaHandler:     quotaHandler,
		plansHandler:     plansHandler,
		billingHandler:   billingHandler,
		websocketHandler: websocketHandler,
		sessions:         sessions,
		verifier:         verifier,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 套餐
		api.GET("/plans", r.plansHandler.List)

		// 支付渠道回调，按各自签名校验
		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/lygos", r.billingHandler.LygosWebhook)
			webhooks.POST("/moneroo", r.billingHandler.MonerooWebhook)
			webhooks.POST("/stripe", r.billingHandler.StripeWebhook)
		}

		// 发起分析（可选认证，未登录由业务层返回需要登录）
		run := api.Group("/analyses")
		run.Use(middleware.OptionalAuth(r.verifier), middleware.LoadSession(r.sessions))
		{
			run.POST("/run", r.analysisHandler.Run)
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.verifier))
		{
			// 用户
			user := authenticated.Group("/user")
			user.Use(middleware.LoadSession(r.sessions))
			{
				user.GET("/profile", r.quotaHandler.GetProfile)
				user.GET("/quota", r.quotaHandler.GetQuota)
				user.GET("/stats", r.analysisHandler.Stats)
			}

			// 分析历史
			analyses := authenticated.Group("/analyses")
			{
				analyses.GET("", r.analysisHandler.List)
				analyses.GET("/:id", r.analysisHandler.Get)
				analyses.DELETE("/:id", r.analysisHandler.Delete)
				analyses.GET("/:id/export", r.analysisHandler.Export)
				analyses.POST("/:id/publish", r.analysisHandler.Publish)
			}

			// 支付
			authenticated.POST("/billing/checkout", r.billingHandler.Checkout)
			authenticated.GET("/billing/history", r.billingHandler.History)
		}
	}

	return engine
}
