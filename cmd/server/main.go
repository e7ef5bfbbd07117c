package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"

	"github.com/qs3c/datawarfare_server/config"
	"github.com/qs3c/datawarfare_server/internal/api"
	"github.com/qs3c/datawarfare_server/internal/api/handler"
	"github.com/qs3c/datawarfare_server/internal/database"
	"github.com/qs3c/datawarfare_server/internal/generator"
	"github.com/qs3c/datawarfare_server/internal/pkg/cron"
	"github.com/qs3c/datawarfare_server/internal/pkg/jwt"
	"github.com/qs3c/datawarfare_server/internal/pkg/logging"
	"github.com/qs3c/datawarfare_server/internal/pkg/oss"
	"github.com/qs3c/datawarfare_server/internal/pkg/payment"
	"github.com/qs3c/datawarfare_server/internal/pkg/pubsub"
	"github.com/qs3c/datawarfare_server/internal/pkg/ws"
	"github.com/qs3c/datawarfare_server/internal/repository"
	"github.com/qs3c/datawarfare_server/internal/service"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	log.Info().Msg("database connected")

	// 初始化 Redis，未配置时不推送变更
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	publisher := pubsub.NewPublisher(rdb)

	// 身份校验
	verifier, err := jwt.NewVerifier(cfg.Auth.Secret, cfg.Auth.JWKSURL, cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init token verifier")
	}

	// WebSocket Hub，从 Redis 订阅消息转发给在线用户
	wsHub := ws.NewHub()
	if rdb != nil {
		go func() {
			err := pubsub.NewSubscriber(rdb).Subscribe(ctx, wsHub.SendRaw)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub subscriber stopped")
			}
		}()
		log.Info().Msg("redis connected, change notifications enabled")
	} else {
		log.Warn().Msg("redis not configured, change notifications disabled")
	}

	// 对象存储，未配置时不支持发布报告
	var uploader service.ReportUploader
	if cfg.OSS.Endpoint != "" {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init oss client")
		}
		uploader = ossClient
	}

	// 初始化 Repository
	profileRepo := repository.NewProfileRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	planChangeRepo := repository.NewPlanChangeRepository(db)

	// 初始化 Service
	sessions := service.NewSessionProvider(profileRepo, cfg)
	quotaService := service.NewQuotaService(profileRepo, cfg)
	analysisService := service.NewAnalysisService(
		analysisRepo, profileRepo, generator.NewClient(&cfg.Generator), publisher, uploader, cfg)
	billingService := service.NewBillingService(planChangeRepo, []payment.Provider{
		payment.NewMoneroo(&cfg.Payment.Moneroo),
		payment.NewLygos(&cfg.Payment.Lygos),
		payment.NewStripe(&cfg.Payment.Stripe),
	}, publisher, cfg)

	// 定时校正使用次数
	cronService := cron.NewService(quotaService, cfg.Cron.RecountInterval)
	cronService.Start()

	// 初始化 Router
	router := api.NewRouter(
		handler.NewAnalysisHandler(analysisService),
		handler.NewQuotaHandler(quotaService),
		handler.NewPlansHandler(quotaService),
		handler.NewBillingHandler(billingService),
		handler.NewWebSocketHandler(wsHub, verifier, cfg.CORS.AllowedOrigins),
		sessions,
		verifier,
		cfg,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	cronService.Stop()
	if rdb != nil {
		rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}
