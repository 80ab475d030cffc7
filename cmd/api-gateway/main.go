package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/bureau-roster-api/api/swagger"
	"github.com/noah-isme/bureau-roster-api/internal/handler"
	internalmiddleware "github.com/noah-isme/bureau-roster-api/internal/middleware"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/internal/repository"
	"github.com/noah-isme/bureau-roster-api/internal/service"
	"github.com/noah-isme/bureau-roster-api/pkg/cache"
	"github.com/noah-isme/bureau-roster-api/pkg/config"
	"github.com/noah-isme/bureau-roster-api/pkg/database"
	"github.com/noah-isme/bureau-roster-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/bureau-roster-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/bureau-roster-api/pkg/middleware/requestid"
	"github.com/noah-isme/bureau-roster-api/pkg/storage"
)

// @title Bureau Roster API
// @version 1.0.0
// @description Personnel governance and workflow engine for a ranked organization
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsDir, logr); err != nil {
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	pushDispatcher := service.NewPushDispatcher(cfg.Notifications, metricsSvc, logr)
	pushDispatcher.Start(ctx)
	defer pushDispatcher.Stop()

	router := buildRouter(cfg, logr, db, redisClient, metricsSvc, pushDispatcher)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func buildRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, metricsSvc *service.MetricsService, pushDispatcher *service.PushDispatcher) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	memberRepo := repository.NewMemberRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	newsRepo := repository.NewNewsRepository(db)
	chatRepo := repository.NewChatRepository(db)
	blacklistRepo := repository.NewBlacklistRepository(db)
	txManager := database.NewTxManager(db)

	var locker service.Locker = service.NewKeyedMutex()
	if cfg.Governance.LockBackend == config.LockBackendRedis {
		if redisClient != nil {
			locker = repository.NewRedisLocker(redisClient, cfg.Governance.LockTTL)
		} else {
			logr.Warn("redis lock backend requested without redis; using in-process locks")
		}
	}

	var publisher service.NotificationPublisher
	if pushDispatcher != nil {
		publisher = pushDispatcher
	}

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), metricsSvc, cfg.Settings.CacheTTL, logr, cfg.Settings.CacheEnabled && redisClient != nil)
	signer := storage.NewLinkSigner(cfg.Archive.LinkSecret, cfg.Archive.LinkTTL, cfg.Archive.BaseURL)

	auditSvc := service.NewAuditService(auditRepo, memberRepo, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, publisher, metricsSvc, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, newsRepo, memberRepo, txManager, auditSvc, notificationSvc, cacheSvc, logr)
	newsSvc := service.NewNewsService(newsRepo, memberRepo, txManager, auditSvc, logr)
	requestSvc := service.NewRequestService(requestRepo, memberRepo, settingsSvc, txManager, auditSvc, signer, metricsSvc, logr)
	decisionSvc := service.NewDecisionService(requestRepo, memberRepo, settingsSvc, txManager, locker, auditSvc, notificationSvc, metricsSvc, logr)
	blacklistSvc := service.NewBlacklistService(blacklistRepo, memberRepo, txManager, auditSvc)
	managementSvc := service.NewManagementService(memberRepo, blacklistRepo, settingsSvc, txManager, auditSvc, notificationSvc, logr)
	memberSvc := service.NewMemberService(memberRepo, logr)
	chatSvc := service.NewChatService(chatRepo, memberRepo, settingsSvc, txManager, notificationSvc, logr)
	authSvc := service.NewAuthService(memberRepo, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	authHandler := handler.NewAuthHandler(memberSvc)
	memberHandler := handler.NewMemberHandler(memberSvc, managementSvc)
	requestHandler := handler.NewRequestHandler(requestSvc, decisionSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	newsHandler := handler.NewContentHandler(newsSvc, models.ContentKindNews)
	raidsHandler := handler.NewContentHandler(newsSvc, models.ContentKindRaid)
	chatHandler := handler.NewChatHandler(chatSvc)
	blacklistHandler := handler.NewBlacklistHandler(blacklistSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/shared/archive/:archiveId", requestHandler.Shared)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	secured.GET("/auth/me", authHandler.Me)

	members := secured.Group("/members")
	members.GET("", memberHandler.List)
	members.GET("/leadership", memberHandler.Leadership)
	members.PUT("/me/duty", memberHandler.SetDuty)
	members.POST("/whitelist", memberHandler.Whitelist)
	members.POST("/admins", memberHandler.AddAdmin)
	members.GET("/:id", memberHandler.Get)
	members.DELETE("/:id", memberHandler.Fire)
	members.POST("/:id/director", memberHandler.AssignDirector)
	members.POST("/:id/penalties", memberHandler.IssuePenalty)
	members.DELETE("/:id/penalties/:index", memberHandler.RemovePenalty)
	members.PUT("/:id/rank", memberHandler.ChangeRank)
	secured.GET("/departments/:key/members", memberHandler.DepartmentMembers)

	requests := secured.Group("/requests")
	requests.POST("", requestHandler.Submit)
	requests.GET("/mine", requestHandler.Mine)
	requests.GET("/pending", requestHandler.Pending)
	requests.POST("/:id/decision", requestHandler.Decide)

	archive := secured.Group("/archive")
	archive.GET("", requestHandler.Archive)
	archive.GET("/:archiveId", requestHandler.Archived)
	archive.DELETE("/:archiveId", requestHandler.DeleteArchived)
	archive.GET("/:archiveId/link", requestHandler.ArchiveLink)

	secured.GET("/notifications", notificationHandler.List)
	secured.POST("/notifications/read", notificationHandler.MarkRead)

	auditLog := secured.Group("/audit-log")
	auditLog.Use(internalmiddleware.RequireLeadership(memberRepo))
	auditLog.GET("", auditHandler.List)
	auditLog.GET("/export", auditHandler.Export)

	settings := secured.Group("/settings")
	settings.GET("", settingsHandler.Get)
	settings.PUT("/promotion-rules", settingsHandler.UpdatePromotionRules)
	settings.PUT("/penalty-rules", settingsHandler.UpdatePenaltyRules)
	settings.PUT("/charter", settingsHandler.UpdateCharter)
	settings.PUT("/rank-names", settingsHandler.UpdateRankNames)
	settings.PUT("/departments", settingsHandler.UpdateDepartments)

	news := secured.Group("/news")
	news.GET("", newsHandler.List)
	news.POST("", newsHandler.Create)
	news.GET("/:id", newsHandler.Get)
	news.PUT("/:id", newsHandler.Update)
	news.DELETE("/:id", newsHandler.Delete)
	news.PUT("/:id/pin", newsHandler.Pin)
	news.POST("/:id/archive", newsHandler.Archive)

	raids := secured.Group("/raids")
	raids.GET("", raidsHandler.List)
	raids.POST("", raidsHandler.Create)
	raids.GET("/:id", raidsHandler.Get)
	raids.PUT("/:id", raidsHandler.Update)
	raids.DELETE("/:id", raidsHandler.Delete)
	raids.POST("/:id/comments", raidsHandler.Comment)

	chat := secured.Group("/chat")
	chat.GET("", chatHandler.Channels)
	chat.GET("/:channel", chatHandler.History)
	chat.POST("/:channel", chatHandler.Send)

	blacklist := secured.Group("/blacklist")
	blacklist.GET("", blacklistHandler.List)
	blacklist.POST("", blacklistHandler.Add)
	blacklist.DELETE("/:id", blacklistHandler.Remove)

	return r
}
