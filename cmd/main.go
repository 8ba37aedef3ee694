package main

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chhinhsovath/plp-telegram-manager/config"
	"github.com/chhinhsovath/plp-telegram-manager/internal/filestore"
	"github.com/chhinhsovath/plp-telegram-manager/internal/handlers"
	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
	"github.com/chhinhsovath/plp-telegram-manager/internal/routers"
	"github.com/chhinhsovath/plp-telegram-manager/internal/services"
	"github.com/chhinhsovath/plp-telegram-manager/internal/storage"
	"github.com/chhinhsovath/plp-telegram-manager/internal/telegram"
	"github.com/chhinhsovath/plp-telegram-manager/internal/utils"
	logger "github.com/chhinhsovath/plp-telegram-manager/middleware/log"
	"github.com/chhinhsovath/plp-telegram-manager/utils/ratelimit"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer appLogger.Close()

	// Worker pool for async attachment relocation.
	pool := utils.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
	pool.Start()
	defer pool.Stop()

	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	postgres, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	if err != nil {
		appLogger.Fatal("failed to init postgres", zap.Error(err))
	}

	// Redis backs webhook dedup and admin rate limiting. Both fail open,
	// so a missing redis degrades rather than blocks the service.
	redisClient, err := storage.InitRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
	if err != nil {
		appLogger.Warn("redis unavailable, running without dedup and rate limiting", zap.Error(err))
		redisClient = nil
	}

	// Without a bot token the webhook surface reports 503 but the admin
	// API over already-captured data keeps working.
	var api telegram.API
	var botID int64
	if cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewClient(cfg.Telegram.BotToken)
		if err != nil {
			appLogger.Fatal("failed to init telegram client", zap.Error(err))
		}
		api = bot
		me, err := bot.GetMe()
		if err != nil {
			appLogger.Warn("failed to identify bot account", zap.Error(err))
		} else {
			botID = me.ID
			appLogger.Info("telegram bot ready",
				zap.Int64("bot_id", me.ID),
				zap.String("username", me.Username),
			)
		}
	} else {
		appLogger.Warn("no bot token configured, webhook ingestion disabled")
	}

	var store filestore.Store
	if cfg.Storage.Enabled {
		localStore, err := filestore.NewLocalStore(cfg.Storage.Dir, cfg.Storage.PublicBaseURL)
		if err != nil {
			appLogger.Fatal("failed to init file store", zap.Error(err))
		}
		store = localStore
	}

	groupRepo := repositories.NewGroupRepository(postgres)
	userRepo := repositories.NewUserRepository(postgres)
	membershipRepo := repositories.NewMembershipRepository(postgres)
	messageRepo := repositories.NewMessageRepository(postgres)
	attachmentRepo := repositories.NewAttachmentRepository(postgres)
	analyticsRepo := repositories.NewAnalyticsRepository(postgres)

	registryService := services.NewRegistryService(groupRepo, userRepo, api, cfg.Telegram.LocalDomain, appLogger.Logger)
	analyticsService := services.NewAnalyticsService(analyticsRepo, appLogger.Logger)
	attachmentService := services.NewAttachmentService(attachmentRepo, api, store, pool, appLogger.Logger)
	syncService := services.NewSyncService(groupRepo, api, appLogger.Logger)
	statsService := services.NewStatsService(groupRepo, userRepo, messageRepo, attachmentRepo, analyticsRepo)

	var ingestService *services.IngestService
	if api != nil {
		ingestService = services.NewIngestService(
			postgres,
			registryService,
			userRepo,
			groupRepo,
			membershipRepo,
			messageRepo,
			attachmentService,
			analyticsService,
			api,
			botID,
			appLogger.Logger,
		)
	}

	webhookHandler := handlers.NewWebhookHandler(ingestService, api, cfg.Telegram.WebhookSecret, redisClient, appLogger.Logger)
	groupHandler := handlers.NewGroupHandler(groupRepo, membershipRepo, syncService, appLogger.Logger)
	messageHandler := handlers.NewMessageHandler(messageRepo, appLogger.Logger)
	mediaHandler := handlers.NewMediaHandler(attachmentRepo, api, appLogger.Logger)
	statsHandler := handlers.NewStatsHandler(statsService, analyticsRepo, appLogger.Logger)

	var limiter ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.NewFixedWindowLimiter(redisClient, appLogger.Logger, cfg.RateLimit.Fallback)
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())

	routers.SetupRoutes(r, cfg, appLogger,
		webhookHandler,
		groupHandler,
		messageHandler,
		mediaHandler,
		statsHandler,
		limiter,
	)

	appLogger.Info("starting server", zap.Int("port", cfg.Server.Port))
	if err := r.Run(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
		appLogger.Fatal("server exited", zap.Error(err))
	}
}
