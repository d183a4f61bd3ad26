package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nadin-revendedoras/config"
	"nadin-revendedoras/handlers"
	"nadin-revendedoras/middleware"
	"nadin-revendedoras/models"
	"nadin-revendedoras/services"
	"nadin-revendedoras/utils"
	"nadin-revendedoras/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", true)
		log.Fatal().Err(err).Msg("❌ invalid configuration")
	}
	utils.InitLogger(cfg.LogLevel, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormLogLevel := logger.Warn
	if cfg.IsDevelopment() {
		gormLogLevel = logger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get database handle")
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	cache := services.NewCatalogCache(db)
	gamification := services.NewGamificationService(db)
	ranking := services.NewRankingService(db)
	orders := services.NewOrderService(db, cache, gamification)

	if err := gamification.SeedBadges(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed badges")
	}

	source := workers.NewTiendanubeClient(workers.TiendanubeConfig{
		BaseURL:       cfg.Tiendanube.BaseURL,
		StoreID:       cfg.Tiendanube.StoreID,
		AccessToken:   cfg.Tiendanube.AccessToken,
		UserAgent:     cfg.Tiendanube.UserAgent,
		PerPage:       cfg.Tiendanube.PerPage,
		RatePerSecond: cfg.Tiendanube.RatePerSecond,
		MaxRetries:    cfg.Tiendanube.MaxRetries,
		Timeout:       cfg.Tiendanube.Timeout,
	})
	if cfg.Tiendanube.StoreID == "" || cfg.Tiendanube.AccessToken == "" {
		log.Warn().Msg("⚠️  TIENDANUBE_STORE_ID or TIENDANUBE_ACCESS_TOKEN not set, catalog sync will fail")
	}

	var lock services.SyncLocker
	if cfg.Sync.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Sync.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()
		lock = services.NewRedisSyncLock(redisClient, "revendedoras:catalog-sync", cfg.Sync.LockTTL)
		log.Info().Msg("🔒 catalog sync uses the Redis lock")
	}

	syncService := services.NewCatalogSyncService(cache, source, lock)
	if cfg.R2.Enabled() {
		archiver, err := utils.NewR2Archiver(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize R2 client")
		}
		syncService.Archiver = archiver
		log.Info().Str("bucket", cfg.R2.Bucket).Msg("🗄️ catalog snapshots archived to R2")
	}

	if cfg.Sync.Interval > 0 {
		scheduler, err := services.StartCatalogSyncScheduler(syncService, cfg.Sync.Interval, cfg.Sync.Timeout)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start catalog sync scheduler")
		}
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				log.Warn().Err(err).Msg("scheduler shutdown")
			}
		}()
	} else {
		log.Info().Msg("⏸️ periodic catalog sync disabled")
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // manual sync runs inside the request
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Origins(), ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Cron-Secret",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	app.Use(middleware.MetricsMiddleware())

	// 🔐 when configured, only Gateway requests are allowed (health and metrics excepted)
	if cfg.GatewayToken != "" {
		app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken, "/healthz", "/metrics"))
	} else {
		log.Warn().Msg("⚠️  GATEWAY_TOKEN not set, gateway authentication disabled")
	}

	handlers.SetupHealthRoutes(app, db, cache)
	handlers.SetupSyncRoutes(app, syncService, cfg.CronSecret)
	handlers.SetupCatalogRoutes(app, cache)
	handlers.SetupProgressionRoutes(app, gamification, ranking)
	handlers.SetupOrderRoutes(app, orders)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("✅ server running")
	log.Info().Strs("origins", cfg.Origins()).Msg("✅ CORS configured")

	<-ctx.Done()
	log.Info().Msg("shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
