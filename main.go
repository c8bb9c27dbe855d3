package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"inflection-rewards/auth"
	"inflection-rewards/config"
	"inflection-rewards/handlers"
	"inflection-rewards/logging"
	"inflection-rewards/models"
	"inflection-rewards/services"
	"inflection-rewards/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := models.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("failed to access connection pool")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// uploads answer 503 until storage is configured
	var store utils.ObjectStore
	if cfg.StorageConfigured() {
		r2, err := utils.NewR2Store(ctx, utils.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			Bucket:          cfg.R2BucketName,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			log.WithError(err).Fatal("failed to initialize R2 client")
		}
		store = r2
	} else {
		log.Warn("⚠️  R2 storage not configured, uploads are disabled")
	}

	keys := auth.NewKeySet(cfg.DynamicJWKSURL, utils.NewHTTPClient(10*time.Second), cfg.JWKSFetchesPerMinute)
	tokens := auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	notifications := services.NewNotificationService(db, logging.Component(log, "notifications"))
	deps := handlers.Deps{
		Log:           log,
		Verifier:      auth.NewDynamicVerifier(keys),
		Tokens:        tokens,
		DB:            sqlDB,
		Access:        services.NewAccessService(db),
		Apps:          services.NewAppService(db, logging.Component(log, "apps")),
		Interactions:  services.NewInteractionService(db, logging.Component(log, "interactions")),
		Rewards:       services.NewRewardService(db, logging.Component(log, "rewards")),
		Categories:    services.NewCategoryService(db, logging.Component(log, "categories")),
		Users:         services.NewUserService(db, logging.Component(log, "users")),
		Notifications: notifications,
		Submissions:   services.NewSubmissionService(db, notifications, logging.Component(log, "submissions")),
		Uploads:       services.NewUploadService(db, store, cfg.UploadMaxBytes, logging.Component(log, "uploads")),
	}

	sched, err := notifications.StartCleanupScheduler(cfg.NotificationRetention())
	if err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}

	app := handlers.NewApp(handlers.ServerConfig{
		AllowedOrigins: cfg.Origins(),
		BodyLimit:      int(cfg.UploadMaxBytes) + 1<<20,
	}, deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("server error")
			stop()
		}
	}()

	log.Infof("✅ Server running on http://localhost:%s", cfg.Port)
	log.Infof("✅ CORS configured for origins: %v", cfg.Origins())
	log.Infof("✅ Identity keys from %s", cfg.DynamicJWKSURL)

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	if err := sched.Shutdown(); err != nil {
		log.WithError(err).Error("scheduler shutdown")
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Error("database close")
	}
}
