package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gau-id-api/internal/auth"
	"github.com/noah-isme/gau-id-api/internal/config"
	"github.com/noah-isme/gau-id-api/internal/database"
	"github.com/noah-isme/gau-id-api/internal/handler"
	"github.com/noah-isme/gau-id-api/internal/middleware"
	"github.com/noah-isme/gau-id-api/internal/observability"
	"github.com/noah-isme/gau-id-api/internal/repository"
	"github.com/noah-isme/gau-id-api/internal/router"
	"github.com/noah-isme/gau-id-api/internal/security"
	"github.com/noah-isme/gau-id-api/internal/service"
	"github.com/noah-isme/gau-id-api/internal/validation"
	cloud "github.com/noah-isme/gau-id-api/pkg/cloudinary"
	"github.com/noah-isme/gau-id-api/pkg/mailer"
)

const bodyLimit = 10 * 1024 * 1024

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg)

	db, err := database.Connect(cfg.DatabaseURL, cfg.IsDevelopment() && cfg.LogLevel == "debug")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, "idview-api")
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis disabled; lockout counters and token denylist are process local")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	var counters security.CounterStore = security.NewMemoryStore()
	if redisClient != nil {
		counters = security.NewRedisStore(redisClient, "idview")
	}

	var photos service.PhotoUploader
	if cfg.CloudinaryCloudName != "" {
		store, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		photos = store
	} else {
		logger.Warn().Msg("cloudinary not configured; photo uploads are disabled")
	}

	validate := validation.New()
	tokens := auth.NewTokenManager(auth.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Issuer:        cfg.JWTIssuer,
	})
	lockout := security.NewLockout(counters, security.LockoutPolicy{
		MaxAttempts:    cfg.LoginMaxAttempts,
		AccountLockout: cfg.AccountLockout,
		AddressLockout: cfg.AddressLockout,
	})
	denylist := security.NewDenylist(counters)

	accountRepo := repository.NewAccountRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, announcementRepo, service.NotificationDeps{
		Redis:       redisClient,
		NATS:        natsConn,
		ChannelBase: cfg.NotificationChannel,
		Mailer:      newMailer(cfg, logger),
	}, logger)
	authService := service.NewAuthService(accountRepo, tokens, lockout, denylist, validate, activityService, notificationService, logger)
	studentService := service.NewStudentService(accountRepo, applicationRepo, photos, validate, cfg.PhotoMaxBytes, logger)
	reviewService := service.NewReviewService(accountRepo, applicationRepo, validate, activityService, notificationService, logger)
	adminStudentService := service.NewAdminStudentService(accountRepo, applicationRepo, activityRepo, activityService, logger)
	announcementService := service.NewAnnouncementService(announcementRepo, redisClient, cfg.AnnouncementCacheTTL, validate, activityService, logger)
	settingsService := service.NewSettingsService(settingRepo, validate, activityService, logger)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	seeder := service.NewSeedService(accountRepo, announcementRepo, service.SeedConfig{
		AdminName:           cfg.BootstrapAdminName,
		AdminRegNumber:      cfg.BootstrapAdminReg,
		AdminEmail:          cfg.BootstrapAdminEmail,
		AdminPassword:       cfg.BootstrapAdminPassword,
		WelcomeAnnouncement: cfg.IsDevelopment(),
	}, logger)
	if _, err := seeder.Bootstrap(rootCtx); err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap database")
	}
	notificationService.Start(rootCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    bodyLimit,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:          handler.NewAuthHandler(authService, logger),
		StudentHandler:       handler.NewStudentHandler(studentService, logger),
		NotificationHandler:  handler.NewNotificationHandler(notificationService, logger, 15*time.Second),
		AdminReviewHandler:   handler.NewAdminReviewHandler(reviewService, logger),
		AdminStudentHandler:  handler.NewAdminStudentHandler(adminStudentService, logger),
		AdminActivityHandler: handler.NewAdminActivityHandler(activityService, logger),
		AnnouncementHandler:  handler.NewAnnouncementHandler(announcementService, logger),
		SettingsHandler:      handler.NewSettingsHandler(settingsService, logger),
		JWTMiddleware:        middleware.JWTProtected(tokens, denylist),
		MetricsHandler:       observability.MetricsHandler(nil),
		HealthProbes:         healthProbes(db, redisClient, natsConn),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Str("env", cfg.AppEnv).Msg("starting server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()
}

func newMailer(cfg config.Config, logger zerolog.Logger) mailer.Mailer {
	if cfg.MailProvider == "sendgrid" {
		return mailer.NewSendGridMailer(cfg.SendGridAPIKey, mailer.Sender{Name: cfg.MailFromName, Address: cfg.MailFromAddress}, cfg.AppName)
	}
	return mailer.NewConsoleMailer(logger)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
