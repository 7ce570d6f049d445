package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/kursadbilgin/campaign-engine/internal/config"
	"github.com/kursadbilgin/campaign-engine/internal/content"
	"github.com/kursadbilgin/campaign-engine/internal/handler"
	"github.com/kursadbilgin/campaign-engine/internal/infra/postgresql"
	"github.com/kursadbilgin/campaign-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/campaign-engine/internal/infra/redis"
	"github.com/kursadbilgin/campaign-engine/internal/mailbox"
	"github.com/kursadbilgin/campaign-engine/internal/observability"
	"github.com/kursadbilgin/campaign-engine/internal/provider"
	"github.com/kursadbilgin/campaign-engine/internal/queue"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"github.com/kursadbilgin/campaign-engine/internal/service"
	"github.com/kursadbilgin/campaign-engine/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.SendRatePerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer mq.Close()

	publisher := queue.NewRabbitMQPublisher(mq)
	consumer := queue.NewRabbitMQConsumer(mq, cfg.DispatchConcurrency, logger)

	metrics := observability.NewMetrics()

	userRepo := repository.NewGormUserRepo(db)
	campaignRepo := repository.NewGormCampaignRepo(db)
	templateRepo := repository.NewGormTemplateRepo(db)
	recipientRepo := repository.NewGormRecipientRepo(db)
	trackingRepo := repository.NewGormTrackingRepo(db)

	instrumentor := content.NewInstrumentor(cfg.PublicBaseURL)
	mailTransport := provider.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, logger)

	userService, err := service.NewUserService(userRepo, logger)
	if err != nil {
		logger.Fatal("user service initialization failed", zap.Error(err))
	}

	campaignService, err := service.NewCampaignService(campaignRepo, trackingRepo, publisher, logger)
	if err != nil {
		logger.Fatal("campaign service initialization failed", zap.Error(err))
	}

	recipientService, err := service.NewRecipientService(recipientRepo, campaignRepo, logger)
	if err != nil {
		logger.Fatal("recipient service initialization failed", zap.Error(err))
	}

	templateService, err := service.NewTemplateService(templateRepo, campaignRepo, logger)
	if err != nil {
		logger.Fatal("template service initialization failed", zap.Error(err))
	}

	dashboardService, err := service.NewDashboardService(campaignRepo, recipientRepo, trackingRepo, logger)
	if err != nil {
		logger.Fatal("dashboard service initialization failed", zap.Error(err))
	}

	trackingService, err := service.NewTrackingService(trackingRepo, cfg.FallbackRedirectURL, logger)
	if err != nil {
		logger.Fatal("tracking service initialization failed", zap.Error(err))
	}
	trackingService.SetMetrics(metrics)

	dispatchService, err := service.NewDispatchService(
		campaignRepo,
		templateRepo,
		recipientRepo,
		userRepo,
		trackingRepo,
		instrumentor,
		mailTransport,
		rateLimiter,
		consumer,
		cfg.DispatchConcurrency,
		logger,
	)
	if err != nil {
		logger.Fatal("dispatch service initialization failed", zap.Error(err))
	}
	dispatchService.SetMetrics(metrics)

	mailboxReader := mailbox.NewPOP3Reader(
		cfg.MailboxHost,
		cfg.MailboxPort,
		cfg.MailboxUsername,
		cfg.MailboxPassword,
		cfg.MailboxTLS,
		logger,
	)

	replyScanner, err := service.NewReplyScanner(
		trackingRepo,
		mailboxReader,
		cfg.ReplyScanInterval(),
		cfg.ReplyLookback(),
		logger,
	)
	if err != nil {
		logger.Fatal("reply scanner initialization failed", zap.Error(err))
	}
	replyScanner.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		AppName:      "campaign-engine",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb, mq)
	if err := handler.RegisterUserRoutes(app, userService); err != nil {
		logger.Fatal("user routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterCampaignRoutes(app, campaignService); err != nil {
		logger.Fatal("campaign routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterRecipientRoutes(app, recipientService); err != nil {
		logger.Fatal("recipient routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterTemplateRoutes(app, templateService); err != nil {
		logger.Fatal("template routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterTrackingRoutes(app, trackingService); err != nil {
		logger.Fatal("tracking routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterDashboardRoutes(app, dashboardService); err != nil {
		logger.Fatal("dashboard routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterReplyRoutes(app, replyScanner); err != nil {
		logger.Fatal("reply routes registration failed", zap.Error(err))
	}

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metrics.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("campaign-engine api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		logger.Info("metrics endpoint started", zap.Int("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return dispatchService.Start(groupCtx)
	})

	g.Go(func() error {
		return replyScanner.Start(groupCtx)
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", zap.Error(err))
		}
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Fatal("campaign-engine exited with error", zap.Error(err))
	}

	logger.Info("campaign-engine stopped")
}
