package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awspkg "github.com/b2bconnect/commerce-backend/pkg/aws"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/controllers"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/database"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/kafka"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/metrics"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/middleware"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/routes"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/services"
	"github.com/b2bconnect/commerce-backend/services/common/auth"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/b2bconnect/commerce-backend/services/common/logger"
	commonmw "github.com/b2bconnect/commerce-backend/services/common/middleware"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "commerce-service"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		logger.Initialize("development")
		logger.Log.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// AWS is optional locally; every client below tolerates its absence.
	awsCfg, awsErr := awspkg.LoadAWSConfig(ctx)

	var cwLogs *awspkg.CloudWatchLogsClient
	if cfg.CloudWatch && awsErr == nil {
		cwLogs, err = awspkg.NewCloudWatchLogsClient(ctx, awsCfg, "", serviceName, true)
		if err != nil {
			cwLogs = nil
		}
	}
	if cwLogs != nil && cwLogs.IsEnabled() {
		logger.InitializeWithWriter(cfg.Environment, cwLogs)
	} else {
		logger.Initialize(cfg.Environment)
	}
	defer logger.Log.Sync()

	if awsErr != nil {
		logger.Log.Warn("AWS config unavailable, running without AWS integrations", zap.Error(awsErr))
	}

	auth.SetSecret(cfg.JWTSecret)
	apperrors.SetExposeDetails(!cfg.IsProduction())

	loc, err := time.LoadLocation(cfg.PriceTimezone)
	if err != nil {
		logger.Log.Fatal("Invalid price time zone", zap.Error(err))
	}

	// --- storage ---
	mongoClient, db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	store := repository.NewMongoStore(mongoClient, db)
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Log.Warn("Failed to ensure indexes", zap.Error(err))
	}

	var redisClient *redis.Client
	var idemStore middleware.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Log.Warn("Redis unavailable, idempotency keys disabled", zap.Error(err))
		} else {
			idemStore = database.NewRedisIdempotencyStore(redisClient)
		}
	}

	// --- events and metrics ---
	var producer *kafka.Producer
	var eventWriter services.EventWriter
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		eventWriter = producer
	}

	var snsPublisher awspkg.SNSPublisher
	var cwMetrics *awspkg.MetricsClient
	var storage services.ObjectStorage
	if awsErr == nil {
		if cfg.SNSTopicArn != "" {
			snsPublisher = awspkg.NewSNSClient(awsCfg)
		}
		if cfg.InvoiceBucket != "" {
			storage = awspkg.NewS3Client(awsCfg, cfg.InvoiceBucket)
		}
		cwMetrics = awspkg.NewMetricsClient(awsCfg, "", cfg.CloudWatch)
	}

	collector := metrics.New(serviceName, cwMetrics)
	publisher := services.NewOrderEventPublisher(eventWriter, snsPublisher, cfg.SNSTopicArn)

	// --- services ---
	resolver := services.NewResolver(store)
	ledger := services.NewPriceLedger(store.Prices(), time.Now, loc)
	engine := services.NewEngine(store, ledger,
		services.WithRecorder(collector),
		services.WithEvents(publisher),
	)
	drafts := services.NewDraftService(store, ledger, resolver,
		services.WithDraftRecorder(collector),
		services.WithDraftEvents(publisher),
	)
	carts := services.NewCartService(store, resolver)
	notifications := services.NewNotificationService(store)
	customers := services.NewCustomerService(store)
	invoices := services.NewInvoiceService(store, storage)
	sessions := services.NewSessionService(store.Businesses(), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// --- HTTP ---
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.RegisterValidators(); err != nil {
		logger.Log.Fatal("Failed to register validators", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(commonmw.RequestLogger(logger.Log))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(commonmw.RateLimitMiddleware(cfg.RateLimitPerMin, cfg.RateLimitBurst))
	r.Use(commonmw.Timeout(cfg.RequestTimeout))
	r.Use(collector.Middleware())
	r.Use(commonmw.MetricsMiddleware(cwMetrics, serviceName))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterRoutes(r, routes.Handlers{
		Cart:          controllers.NewCartController(carts, engine),
		Orders:        controllers.NewOrderController(engine, drafts, invoices, customers, resolver),
		Notifications: controllers.NewNotificationController(notifications, engine),
		Sessions:      controllers.NewSessionController(sessions),
		Metrics:       collector.Handler(),
		Idempotency:   idemStore,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Commerce service starting", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down commerce service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Log.Error("Failed to close Kafka producer", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Log.Error("Failed to close Redis", zap.Error(err))
		}
	}
	if err := database.Close(mongoClient); err != nil {
		logger.Log.Error("Failed to close MongoDB", zap.Error(err))
	}

	logger.Log.Info("Commerce service stopped gracefully")
}
