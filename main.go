package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	commonlog "github.com/drme990/manasik-v2-sub001/common/logger"
	commonmw "github.com/drme990/manasik-v2-sub001/common/middleware"
	"github.com/drme990/manasik-v2-sub001/controllers"
	"github.com/drme990/manasik-v2-sub001/database"
	"github.com/drme990/manasik-v2-sub001/middleware"
	"github.com/drme990/manasik-v2-sub001/models"
	aws_pkg "github.com/drme990/manasik-v2-sub001/pkg/aws"
	"github.com/drme990/manasik-v2-sub001/providers"
	"github.com/drme990/manasik-v2-sub001/repository"
	"github.com/drme990/manasik-v2-sub001/routes"
	"github.com/drme990/manasik-v2-sub001/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "manasik"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	// --- AWS setup (non-fatal outside production) ---
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(context.Background())

	var sink io.Writer
	if awsErr == nil && cfg.CloudWatchLogGroup != "" {
		if cwl, err := aws_pkg.NewCloudWatchLogsClient(context.Background(), awsCfg, cfg.CloudWatchLogGroup, serviceName); err == nil {
			sink = cwl
		} else {
			log.Printf("CloudWatch Logs sink disabled: %v", err)
		}
	}

	logger, err := commonlog.New(cfg.Env, sink)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	var snsClient aws_pkg.SNSPublisher
	var metricsClient *aws_pkg.MetricsClient
	if awsErr != nil {
		logger.Warn("AWS config unavailable, events and metrics disabled", zap.Error(awsErr))
	} else {
		snsClient = aws_pkg.NewSNSClient(awsCfg)
		metricsClient = aws_pkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)
	}

	// --- Stores ---
	mongo, err := database.ConnectMongo(cfg.MongoURI, cfg.MongoDB, logger)
	if err != nil {
		logger.Fatal("MongoDB connection failed", zap.Error(err))
	}
	indexCtx, cancelIdx := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.EnsureIndexes(indexCtx, mongo.DB); err != nil {
		logger.Fatal("Index setup failed", zap.Error(err))
	}
	cancelIdx()

	var rateCache repository.RateCache
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, rate cache disabled", zap.Error(err))
		} else {
			rateCache = repository.NewRedisRateCache(redisClient)
		}
	}

	// --- Dependency injection ---
	currencies := models.NewCurrencySet(cfg.SupportedCurrencies)

	couponRepo := repository.NewMongoCouponRepository(mongo.DB)
	orderRepo := repository.NewMongoOrderRepository(mongo.DB)
	referralRepo := repository.NewMongoReferralRepository(mongo.DB)
	activityRepo := repository.NewMongoActivityRepository(mongo.DB)
	rateStore := repository.NewMongoExchangeRateStore(mongo.DB)

	activityService := services.NewActivityService(activityRepo, logger)
	couponService := services.NewCouponService(couponRepo, activityService, snsClient, cfg.EventsSNSTopicARN, currencies, metricsClient, logger)
	currencyService := services.NewCurrencyService(
		providers.NewExchangeRateAPIProvider(cfg.ExchangeRateAPIURL, cfg.ExchangeRateAPIKey),
		rateCache, rateStore, currencies, cfg.RateCacheTTL, activityService, metricsClient, logger,
	)
	referralService := services.NewReferralService(orderRepo, referralRepo, activityService, logger)
	paymentService := services.NewPaymentService(
		providers.NewPaymobVerifier(cfg.PaymobHMACSecret),
		orderRepo, couponService, activityService, snsClient, cfg.EventsSNSTopicARN, metricsClient, logger,
	)

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(commonlog.RequestID())
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORS(cfg.AllowedOrigins))
	r.Use(commonmw.Metrics(metricsClient, serviceName))
	r.Use(commonmw.RequestLogger(logger))
	r.Use(commonmw.Timeout(cfg.RequestTimeout))

	routes.RegisterRoutes(r, routes.Controllers{
		Coupons:    controllers.NewCouponController(couponService),
		Currency:   controllers.NewCurrencyController(currencyService),
		Referrals:  controllers.NewReferralController(referralService),
		Payments:   controllers.NewPaymentController(paymentService),
		Activities: controllers.NewActivityController(activityService),
	}, middleware.NewTokenParser(cfg.JWTSecret), routes.Options{
		ValidateRatePerMinute: cfg.ValidateRatePerMinute,
		ValidateRateBurst:     cfg.ValidateRateBurst,
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Manasik service started", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}
	if err := mongo.Close(); err != nil {
		logger.Error("MongoDB close error", zap.Error(err))
	}

	logger.Info("Manasik service stopped gracefully")
}
