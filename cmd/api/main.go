package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/config"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/database"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/delivery"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/handler"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/paystack"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/service"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	if cfg.Paystack.SecretKey == "" {
		log.Error("PAYSTACK_SECRET_KEY is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	if cfg.DB.AutoMigrate {
		if err := database.MigrateUp(cfg.DB, log); err != nil {
			log.Error("migrate database", "error", err)
			os.Exit(1)
		}
	}
	dbPool, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	fees, err := delivery.NewFeeTable(cfg.Checkout.DeliveryFees)
	if err != nil {
		log.Error("parse delivery fees", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	categoryRepo := repository.NewCategoryRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	analyticsRepo := repository.NewAnalyticsRepository(dbPool)

	gateway := paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.Timeout)
	publisher := worker.NewPublisher(amqpConn.Channel)
	defer publisher.Close()

	// Services
	services := handler.Services{
		Auth:     service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.AdminRegistrationKey),
		Category: service.NewCategoryService(categoryRepo),
		Product:  service.NewProductService(productRepo, categoryRepo, redisClient, log),
		Cart:     service.NewCartService(cartRepo, productRepo),
		Checkout: service.NewCheckoutService(cartRepo, orderRepo, userRepo, gateway, fees,
			cfg.Paystack.CallbackURL, log),
		Payment:   service.NewPaymentService(orderRepo, gateway, publisher, cfg.Paystack.SecretKey, log),
		Order:     service.NewOrderService(orderRepo),
		Analytics: service.NewAnalyticsService(analyticsRepo),
		Checks: map[string]handler.Check{
			"postgres": dbPool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			"rabbitmq": func(context.Context) error {
				if amqpConn.IsClosed() {
					return amqp.ErrClosed
				}
				return nil
			},
		},
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(services, cfg.JWT.Secret, cfg.Session, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}
	log.Info("server stopped")
}
