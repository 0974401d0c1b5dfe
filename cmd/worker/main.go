package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/config"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/database"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/service"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("component", "worker")

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dbPool, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

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

	orderRepo := repository.NewOrderRepository(dbPool)
	orderWorker := worker.NewOrderWorker(
		amqpCh,
		orderRepo,
		repository.NewProductRepository(dbPool),
		worker.NewRedisIdempotency(redisClient),
		log,
	)
	if err := orderWorker.Start(ctx); err != nil {
		log.Error("start order worker", "error", err)
		os.Exit(1)
	}

	// Orders paid while the broker was unreachable never got their event.
	publisher := worker.NewPublisher(amqpConn.Channel)
	defer publisher.Close()
	replayCtx, stopReplay := context.WithCancel(ctx)
	defer stopReplay()
	go worker.RunReplayLoop(replayCtx,
		service.NewFulfilmentReplayer(orderRepo, publisher, log),
		cfg.Fulfil.ReplayInterval, cfg.Fulfil.ReplayGrace, cfg.Fulfil.ReplayBatch, log)

	closed := amqpConn.NotifyClose(make(chan *amqp.Error, 1))
	lost := false
	select {
	case <-ctx.Done():
		log.Info("shutting down...")
	case err := <-closed:
		log.Error("RabbitMQ connection lost", "error", err)
		lost = true
	}
	stopReplay()
	orderWorker.Stop()
	log.Info("worker stopped")
	if lost {
		// Non-zero so the supervisor restarts us with a fresh connection.
		os.Exit(1)
	}
}
