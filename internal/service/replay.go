package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
)

// FulfilmentReplayer republishes order.paid for paid orders whose stock was
// never taken, for example because the broker was down when they were paid.
// The worker skips orders it has already fulfilled, so a replay is harmless.
type FulfilmentReplayer struct {
	orderRepo repository.OrderRepository
	publisher EventPublisher
	logger    *slog.Logger
}

func NewFulfilmentReplayer(orderRepo repository.OrderRepository, publisher EventPublisher, logger *slog.Logger) *FulfilmentReplayer {
	return &FulfilmentReplayer{orderRepo: orderRepo, publisher: publisher, logger: logger}
}

// Replay publishes up to limit orders paid more than grace ago, oldest first,
// and returns how many were published. Orders paid within grace are left to
// the live event.
func (r *FulfilmentReplayer) Replay(ctx context.Context, grace time.Duration, limit int) (int, error) {
	orders, err := r.orderRepo.ListUnfulfilled(ctx, time.Now().Add(-grace), limit)
	if err != nil {
		return 0, fmt.Errorf("list unfulfilled orders: %w", err)
	}

	published := 0
	for i := range orders {
		order := &orders[i]
		reference := ""
		if order.PaystackReference != nil {
			reference = *order.PaystackReference
		}
		if err := r.publisher.PublishOrderPaid(ctx, orderPaidMessage(order, reference)); err != nil {
			return published, fmt.Errorf("republish order %s: %w", order.ID, err)
		}
		published++
	}
	if published > 0 {
		r.logger.Info("republished unfulfilled orders", "count", published)
	}
	return published, nil
}
