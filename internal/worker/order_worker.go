package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
)

type disposition int

const (
	ack disposition = iota
	requeue
	deadLetter
)

var errOrderNotPaid = errors.New("order is not paid")

// OrderWorker consumes order.paid events and takes the ordered quantities
// out of stock, once per order.
type OrderWorker struct {
	channel     *amqp.Channel
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	seen        IdempotencyStore
	log         *slog.Logger
	done        chan struct{}
}

func NewOrderWorker(
	ch *amqp.Channel,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	seen IdempotencyStore,
	log *slog.Logger,
) *OrderWorker {
	return &OrderWorker{
		channel:     ch,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		seen:        seen,
		log:         log,
		done:        make(chan struct{}),
	}
}

func (w *OrderWorker) Start(ctx context.Context) error {
	if err := w.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	msgs, err := w.channel.Consume(orderPaidQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					w.log.Warn("delivery channel closed")
					return
				}
				w.settle(msg, w.handle(ctx, msg.Body))
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order worker started", "queue", orderPaidQueue)
	return nil
}

func (w *OrderWorker) Stop() { close(w.done) }

func (w *OrderWorker) settle(msg amqp.Delivery, d disposition) {
	var err error
	switch d {
	case ack:
		err = msg.Ack(false)
	case requeue:
		err = msg.Nack(false, true)
	case deadLetter:
		err = msg.Nack(false, false)
	}
	if err != nil {
		w.log.Error("settle delivery", "error", err)
	}
}

func (w *OrderWorker) handle(ctx context.Context, body []byte) disposition {
	var msg model.OrderPaidMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.OrderID == uuid.Nil {
		w.log.Error("malformed order paid message", "error", err)
		return deadLetter
	}

	log := w.log.With("order_id", msg.OrderID, "reference", msg.Reference)

	key := "order_fulfilled:" + msg.OrderID.String()
	done, err := w.seen.Seen(ctx, key)
	if err != nil {
		log.Error("check idempotency key", "error", err)
		return requeue
	}
	if done {
		log.Info("order already fulfilled, skipping")
		return ack
	}

	claimed, err := w.fulfil(ctx, msg.OrderID)
	if err != nil {
		log.Error("fulfil order failed", "error", err)
		return deadLetter
	}

	if err := w.seen.Mark(ctx, key); err != nil {
		log.Error("set idempotency key", "error", err)
	}
	if !claimed {
		log.Info("order already fulfilled, skipping")
		return ack
	}
	log.Info("order fulfilled")
	return ack
}

// fulfil claims the order and decrements stock for every item in one
// transaction, so a redelivery after a crash finds the order claimed and
// changes nothing. It reports false when the order was already fulfilled.
// Stock may go negative: payment has already been taken, so the sale stands.
func (w *OrderWorker) fulfil(ctx context.Context, orderID uuid.UUID) (claimed bool, err error) {
	order, err := w.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return false, fmt.Errorf("order not found: %s", orderID)
	}
	if !order.IsPaid() {
		return false, errOrderNotPaid
	}
	if order.FulfilledAt != nil {
		return false, nil
	}

	tx, err := w.orderRepo.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil || !claimed {
			_ = tx.Rollback(ctx)
		}
	}()

	claimed, err = w.orderRepo.MarkFulfilled(ctx, tx, orderID)
	if err != nil || !claimed {
		return false, err
	}

	for _, item := range order.Items {
		if err = w.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return false, fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}
