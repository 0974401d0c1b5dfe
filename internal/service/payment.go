package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/dto"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/paystack"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
)

var (
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrPaymentNotSuccessful = errors.New("payment not successful")
)

// EventPublisher announces orders that have just been paid.
type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, msg model.OrderPaidMessage) error
}

// PaymentService reconciles payments reported by the gateway, either pushed
// through the webhook or pulled through Verify. Both paths converge on the
// same conditional update, so an order is marked paid once.
type PaymentService struct {
	orderRepo repository.OrderRepository
	gateway   PaymentGateway
	publisher EventPublisher
	secret    string
	logger    *slog.Logger
}

func NewPaymentService(
	orderRepo repository.OrderRepository,
	gateway PaymentGateway,
	publisher EventPublisher,
	secret string,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{orderRepo: orderRepo, gateway: gateway, publisher: publisher, secret: secret, logger: logger}
}

// HandleWebhook authenticates and applies a webhook delivery. Only a bad
// signature is reported; every other problem is logged and acknowledged so
// the gateway does not retry forever.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !paystack.ValidSignature(body, signature, s.secret) {
		s.logger.Warn("webhook rejected: bad signature")
		return ErrInvalidSignature
	}

	event, err := paystack.ParseEvent(body)
	if err != nil {
		s.logger.Warn("webhook ignored: malformed payload", "error", err)
		return nil
	}
	if event.Event != paystack.EventChargeSuccess {
		s.logger.Info("webhook ignored", "event", event.Event)
		return nil
	}
	if event.Data.Reference == "" {
		s.logger.Warn("webhook ignored: missing reference")
		return nil
	}

	order, err := s.markPaid(ctx, event.Data.Reference)
	if err != nil {
		s.logger.Error("webhook: mark paid failed", "reference", event.Data.Reference, "error", err)
		return nil
	}
	if order == nil {
		s.logger.Warn("webhook: unknown reference", "reference", event.Data.Reference)
	}
	return nil
}

// Verify asks the gateway for the outcome of reference and records it.
func (s *PaymentService) Verify(ctx context.Context, auth model.AuthContext, reference string) (*dto.VerifyPaymentResponse, error) {
	if !auth.Authenticated() {
		return nil, ErrAuthRequired
	}
	if reference == "" {
		return nil, invalid("reference", "is required")
	}

	order, err := s.orderRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !auth.CanViewOrder(order) {
		return nil, ErrOrderAccessDenied
	}
	if order.IsPaid() {
		return &dto.VerifyPaymentResponse{Message: "Payment successful", OrderID: order.ID}, nil
	}

	tx, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		s.logger.Error("payment verification failed", "order_id", order.ID, "reference", reference, "error", err)
		return nil, &GatewayError{OrderID: order.ID, Message: gatewayMessage(err), Err: err}
	}
	if !tx.Successful() {
		s.logger.Info("payment not successful", "order_id", order.ID, "reference", reference, "status", tx.Status)
		return nil, ErrPaymentNotSuccessful
	}

	paid, err := s.markPaid(ctx, reference)
	if err != nil {
		return nil, err
	}
	if paid == nil {
		return nil, ErrOrderNotFound
	}
	return &dto.VerifyPaymentResponse{Message: "Payment successful", OrderID: paid.ID}, nil
}

func (s *PaymentService) markPaid(ctx context.Context, reference string) (*model.Order, error) {
	order, transitioned, err := s.orderRepo.MarkPaid(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}
	if order == nil {
		return nil, nil
	}
	if !transitioned {
		if order.PaystackReference != nil && *order.PaystackReference != reference {
			// Paid on an older payment page as well; needs a manual refund.
			s.logger.Warn("second payment for a paid order",
				"order_id", order.ID, "reference", reference, "paid_reference", *order.PaystackReference)
		}
		return order, nil
	}

	s.logger.Info("order paid", "order_id", order.ID, "reference", reference)
	if s.publisher == nil {
		return order, nil
	}

	if err := s.publish(ctx, order, reference); err != nil {
		// The order stays unfulfilled until FulfilmentReplayer republishes it.
		s.logger.Error("publish order paid failed", "order_id", order.ID, "error", err)
	}
	return order, nil
}

func (s *PaymentService) publish(ctx context.Context, order *model.Order, reference string) error {
	return s.publisher.PublishOrderPaid(ctx, orderPaidMessage(order, reference))
}

func orderPaidMessage(order *model.Order, reference string) model.OrderPaidMessage {
	paidAt := time.Now().UTC()
	if order.PaidAt != nil {
		paidAt = *order.PaidAt
	}
	return model.OrderPaidMessage{OrderID: order.ID, Reference: reference, PaidAt: paidAt}
}
