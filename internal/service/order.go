package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
)

type OrderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// List returns every order for staff and the caller's own orders otherwise.
func (s *OrderService) List(ctx context.Context, auth model.AuthContext) ([]model.Order, error) {
	if !auth.Authenticated() {
		return nil, ErrAuthRequired
	}
	var owner *uuid.UUID
	if !auth.IsStaff {
		id := auth.UserID
		owner = &id
	}
	orders, err := s.orderRepo.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, auth model.AuthContext, orderID uuid.UUID) (*model.Order, error) {
	if !auth.Authenticated() {
		return nil, ErrAuthRequired
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !auth.CanViewOrder(order) {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

// UpdateStatus lets staff overwrite an order's status. Paid is reserved for
// payment reconciliation.
func (s *OrderService) UpdateStatus(ctx context.Context, auth model.AuthContext, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	if !auth.IsStaff {
		return nil, ErrStaffOnly
	}
	if !status.Valid() || status == model.OrderStatusPaid {
		return nil, ErrInvalidStatus
	}
	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
