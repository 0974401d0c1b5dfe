package handler

import (
	"github.com/AdejareAyomikun/doublejoy-backend/internal/dto"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
)

func toCartResponse(cart *model.Cart) dto.CartResponse {
	items := make([]dto.CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, dto.CartItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price,
			Quantity:    item.Quantity,
		})
	}
	return dto.CartResponse{ID: cart.ID, Items: items, Total: cart.Total()}
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	return dto.OrderResponse{
		ID:                o.ID,
		UserID:            o.UserID,
		Email:             o.Email,
		Address:           o.Address,
		City:              o.City,
		State:             o.State,
		Status:            o.Status,
		TotalAmount:       o.TotalAmount,
		DeliveryFee:       o.DeliveryFee,
		PaystackReference: o.PaystackReference,
		PaidAt:            o.PaidAt,
		Items:             items,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}
