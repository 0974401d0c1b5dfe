package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/dto"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/middleware"
)

type OrderHandler struct {
	orderService    OrderService
	checkoutService CheckoutService
	log             *slog.Logger
}

func NewOrderHandler(orderService OrderService, checkoutService CheckoutService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, checkoutService: checkoutService, log: log}
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.List(c.Request.Context(), middleware.GetAuth(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := dto.OrderListResponse{Orders: make([]dto.OrderResponse, 0, len(orders)), Total: len(orders)}
	for i := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}
	order, err := h.orderService.Get(c.Request.Context(), middleware.GetAuth(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// InitializePayment starts a new payment attempt for a pending order.
func (h *OrderHandler) InitializePayment(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}
	resp, err := h.checkoutService.InitializePayment(c.Request.Context(), middleware.GetAuth(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orderService.UpdateStatus(c.Request.Context(), middleware.GetAuth(c), id, req.Status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}
