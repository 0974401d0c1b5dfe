package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/dto"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/middleware"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
)

type CartHandler struct {
	cartService     CartService
	checkoutService CheckoutService
	paymentService  PaymentService
	log             *slog.Logger
}

func NewCartHandler(cartService CartService, checkoutService CheckoutService, paymentService PaymentService, log *slog.Logger) *CartHandler {
	return &CartHandler{cartService: cartService, checkoutService: checkoutService, paymentService: paymentService, log: log}
}

func (h *CartHandler) respond(c *gin.Context, status int, cart *model.Cart, err error) {
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(status, toCartResponse(cart))
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.cartService.GetCart(c.Request.Context(), middleware.GetCartOwner(c))
	h.respond(c, http.StatusOK, cart, err)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	cart, err := h.cartService.AddItem(c.Request.Context(), middleware.GetCartOwner(c), req.ProductID, quantity)
	h.respond(c, http.StatusCreated, cart, err)
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req dto.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cart, err := h.cartService.AdjustItem(c.Request.Context(), middleware.GetCartOwner(c), req.ItemID, req.Action)
	h.respond(c, http.StatusOK, cart, err)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	var req dto.RemoveCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cart, err := h.cartService.RemoveItem(c.Request.Context(), middleware.GetCartOwner(c), req.ItemID)
	h.respond(c, http.StatusOK, cart, err)
}

func (h *CartHandler) Clear(c *gin.Context) {
	cart, err := h.cartService.Clear(c.Request.Context(), middleware.GetCartOwner(c))
	h.respond(c, http.StatusOK, cart, err)
}

// Merge moves the anonymous session cart into the signed-in user's cart.
func (h *CartHandler) Merge(c *gin.Context) {
	cart, err := h.cartService.Merge(c.Request.Context(), middleware.GetSessionID(c), middleware.GetUserID(c))
	h.respond(c, http.StatusOK, cart, err)
}

func (h *CartHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.checkoutService.Checkout(c.Request.Context(), middleware.GetAuth(c), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CartHandler) VerifyPayment(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		return
	}
	resp, err := h.paymentService.Verify(c.Request.Context(), middleware.GetAuth(c), reference)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
