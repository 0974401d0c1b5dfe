package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/paystack"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/service"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	paymentService PaymentService
	log            *slog.Logger
}

func NewWebhookHandler(paymentService PaymentService, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{paymentService: paymentService, log: log}
}

// Paystack signs the exact bytes it sends, so the body is read raw and never
// rebound through a struct before verification.
func (h *WebhookHandler) Paystack(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	err = h.paymentService.HandleWebhook(c.Request.Context(), body, c.GetHeader(paystack.SignatureHeader))
	if errors.Is(err, service.ErrInvalidSignature) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	if err != nil {
		h.log.Error("webhook handling failed", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
