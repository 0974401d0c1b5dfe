package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/service"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by the request DTOs to
// gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("notblank", validators.NotBlank)
		}
	})
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{service.ErrEmptyCart, http.StatusBadRequest},
	{service.ErrInvalidQuantity, http.StatusBadRequest},
	{service.ErrInvalidAction, http.StatusBadRequest},
	{service.ErrInvalidStatus, http.StatusBadRequest},

	{service.ErrAuthRequired, http.StatusUnauthorized},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidSignature, http.StatusUnauthorized},

	{service.ErrOrderAccessDenied, http.StatusForbidden},
	{service.ErrStaffOnly, http.StatusForbidden},

	{service.ErrProductNotFound, http.StatusNotFound},
	{service.ErrCartItemNotFound, http.StatusNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound},
	{service.ErrCategoryNotFound, http.StatusNotFound},
	{service.ErrUserNotFound, http.StatusNotFound},

	{service.ErrCartCheckedOut, http.StatusConflict},
	{service.ErrUserAlreadyExists, http.StatusConflict},
	{service.ErrCategoryExists, http.StatusConflict},
	{service.ErrOrderAlreadyPaid, http.StatusConflict},
	{service.ErrOrderNotPending, http.StatusConflict},

	{service.ErrPaymentNotSuccessful, http.StatusBadGateway},
}

// writeError maps a service error to its HTTP response. Anything unknown is
// logged and reported as a bare 500.
func writeError(c *gin.Context, log *slog.Logger, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body := gin.H{"error": verr.Error()}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	var gwErr *service.GatewayError
	if errors.As(err, &gwErr) {
		body := gin.H{"error": gwErr.Message}
		if gwErr.OrderID != uuid.Nil {
			body["order_id"] = gwErr.OrderID
		}
		c.JSON(http.StatusBadGateway, body)
		return
	}

	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			c.JSON(s.status, gin.H{"error": s.err.Error()})
			return
		}
	}

	log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " ID"})
		return uuid.Nil, false
	}
	return id, true
}
