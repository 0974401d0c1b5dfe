package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService AnalyticsService
	log              *slog.Logger
}

func NewAnalyticsHandler(analyticsService AnalyticsService, log *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, log: log}
}

func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	resp, err := h.analyticsService.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
