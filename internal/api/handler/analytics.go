package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/applytrack/internal/service"
)

// AnalyticsHandler serves the dashboard aggregates.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Stats handles GET /api/v1/stats.
func (h *AnalyticsHandler) Stats(c *gin.Context) {
	stats, err := h.analytics.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// TimeSeries handles GET /api/v1/analytics.
func (h *AnalyticsHandler) TimeSeries(c *gin.Context) {
	series, err := h.analytics.TimeSeries(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}
