package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"modbox/backend/internal/analytics"
)

type AnalyticsHandler struct {
	Service *analytics.Service
	Log     *zap.Logger
}

// Pageviews serves the dashboard's traffic numbers from the cached report.
func (h *AnalyticsHandler) Pageviews(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analytics is not configured"})
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	report, err := h.Service.Pageviews(c.Request.Context(), days)
	if err != nil {
		h.Log.Warn("pageviews query failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch analytics data"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Statistics serves the service-health snapshot.
func (h *AnalyticsHandler) Statistics(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analytics is not configured"})
		return
	}
	stats, err := h.Service.Statistics(c.Request.Context())
	if err != nil {
		h.Log.Warn("statistics query failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
