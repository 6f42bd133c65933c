package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"modbox/backend/internal/auditlog"
	"modbox/backend/internal/middleware"
	"modbox/backend/internal/store"
	"modbox/backend/internal/userinfo"
)

type LogHandler struct {
	Audit  *auditlog.Logger
	Grants *userinfo.Service
}

// Day returns the audit bucket of one date (YYYY-MM-DD).
func (h *LogHandler) Day(c *gin.Context) {
	if !h.Grants.IsSuperadmin(middleware.UID(c.Request.Context())) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Superadmin access required"})
		return
	}
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}
	bucket, err := h.Audit.Day(c.Request.Context(), date)
	if err == store.ErrNotFound {
		c.JSON(http.StatusOK, gin.H{"date": date, "logs": []interface{}{}})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch log"})
		return
	}
	c.JSON(http.StatusOK, bucket)
}
