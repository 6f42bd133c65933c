// Package handlers contains the Gin request handlers of the admin API and
// the public render endpoints.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"modbox/backend/internal/deletion"
	"modbox/backend/internal/importer"
	"modbox/backend/internal/store"
)

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// abortWithError maps the service error taxonomy onto HTTP responses.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, deletion.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to delete"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, deletion.ErrVerificationFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case errors.Is(err, importer.ErrMissingCategoryColumn):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
