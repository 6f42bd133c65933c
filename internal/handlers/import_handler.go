package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"modbox/backend/internal/auditlog"
	"modbox/backend/internal/importer"
	"modbox/backend/internal/middleware"
	"modbox/backend/internal/models"
)

type ImportHandler struct {
	Importer *importer.Importer
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// DiffResponse is shown to the operator for confirmation before any write.
type DiffResponse struct {
	Delimiter          string   `json:"delimiter"`
	RowCount           int      `json:"rowCount"`
	ExistingCategories int      `json:"existingCategories"`
	NewCategories      []string `json:"newCategories"`
}

// Diff parses the uploaded CSV and compares it against the module's current
// categories without writing anything.
func (h *ImportHandler) Diff(c *gin.Context) {
	sheet, ok := h.parseUpload(c)
	if !ok {
		return
	}
	modulePath := models.ModulePath(c.Param("productId"), c.Param("moduleId"))
	diff, err := h.Importer.Diff(c.Request.Context(), modulePath, sheet)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, DiffResponse{
		Delimiter:          string(sheet.Delimiter),
		RowCount:           diff.RowCount,
		ExistingCategories: diff.ExistingCount(),
		NewCategories:      diff.NewCategories,
	})
}

// Commit re-parses the file, re-diffs against current state, and writes the
// new categories and objects in one batch.
func (h *ImportHandler) Commit(c *gin.Context) {
	sheet, ok := h.parseUpload(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	moduleID := c.Param("moduleId")
	modulePath := models.ModulePath(c.Param("productId"), moduleID)

	diff, err := h.Importer.Diff(ctx, modulePath, sheet)
	if err != nil {
		abortWithError(c, err)
		return
	}
	result, err := h.Importer.Commit(ctx, modulePath, sheet, diff)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.Audit.Append(ctx, middleware.UID(ctx), models.ActionImportCSV, moduleID, c.Param("productId")); err != nil {
		h.Log.Warn("audit append failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) parseUpload(c *gin.Context) (*importer.Sheet, bool) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV file is required"})
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read CSV file"})
		return nil, false
	}
	sheet, err := importer.Parse(data)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return sheet, true
}
