package handlers

import (
	"net/http"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"modbox/backend/internal/auditlog"
	"modbox/backend/internal/deletion"
	"modbox/backend/internal/middleware"
	"modbox/backend/internal/models"
	"modbox/backend/internal/userinfo"
)

type ModuleHandler struct {
	FS     *firestore.Client
	Grants *userinfo.Service
	Audit  *auditlog.Logger
	Orch   *deletion.Orchestrator
	Log    *zap.Logger
}

type ModulePayload struct {
	Name        string              `json:"name" binding:"required"`
	Type        models.ModuleType   `json:"type" binding:"required"`
	Description string              `json:"description"`
	Settings    string              `json:"settings"`
	Center      *models.Coordinates `json:"center"`
	Privacy     string              `json:"privacy"`
	LogoURL     string              `json:"logoUrl"`
}

// Create adds a module of a registered type under a product.
func (h *ModuleHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	productID := c.Param("productId")
	uid := middleware.UID(ctx)

	allowed, err := h.Grants.CanCreateModules(ctx, uid)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to create modules"})
		return
	}

	var payload ModulePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	if !payload.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown module type: " + string(payload.Type)})
		return
	}
	if _, err := h.FS.Doc(models.ProductPath(productID)).Get(ctx); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	ref := h.FS.Collection(models.ModulesPath(productID)).NewDoc()
	module := models.Module{
		ID:          ref.ID,
		Name:        payload.Name,
		Type:        payload.Type,
		Description: payload.Description,
		Settings:    payload.Settings,
	}
	applyTypeFields(&module, payload)
	if _, err := ref.Set(ctx, module); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create module"})
		return
	}
	if err := h.Audit.Append(ctx, uid, models.ActionCreateModule, module.ID, productID); err != nil {
		h.Log.Warn("audit append failed", zap.Error(err))
	}
	c.JSON(http.StatusCreated, module)
}

// List returns the modules of a product.
func (h *ModuleHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	productID := c.Param("productId")

	modules := []models.Module{}
	iter := h.FS.Collection(models.ModulesPath(productID)).Documents(ctx)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch modules"})
			return
		}
		var module models.Module
		if err := snap.DataTo(&module); err != nil {
			continue
		}
		module.ID = snap.Ref.ID
		modules = append(modules, module)
	}
	c.JSON(http.StatusOK, modules)
}

// Get returns one module.
func (h *ModuleHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := h.FS.Doc(models.ModulePath(c.Param("productId"), c.Param("moduleId"))).Get(ctx)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Module not found"})
		return
	}
	var module models.Module
	if err := snap.DataTo(&module); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode module"})
		return
	}
	module.ID = snap.Ref.ID
	c.JSON(http.StatusOK, module)
}

// Update rewrites a module's editable settings. The type itself is fixed
// after creation; changing it would orphan the old type's subcollections.
func (h *ModuleHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	path := models.ModulePath(c.Param("productId"), c.Param("moduleId"))

	snap, err := h.FS.Doc(path).Get(ctx)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Module not found"})
		return
	}
	var module models.Module
	if err := snap.DataTo(&module); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode module"})
		return
	}

	var payload ModulePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	module.Name = payload.Name
	module.Description = payload.Description
	module.Settings = payload.Settings
	applyTypeFields(&module, payload)

	if _, err := h.FS.Doc(path).Set(ctx, module); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update module"})
		return
	}
	c.JSON(http.StatusOK, module)
}

// Delete tears the module down through the deletion orchestrator.
func (h *ModuleHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	err := h.Orch.DeleteModule(ctx, middleware.UID(ctx), c.Param("productId"), c.Param("moduleId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Module deleted successfully"})
}

// applyTypeFields writes the optional per-type settings only for the types
// that use them.
func applyTypeFields(module *models.Module, payload ModulePayload) {
	switch module.Type {
	case models.TypeKartenmodul:
		module.Center = payload.Center
	case models.TypeFormularModul:
		module.Privacy = payload.Privacy
	case models.TypeKontaktModul:
		module.LogoURL = payload.LogoURL
	}
}
