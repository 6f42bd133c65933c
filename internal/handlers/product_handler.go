package handlers

import (
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"modbox/backend/internal/auditlog"
	"modbox/backend/internal/deletion"
	"modbox/backend/internal/middleware"
	"modbox/backend/internal/models"
	"modbox/backend/internal/userinfo"
)

type ProductHandler struct {
	FS     *firestore.Client
	Grants *userinfo.Service
	Audit  *auditlog.Logger
	Orch   *deletion.Orchestrator
	Log    *zap.Logger
}

type CreateProductPayload struct {
	Name string `json:"name" binding:"required"`
}

// Create adds a product with a URL-safe slug derived from its name.
func (h *ProductHandler) Create(c *gin.Context) {
	var payload CreateProductPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	uid := middleware.UID(c.Request.Context())
	if !h.Grants.IsSuperadmin(uid) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only superadmins may create products"})
		return
	}

	ref := h.FS.Collection(models.CollProducts).NewDoc()
	product := models.Product{
		ID:      ref.ID,
		Name:    payload.Name,
		Slug:    slug.Make(payload.Name),
		Created: time.Now().UTC(),
	}
	if _, err := ref.Set(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	if err := h.Audit.Append(c.Request.Context(), uid, models.ActionCreateProduct, product.ID, ""); err != nil {
		h.Log.Warn("audit append failed", zap.Error(err))
	}
	c.JSON(http.StatusCreated, product)
}

// List returns the products the caller's project scope covers.
func (h *ProductHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UID(ctx)

	products := []models.Product{}
	iter := h.FS.Collection(models.CollProducts).Documents(ctx)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		allowed, err := h.Grants.CanAccessProduct(ctx, uid, snap.Ref.ID)
		if err != nil || !allowed {
			continue
		}
		var product models.Product
		if err := snap.DataTo(&product); err != nil {
			continue
		}
		product.ID = snap.Ref.ID
		products = append(products, product)
	}
	c.JSON(http.StatusOK, products)
}

// Get returns one product.
func (h *ProductHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	productID := c.Param("productId")

	allowed, err := h.Grants.CanAccessProduct(ctx, middleware.UID(ctx), productID)
	if err != nil || !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this product"})
		return
	}
	snap, err := h.FS.Doc(models.ProductPath(productID)).Get(ctx)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	var product models.Product
	if err := snap.DataTo(&product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode product"})
		return
	}
	product.ID = snap.Ref.ID
	c.JSON(http.StatusOK, product)
}

// Delete tears the product down through the deletion orchestrator.
func (h *ProductHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	productID := c.Param("productId")

	if err := h.Orch.DeleteProduct(ctx, middleware.UID(ctx), productID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
