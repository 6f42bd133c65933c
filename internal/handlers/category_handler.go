package handlers

import (
	"net/http"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"modbox/backend/internal/models"
)

type CategoryHandler struct {
	FS  *firestore.Client
	Log *zap.Logger
}

type CategoryPayload struct {
	Name string `json:"name" binding:"required"`
}

func (h *CategoryHandler) collection(c *gin.Context) *firestore.CollectionRef {
	return h.FS.Collection(models.ModulePath(c.Param("productId"), c.Param("moduleId")) + "/categories")
}

// List returns the categories of a Filialfinder module.
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.readAll(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, categories)
}

// Create appends a category with the next free sort value.
func (h *CategoryHandler) Create(c *gin.Context) {
	var payload CategoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	existing, err := h.readAll(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	maxSort := 0
	for _, cat := range existing {
		if cat.Sort > maxSort {
			maxSort = cat.Sort
		}
	}

	ref := h.collection(c).NewDoc()
	category := models.Category{ID: ref.ID, Name: payload.Name, Sort: maxSort + 1}
	if _, err := ref.Set(c.Request.Context(), category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, category)
}

// Update renames a category.
func (h *CategoryHandler) Update(c *gin.Context) {
	var payload CategoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	ref := h.collection(c).Doc(c.Param("categoryId"))
	if _, err := ref.Get(c.Request.Context()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	_, err := ref.Set(c.Request.Context(), map[string]interface{}{"name": payload.Name}, firestore.MergeAll)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully"})
}

type ReorderPayload struct {
	// Order lists every category id in its new position, first id = sort 1.
	Order []string `json:"order" binding:"required"`
}

// Reorder rewrites the contiguous 1-based sort values after a drag-and-drop.
// All updates go out in one batch so a half-applied order never persists.
func (h *CategoryHandler) Reorder(c *gin.Context) {
	var payload ReorderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	batch := h.FS.Batch()
	for i, id := range payload.Order {
		batch.Set(h.collection(c).Doc(id), map[string]interface{}{"sort": i + 1}, firestore.MergeAll)
	}
	if _, err := batch.Commit(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Categories reordered successfully"})
}

// Delete removes a category and every object assigned to it.
func (h *CategoryHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	categoryID := c.Param("categoryId")
	modulePath := models.ModulePath(c.Param("productId"), c.Param("moduleId"))

	ref := h.collection(c).Doc(categoryID)
	if _, err := ref.Get(ctx); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	batch := h.FS.Batch()
	iter := h.FS.Collection(modulePath+"/objects").Where("category", "==", categoryID).Documents(ctx)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch category objects"})
			return
		}
		batch.Delete(snap.Ref)
	}
	batch.Delete(ref)
	if _, err := batch.Commit(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func (h *CategoryHandler) readAll(c *gin.Context) ([]models.Category, error) {
	categories := []models.Category{}
	iter := h.collection(c).Documents(c.Request.Context())
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var category models.Category
		if err := snap.DataTo(&category); err != nil {
			h.Log.Warn("skipping undecodable category", zap.String("id", snap.Ref.ID), zap.Error(err))
			continue
		}
		category.ID = snap.Ref.ID
		categories = append(categories, category)
	}
	return categories, nil
}
