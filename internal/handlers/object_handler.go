package handlers

import (
	"net/http"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"modbox/backend/internal/models"
)

type ObjectHandler struct {
	FS  *firestore.Client
	Log *zap.Logger
}

type ObjectPayload struct {
	Name         string         `json:"name" binding:"required"`
	Category     string         `json:"category" binding:"required"`
	Fields       []models.Field `json:"fields"`
	Sort         int            `json:"sort"`
	ImageURL     string         `json:"imageUrl"`
	Description  string         `json:"description"`
	ImageInsight bool           `json:"imageInsight"`
}

func (h *ObjectHandler) collection(c *gin.Context) *firestore.CollectionRef {
	return h.FS.Collection(models.ModulePath(c.Param("productId"), c.Param("moduleId")) + "/objects")
}

// List returns the objects of a module, optionally filtered by category.
func (h *ObjectHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	query := h.collection(c).Query
	if categoryID := c.Query("category"); categoryID != "" {
		query = query.Where("category", "==", categoryID)
	}

	objects := []models.Object{}
	iter := query.Documents(ctx)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch objects"})
			return
		}
		var object models.Object
		if err := snap.DataTo(&object); err != nil {
			h.Log.Warn("skipping undecodable object", zap.String("id", snap.Ref.ID), zap.Error(err))
			continue
		}
		object.ID = snap.Ref.ID
		objects = append(objects, object)
	}
	c.JSON(http.StatusOK, objects)
}

// Create adds an object under its category.
func (h *ObjectHandler) Create(c *gin.Context) {
	var payload ObjectPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	if err := validateFields(payload.Fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref := h.collection(c).NewDoc()
	object := models.Object{
		ID:           ref.ID,
		Name:         payload.Name,
		Category:     payload.Category,
		Fields:       payload.Fields,
		Sort:         payload.Sort,
		ImageURL:     payload.ImageURL,
		Description:  payload.Description,
		ImageInsight: payload.ImageInsight,
	}
	if _, err := ref.Set(c.Request.Context(), object); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create object"})
		return
	}
	c.JSON(http.StatusCreated, object)
}

// Update rewrites an object.
func (h *ObjectHandler) Update(c *gin.Context) {
	var payload ObjectPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	if err := validateFields(payload.Fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref := h.collection(c).Doc(c.Param("objectId"))
	if _, err := ref.Get(c.Request.Context()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Object not found"})
		return
	}
	object := models.Object{
		ID:           ref.ID,
		Name:         payload.Name,
		Category:     payload.Category,
		Fields:       payload.Fields,
		Sort:         payload.Sort,
		ImageURL:     payload.ImageURL,
		Description:  payload.Description,
		ImageInsight: payload.ImageInsight,
	}
	if _, err := ref.Set(c.Request.Context(), object); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update object"})
		return
	}
	c.JSON(http.StatusOK, object)
}

// Delete removes one object.
func (h *ObjectHandler) Delete(c *gin.Context) {
	ref := h.collection(c).Doc(c.Param("objectId"))
	if _, err := ref.Get(c.Request.Context()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Object not found"})
		return
	}
	if _, err := ref.Delete(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete object"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Object deleted successfully"})
}

// validateFields rejects fields with more than one mode flag set. Clients
// that toggle modes through SetMode never trip this; it guards raw payloads.
func validateFields(fields []models.Field) error {
	for _, f := range fields {
		set := 0
		for _, flag := range []bool{f.Link, f.Gremium, f.List, f.Address} {
			if flag {
				set++
			}
		}
		if set > 1 {
			return errFieldModes(f.Name)
		}
	}
	return nil
}

type errFieldModes string

func (e errFieldModes) Error() string {
	return "field " + string(e) + " has more than one mode flag set"
}
