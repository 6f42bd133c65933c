package handlers

import (
	"net/http"
	"path"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"modbox/backend/internal/models"
	"modbox/backend/internal/store"
)

type UploadHandler struct {
	FS    *firestore.Client
	Blobs store.Blobs
	Log   *zap.Logger
}

const maxUploadSize = 20 << 20

// Image stores a module image under the IMAGES prefix and returns its URL.
func (h *UploadHandler) Image(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error parsing form data"})
		return
	}
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	defer file.Close()

	name := models.ImagePrefix(c.Param("moduleId")) + "/" + uuid.NewString() + path.Ext(header.Filename)
	url, err := h.Blobs.Upload(c.Request.Context(), name, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.Log.Error("image upload failed", zap.String("object", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// PDF stores a document under the PDF prefix and records it in the module's
// files subcollection so the PDF library can list it.
func (h *UploadHandler) PDF(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error parsing form data"})
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "PDF file is required"})
		return
	}
	defer file.Close()

	productID := c.Param("productId")
	moduleID := c.Param("moduleId")
	name := models.PDFPrefix(productID, moduleID) + header.Filename
	url, err := h.Blobs.Upload(c.Request.Context(), name, "application/pdf", file)
	if err != nil {
		h.Log.Error("pdf upload failed", zap.String("object", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	ref := h.FS.Collection(models.ModulePath(productID, moduleID) + "/files").NewDoc()
	doc := models.FileDoc{
		ID:         ref.ID,
		Name:       header.Filename,
		URL:        url,
		Size:       header.Size,
		UploadedAt: time.Now().UTC(),
	}
	if _, err := ref.Set(c.Request.Context(), doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file record"})
		return
	}
	c.JSON(http.StatusCreated, doc)
}
