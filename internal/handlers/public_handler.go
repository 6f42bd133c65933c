package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"modbox/backend/internal/mail"
	"modbox/backend/internal/models"
	"modbox/backend/internal/store"
)

// PublicHandler serves the unauthenticated render endpoints the iframe embed
// loads, plus the visitor-facing form submission.
type PublicHandler struct {
	Docs   store.Store
	Mailer mail.Provider
	Log    *zap.Logger
}

// Product resolves a product by slug and lists its modules.
func (h *PublicHandler) Product(c *gin.Context) {
	ctx := c.Request.Context()
	matches, err := h.Docs.QueryEq(ctx, models.CollProducts, "slug", c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve product"})
		return
	}
	if len(matches) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	product := matches[0]
	modules, err := h.Docs.Docs(ctx, models.ModulesPath(product.ID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch modules"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product.Data, "modules": modules})
}

// Module returns a module plus all of its type-specific children, everything
// one widget needs to render.
func (h *PublicHandler) Module(c *gin.Context) {
	ctx := c.Request.Context()
	matches, err := h.Docs.QueryEq(ctx, models.CollProducts, "slug", c.Param("slug"))
	if err != nil || len(matches) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	productID := matches[0].ID

	modulePath := models.ModulePath(productID, c.Param("moduleId"))
	data, err := h.Docs.Get(ctx, modulePath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Module not found"})
		return
	}

	typ, _ := data["type"].(string)
	children := gin.H{}
	for _, name := range models.ModuleType(typ).Subcollections() {
		docs, err := h.Docs.Docs(ctx, modulePath+"/"+name)
		if err != nil {
			h.Log.Warn("skipping subcollection in render",
				zap.String("collection", name), zap.Error(err))
			continue
		}
		children[name] = docs
	}
	c.JSON(http.StatusOK, gin.H{"module": data, "children": children})
}

type FormSubmissionPayload struct {
	Values map[string]string `json:"values" binding:"required"`
}

// SubmitForm stores a visitor submission under the form module and mails it
// to the configured recipients. A mail failure is surfaced to the visitor.
func (h *PublicHandler) SubmitForm(c *gin.Context) {
	ctx := c.Request.Context()
	productID := c.Param("productId")
	moduleID := c.Param("moduleId")
	modulePath := models.ModulePath(productID, moduleID)

	data, err := h.Docs.Get(ctx, modulePath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Module not found"})
		return
	}
	if typ, _ := data["type"].(string); models.ModuleType(typ) != models.TypeFormularModul {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Module does not accept form submissions"})
		return
	}

	var payload FormSubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}

	id := h.Docs.NewID()
	submission := models.FormSubmission{
		ID:          id,
		Values:      payload.Values,
		SubmittedAt: time.Now().UTC(),
	}
	if err := h.Docs.Set(ctx, modulePath+"/data/"+id, submission); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save submission"})
		return
	}

	recipients, err := h.Docs.Docs(ctx, modulePath+"/recipients")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipients"})
		return
	}
	to := []string{}
	for _, r := range recipients {
		if email, _ := r.Data["email"].(string); email != "" {
			to = append(to, email)
		}
	}
	if len(to) > 0 {
		body := renderSubmission(payload.Values)
		if err := h.Mailer.Send(ctx, to, "Neue Formular-Einsendung", body); err != nil {
			h.Log.Error("submission mail failed", zap.String("module", moduleID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Submission saved but mail delivery failed"})
			return
		}
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func renderSubmission(values map[string]string) string {
	body := "<h3>Neue Einsendung</h3><table>"
	for name, value := range values {
		body += "<tr><td>" + name + "</td><td>" + value + "</td></tr>"
	}
	return body + "</table>"
}
