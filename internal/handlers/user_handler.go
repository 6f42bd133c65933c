package handlers

import (
	"net/http"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"modbox/backend/internal/auditlog"
	"modbox/backend/internal/mail"
	"modbox/backend/internal/middleware"
	"modbox/backend/internal/models"
	"modbox/backend/internal/userinfo"
)

// UserHandler manages dashboard accounts. Every route is superadmin-only.
type UserHandler struct {
	Auth   *auth.Client
	Grants *userinfo.Service
	Mailer mail.Provider
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

type CreateUserPayload struct {
	Email             string   `json:"email" binding:"required,email"`
	Password          string   `json:"password" binding:"required,min=8"`
	Projects          []string `json:"projects"`
	AllProjects       bool     `json:"allProjects"`
	AllowDeleteModule bool     `json:"allowDeleteModule"`
	AllowCreateModule bool     `json:"allowCreateModule"`
}

func (h *UserHandler) requireSuperadmin(c *gin.Context) (string, bool) {
	uid := middleware.UID(c.Request.Context())
	if !h.Grants.IsSuperadmin(uid) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Superadmin access required"})
		return "", false
	}
	return uid, true
}

// Create adds a Firebase Auth user and its grants document.
func (h *UserHandler) Create(c *gin.Context) {
	actor, ok := h.requireSuperadmin(c)
	if !ok {
		return
	}
	var payload CreateUserPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	record, err := h.Auth.CreateUser(ctx, (&auth.UserToCreate{}).
		Email(payload.Email).
		Password(payload.Password))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user: " + err.Error()})
		return
	}

	info := models.UserInfo{
		Email:             payload.Email,
		Projects:          payload.Projects,
		AllProjects:       payload.AllProjects,
		CreatedAt:         time.Now().UTC(),
		CreatedBy:         actor,
		AllowDeleteModule: payload.AllowDeleteModule,
		AllowCreateModule: payload.AllowCreateModule,
	}
	if err := h.Grants.Put(ctx, record.UID, info); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user grants"})
		return
	}
	if err := h.Audit.Append(ctx, actor, models.ActionCreateUser, record.UID, payload.Email); err != nil {
		h.Log.Warn("audit append failed", zap.Error(err))
	}
	c.JSON(http.StatusCreated, gin.H{"uid": record.UID, "email": payload.Email})
}

// List returns all grants documents keyed by UID.
func (h *UserHandler) List(c *gin.Context) {
	if _, ok := h.requireSuperadmin(c); !ok {
		return
	}
	users, err := h.Grants.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

type UpdateUserPayload struct {
	Projects          []string `json:"projects"`
	AllProjects       bool     `json:"allProjects"`
	AllowDeleteModule bool     `json:"allowDeleteModule"`
	AllowCreateModule bool     `json:"allowCreateModule"`
}

// Update rewrites a user's grants.
func (h *UserHandler) Update(c *gin.Context) {
	if _, ok := h.requireSuperadmin(c); !ok {
		return
	}
	var payload UpdateUserPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	ctx := c.Request.Context()
	uid := c.Param("uid")
	info, err := h.Grants.Get(ctx, uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	info.Projects = payload.Projects
	info.AllProjects = payload.AllProjects
	info.AllowDeleteModule = payload.AllowDeleteModule
	info.AllowCreateModule = payload.AllowCreateModule
	if err := h.Grants.Put(ctx, uid, info); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user grants"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// Delete disables the Auth account, removes it, and drops the grants doc.
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := h.requireSuperadmin(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	uid := c.Param("uid")

	if _, err := h.Auth.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Disabled(true)); err != nil {
		h.Log.Warn("disabling user before delete failed", zap.String("uid", uid), zap.Error(err))
	}
	if err := h.Auth.DeleteUser(ctx, uid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user: " + err.Error()})
		return
	}
	if err := h.Grants.Delete(ctx, uid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user grants"})
		return
	}
	if err := h.Audit.Append(ctx, actor, models.ActionDeleteUser, uid, ""); err != nil {
		h.Log.Warn("audit append failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// Reset mails a password-reset link to the user. The mail failure is
// reported, not retried.
func (h *UserHandler) Reset(c *gin.Context) {
	if _, ok := h.requireSuperadmin(c); !ok {
		return
	}
	ctx := c.Request.Context()
	info, err := h.Grants.Get(ctx, c.Param("uid"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	link, err := h.Auth.PasswordResetLink(ctx, info.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate reset link: " + err.Error()})
		return
	}
	body := "<p>Ein Passwort-Reset wurde angefordert.</p><p><a href=\"" + link + "\">Passwort zurücksetzen</a></p>"
	if err := h.Mailer.Send(ctx, []string{info.Email}, "ModBox Passwort zurücksetzen", body); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send reset mail: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reset mail sent"})
}
