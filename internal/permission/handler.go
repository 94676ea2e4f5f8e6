package permission

import (
	"net/http"
	"time"

	"edm-backend/auth"
	"edm-backend/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for permission grants
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreatePermissionForm carries a grant request. Exactly one of folder_id and
// document_id must be set.
type CreatePermissionForm struct {
	UserID         uuid.UUID  `json:"user_id" binding:"required"`
	FolderID       *uuid.UUID `json:"folder_id"`
	DocumentID     *uuid.UUID `json:"document_id"`
	PermissionType string     `json:"permission_type" binding:"required,permlevel"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

// ListForUser returns a user's grants. Only admins or the user themselves
// may see them.
func (h *Handler) ListForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	callerRole, _ := ParseRole(auth.CurrentRole(c))
	if auth.CurrentUserID(c) != userID && !callerRole.Elevated() {
		c.Error(errors.Forbidden("Access denied", nil))
		return
	}

	permissions, err := h.service.ListUserPermissions(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, permissions)
}

func (h *Handler) ListForFolder(c *gin.Context) {
	folderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	ok, err := h.service.CanAccessFolder(c.Request.Context(), auth.CurrentUserID(c), folderID, LevelAdmin)
	if err != nil {
		c.Error(err)
		return
	}
	if !ok {
		c.Error(errors.Forbidden("Access denied", nil))
		return
	}

	permissions, err := h.service.ListFolderPermissions(c.Request.Context(), folderID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, permissions)
}

func (h *Handler) ListForDocument(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	ok, err := h.service.CanAccessDocument(c.Request.Context(), auth.CurrentUserID(c), documentID, LevelAdmin)
	if err != nil {
		c.Error(err)
		return
	}
	if !ok {
		c.Error(errors.Forbidden("Access denied", nil))
		return
	}

	permissions, err := h.service.ListDocumentPermissions(c.Request.Context(), documentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, permissions)
}

// Grant creates or updates a grant. The caller needs Admin access on the
// target resource.
func (h *Handler) Grant(c *gin.Context) {
	var form CreatePermissionForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if form.FolderID != nil && form.DocumentID != nil {
		c.Error(errors.BadRequest("Only one of folder_id or document_id may be provided", nil))
		return
	}

	callerID := auth.CurrentUserID(c)
	var resource ResourceRef

	switch {
	case form.FolderID != nil:
		ok, err := h.service.CanAccessFolder(c.Request.Context(), callerID, *form.FolderID, LevelAdmin)
		if err != nil {
			c.Error(err)
			return
		}
		if !ok {
			c.Error(errors.Forbidden("Access denied", nil))
			return
		}
		resource = FolderRef(*form.FolderID)
	case form.DocumentID != nil:
		ok, err := h.service.CanAccessDocument(c.Request.Context(), callerID, *form.DocumentID, LevelAdmin)
		if err != nil {
			c.Error(err)
			return
		}
		if !ok {
			c.Error(errors.Forbidden("Access denied", nil))
			return
		}
		resource = DocumentRef(*form.DocumentID)
	default:
		c.Error(errors.BadRequest("Either folder_id or document_id must be provided", nil))
		return
	}

	level, _ := ParseLevel(form.PermissionType)
	req := GrantRequest{
		UserID:    form.UserID,
		Resource:  resource,
		Level:     level,
		ExpiresAt: form.ExpiresAt,
	}

	dto, err := h.service.Grant(c.Request.Context(), req, auth.CurrentUsername(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto)
}

// Revoke deletes a grant by id. The caller needs Admin access on the grant's
// resource.
func (h *Handler) Revoke(c *gin.Context) {
	permissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	grant, err := h.service.GetPermission(c.Request.Context(), permissionID)
	if err != nil {
		c.Error(err)
		return
	}
	if grant == nil {
		c.Error(errors.NotFound("Permission not found", nil))
		return
	}

	callerID := auth.CurrentUserID(c)
	allowed := false
	if grant.FolderID != nil {
		allowed, err = h.service.CanAccessFolder(c.Request.Context(), callerID, *grant.FolderID, LevelAdmin)
	} else if grant.DocumentID != nil {
		allowed, err = h.service.CanAccessDocument(c.Request.Context(), callerID, *grant.DocumentID, LevelAdmin)
	}
	if err != nil {
		c.Error(err)
		return
	}
	if !allowed {
		c.Error(errors.Forbidden("Access denied", nil))
		return
	}

	revoked, err := h.service.Revoke(c.Request.Context(), permissionID)
	if err != nil {
		c.Error(err)
		return
	}
	if !revoked {
		c.Error(errors.NotFound("Permission not found", nil))
		return
	}

	c.Status(http.StatusNoContent)
}
