package comment

import (
	"net/http"

	"edm-backend/auth"
	"edm-backend/internal/errors"
	"edm-backend/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for document comments
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type FormCreateComment struct {
	Text            string  `json:"text" binding:"required,max=4000"`
	ParentCommentID *string `json:"parent_comment_id" binding:"omitempty,uuid"`
}

type FormResolveComment struct {
	Resolved *bool `json:"resolved" binding:"required"`
}

func currentRole(c *gin.Context) permission.Role {
	role, _ := permission.ParseRole(auth.CurrentRole(c))
	return role
}

// Create handles POST /documents/:id/comments
func (h *Handler) Create(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form FormCreateComment
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var parentID *uuid.UUID
	if form.ParentCommentID != nil {
		id, err := uuid.Parse(*form.ParentCommentID)
		if err != nil {
			c.Error(errors.NewValidationError(err))
			return
		}
		parentID = &id
	}

	comment, err := h.service.Create(c.Request.Context(), auth.CurrentUserID(c), CreateCommentRequest{
		DocumentID:      documentID,
		ParentCommentID: parentID,
		Text:            form.Text,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// List handles GET /documents/:id/comments
func (h *Handler) List(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	comments, err := h.service.ListForDocument(c.Request.Context(), auth.CurrentUserID(c), documentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

// Resolve handles PUT /comments/:id/resolve
func (h *Handler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form FormResolveComment
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	comment, err := h.service.Resolve(c.Request.Context(), auth.CurrentUserID(c), currentRole(c), id, *form.Resolved)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// Delete handles DELETE /comments/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.CurrentUserID(c), currentRole(c), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
