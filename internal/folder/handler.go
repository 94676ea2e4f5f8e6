package folder

import (
	"net/http"

	"edm-backend/auth"
	"edm-backend/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for folders
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type FormCreateFolder struct {
	Name           string  `json:"name" binding:"required,max=255"`
	Description    *string `json:"description"`
	ParentFolderID string  `json:"parent_folder_id" binding:"required,uuid"`
}

type FormUpdateFolder struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
}

// List returns the readable children of ?parent_folder_id, or the root
// level when the query parameter is absent.
func (h *Handler) List(c *gin.Context) {
	var parentID *uuid.UUID
	if raw := c.Query("parent_folder_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.Error(errors.BadRequest("Invalid parent_folder_id", err))
			return
		}
		parentID = &id
	}

	folders, err := h.service.List(c.Request.Context(), auth.CurrentUserID(c), parentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, folders)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	folder, err := h.service.Get(c.Request.Context(), auth.CurrentUserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, folder)
}

func (h *Handler) Create(c *gin.Context) {
	var form FormCreateFolder
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	parentID, err := uuid.Parse(form.ParentFolderID)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	folder, err := h.service.Create(c.Request.Context(), auth.CurrentUserID(c), CreateFolderRequest{
		Name:           form.Name,
		Description:    form.Description,
		ParentFolderID: parentID,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, folder)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form FormUpdateFolder
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	folder, err := h.service.Update(c.Request.Context(), auth.CurrentUserID(c), id, UpdateFolderRequest{
		Name:        form.Name,
		Description: form.Description,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, folder)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.CurrentUserID(c), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
