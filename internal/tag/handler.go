package tag

import (
	"net/http"

	"edm-backend/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for tags. Create, update and delete are
// restricted to admin roles at the route level.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type FormTag struct {
	Name        string  `json:"name" binding:"required,max=64"`
	Description *string `json:"description"`
	Color       string  `json:"color" binding:"omitempty,hexcolor"`
}

func (h *Handler) List(c *gin.Context) {
	tags, err := h.service.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	tag, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *Handler) Create(c *gin.Context) {
	var form FormTag
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	tag := &Tag{
		Name:        form.Name,
		Description: form.Description,
	}
	if form.Color != "" {
		tag.Color = form.Color
	}

	if err := h.service.Create(c.Request.Context(), tag); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form FormTag
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	color := form.Color
	if color == "" {
		color = "#0066CC"
	}
	tag, err := h.service.Update(c.Request.Context(), id, form.Name, form.Description, color)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
