package workflow

import (
	"net/http"
	"time"

	"edm-backend/auth"
	"edm-backend/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for approval workflows
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type FormStep struct {
	StepName         string `json:"step_name" binding:"required,max=255"`
	AssignedToUserID string `json:"assigned_to_user_id" binding:"required,uuid"`
}

type FormCreateWorkflow struct {
	Name        string     `json:"name" binding:"required,max=255"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Steps       []FormStep `json:"steps" binding:"required,min=1,dive"`
}

type FormCompleteStep struct {
	Approve *bool   `json:"approve" binding:"required"`
	Comment *string `json:"comment"`
}

// Create handles POST /documents/:id/workflows
func (h *Handler) Create(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form FormCreateWorkflow
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	steps := make([]StepRequest, 0, len(form.Steps))
	for _, step := range form.Steps {
		assignee, err := uuid.Parse(step.AssignedToUserID)
		if err != nil {
			c.Error(errors.NewValidationError(err))
			return
		}
		steps = append(steps, StepRequest{
			StepName:         step.StepName,
			AssignedToUserID: assignee,
		})
	}

	workflow, err := h.service.Create(c.Request.Context(), auth.CurrentUserID(c), auth.CurrentUsername(c), CreateWorkflowRequest{
		Name:        form.Name,
		Description: form.Description,
		DocumentID:  documentID,
		DueDate:     form.DueDate,
		Steps:       steps,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, workflow)
}

// List handles GET /documents/:id/workflows
func (h *Handler) List(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	workflows, err := h.service.ListForDocument(c.Request.Context(), auth.CurrentUserID(c), documentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, workflows)
}

// Get handles GET /workflows/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	workflow, err := h.service.Get(c.Request.Context(), auth.CurrentUserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, workflow)
}

// CompleteStep handles POST /workflows/:id/complete-step
func (h *Handler) CompleteStep(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form FormCompleteStep
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	workflow, err := h.service.CompleteStep(c.Request.Context(), auth.CurrentUserID(c), id, *form.Approve, form.Comment)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, workflow)
}
