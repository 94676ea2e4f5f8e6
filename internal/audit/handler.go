package audit

import (
	"net/http"

	"edm-backend/internal/errors"
	"edm-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the audit trail to admins. Route middleware restricts
// access.
type Handler struct {
	repository AuditRepository
}

func NewHandler(repository AuditRepository) *Handler {
	return &Handler{repository: repository}
}

func (h *Handler) List(c *gin.Context) {
	page, pageSize := utils.GetPaginationParams(c)

	filter := ListFilter{
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}
	if raw := c.Query("entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.Error(errors.BadRequest("Invalid entity_id", err))
			return
		}
		filter.EntityID = &id
	}

	entries, total, err := h.repository.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, utils.Paginated[AuditLog]{
		Items:      entries,
		Page:       page,
		PerPage:    pageSize,
		TotalCount: total,
	})
}
