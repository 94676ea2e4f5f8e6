package document

import (
	"net/http"
	"strconv"

	"edm-backend/auth"
	"edm-backend/internal/errors"
	"edm-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for documents
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// FormCreateDocument is multipart: metadata fields plus the "file" part.
type FormCreateDocument struct {
	Title       string   `form:"title" binding:"required,max=255"`
	Description *string  `form:"description"`
	FolderID    string   `form:"folder_id" binding:"required,uuid"`
	TagIDs      []string `form:"tag_ids"`
}

type FormUpdateDocument struct {
	Title       string   `json:"title" binding:"required,max=255"`
	Description *string  `json:"description"`
	Status      string   `json:"status" binding:"omitempty,oneof=Draft Active Approved Rejected Archived"`
	TagIDs      []string `json:"tag_ids"`
}

type FormUploadVersion struct {
	ChangeComment *string `form:"change_comment"`
}

func parseTagIDs(raw []string) ([]uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *Handler) List(c *gin.Context) {
	page, pageSize := utils.GetPaginationParams(c)

	var folderID *uuid.UUID
	if raw := c.Query("folder_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.Error(errors.BadRequest("Invalid folder_id", err))
			return
		}
		folderID = &id
	}

	result, err := h.service.List(c.Request.Context(), auth.CurrentUserID(c), folderID, c.Query("search"), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	document, err := h.service.Get(c.Request.Context(), auth.CurrentUserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, document)
}

func (h *Handler) Create(c *gin.Context) {
	var form FormCreateDocument
	if err := c.ShouldBind(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	folderID, err := uuid.Parse(form.FolderID)
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	tagIDs, err := parseTagIDs(form.TagIDs)
	if err != nil {
		c.Error(errors.BadRequest("Invalid tag id", err))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(errors.BadRequest("File is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	defer file.Close()

	document, err := h.service.Create(c.Request.Context(), auth.CurrentUserID(c), auth.CurrentUsername(c), CreateDocumentRequest{
		Title:       form.Title,
		Description: form.Description,
		FolderID:    folderID,
		FileName:    fileHeader.Filename,
		FileSize:    fileHeader.Size,
		Content:     file,
		TagIDs:      tagIDs,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, document)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form FormUpdateDocument
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	tagIDs, err := parseTagIDs(form.TagIDs)
	if err != nil {
		c.Error(errors.BadRequest("Invalid tag id", err))
		return
	}

	document, err := h.service.Update(c.Request.Context(), auth.CurrentUserID(c), id, UpdateDocumentRequest{
		Title:       form.Title,
		Description: form.Description,
		Status:      form.Status,
		TagIDs:      tagIDs,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, document)
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

func (h *Handler) UploadVersion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var form FormUploadVersion
	if err := c.ShouldBind(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(errors.BadRequest("File is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	defer file.Close()

	version, err := h.service.UploadVersion(c.Request.Context(), auth.CurrentUserID(c), id, auth.CurrentUsername(c), UploadVersionRequest{
		FileName:      fileHeader.Filename,
		FileSize:      fileHeader.Size,
		Content:       file,
		ChangeComment: form.ChangeComment,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, version)
}

func (h *Handler) ListVersions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	versions, err := h.service.ListVersions(c.Request.Context(), auth.CurrentUserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, versions)
}

func (h *Handler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	var versionNumber *int
	if raw := c.Query("version"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.Error(errors.BadRequest("Invalid version", err))
			return
		}
		versionNumber = &parsed
	}

	download, err := h.service.Download(c.Request.Context(), auth.CurrentUserID(c), id, versionNumber)
	if err != nil {
		c.Error(err)
		return
	}
	defer download.Content.Close()

	c.DataFromReader(http.StatusOK, download.Size, "application/octet-stream", download.Content, map[string]string{
		"Content-Disposition": `attachment; filename="` + download.FileName + `"`,
	})
}
