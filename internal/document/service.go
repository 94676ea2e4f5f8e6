package document

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"edm-backend/internal/errors"
	"edm-backend/internal/permission"
	"edm-backend/internal/storage"
	"edm-backend/internal/tag"
	"edm-backend/internal/utils"

	"github.com/google/uuid"
)

// AccessChecker is the slice of the permission service the document service
// needs.
type AccessChecker interface {
	CanAccessFolder(ctx context.Context, userID, folderID uuid.UUID, required permission.Level) (bool, error)
	CanAccessDocument(ctx context.Context, userID, documentID uuid.UUID, required permission.Level) (bool, error)
}

// TagStore is the slice of the tag repository the document service needs.
type TagStore interface {
	FindForDocument(ctx context.Context, documentID uuid.UUID) ([]tag.Tag, error)
	ReplaceForDocument(ctx context.Context, documentID uuid.UUID, tagIDs []uuid.UUID) error
}

type CreateDocumentRequest struct {
	Title       string
	Description *string
	FolderID    uuid.UUID
	FileName    string
	FileSize    int64
	Content     io.Reader
	TagIDs      []uuid.UUID
}

type UpdateDocumentRequest struct {
	Title       string
	Description *string
	Status      string
	TagIDs      []uuid.UUID // nil leaves tags untouched
}

type UploadVersionRequest struct {
	FileName      string
	FileSize      int64
	Content       io.Reader
	ChangeComment *string
}

// Download bundles the content stream with the metadata a handler needs to
// serve it.
type Download struct {
	FileName string
	Size     int64
	Content  io.ReadCloser
}

type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, actorName string, req CreateDocumentRequest) (*DocumentDTO, error)
	Get(ctx context.Context, actorID, id uuid.UUID) (*DocumentDTO, error)
	List(ctx context.Context, actorID uuid.UUID, folderID *uuid.UUID, search string, page, pageSize int) (*utils.Paginated[DocumentDTO], error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateDocumentRequest) (*DocumentDTO, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	UploadVersion(ctx context.Context, actorID, id uuid.UUID, actorName string, req UploadVersionRequest) (*DocumentVersion, error)
	ListVersions(ctx context.Context, actorID, id uuid.UUID) ([]DocumentVersion, error)
	Download(ctx context.Context, actorID, id uuid.UUID, versionNumber *int) (*Download, error)
}

type DefaultService struct {
	repository DocumentRepository
	access     AccessChecker
	tags       TagStore
	files      storage.FileStorage
	audit      permission.AuditRecorder
}

func NewService(repository DocumentRepository, access AccessChecker, tags TagStore, files storage.FileStorage, audit permission.AuditRecorder) Service {
	return &DefaultService{
		repository: repository,
		access:     access,
		tags:       tags,
		files:      files,
		audit:      audit,
	}
}

func (s *DefaultService) Create(ctx context.Context, actorID uuid.UUID, actorName string, req CreateDocumentRequest) (*DocumentDTO, error) {
	allowed, err := s.access.CanAccessFolder(ctx, actorID, req.FolderID, permission.LevelWrite)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Write access to the folder is required", nil)
	}

	if err := storage.ValidateUpload(req.FileName, req.FileSize); err != nil {
		return nil, err
	}

	documentID := uuid.New()
	filePath, err := s.files.Save(ctx, documentID, 1, req.FileName, req.Content, req.FileSize)
	if err != nil {
		return nil, errors.Internal(err)
	}

	initialComment := "Initial version"
	document := &Document{
		ID:             documentID,
		Title:          req.Title,
		Description:    req.Description,
		FolderID:       req.FolderID,
		FileName:       req.FileName,
		FileExtension:  strings.ToLower(filepath.Ext(req.FileName)),
		FileSizeBytes:  req.FileSize,
		FilePath:       filePath,
		CurrentVersion: 1,
		Status:         StatusDraft,
		OwnerID:        actorID,
	}
	version := &DocumentVersion{
		DocumentID:    documentID,
		VersionNumber: 1,
		FileName:      req.FileName,
		FilePath:      filePath,
		FileSizeBytes: req.FileSize,
		ChangeComment: &initialComment,
		UploadedBy:    actorName,
	}

	if err := s.repository.CreateWithVersion(ctx, document, version); err != nil {
		s.files.Delete(ctx, filePath)
		return nil, errors.Internal(err)
	}

	if len(req.TagIDs) > 0 {
		if err := s.tags.ReplaceForDocument(ctx, documentID, req.TagIDs); err != nil {
			return nil, errors.Internal(err)
		}
	}

	if s.audit != nil {
		s.audit.Record(ctx, "document.create", "document", documentID, actorName)
	}
	return s.dto(ctx, documentID)
}

func (s *DefaultService) Get(ctx context.Context, actorID, id uuid.UUID) (*DocumentDTO, error) {
	allowed, err := s.access.CanAccessDocument(ctx, actorID, id, permission.LevelRead)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Read access to the document is required", nil)
	}
	dto, err := s.dto(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// List pages through documents, optionally scoped to a folder and filtered
// by a title/description search term. Rows the actor cannot read are
// dropped after paging, so a page may come back short; TotalCount counts
// matches before the permission filter.
func (s *DefaultService) List(ctx context.Context, actorID uuid.UUID, folderID *uuid.UUID, search string, page, pageSize int) (*utils.Paginated[DocumentDTO], error) {
	if folderID != nil {
		allowed, err := s.access.CanAccessFolder(ctx, actorID, *folderID, permission.LevelRead)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if !allowed {
			return nil, errors.Forbidden("Read access to the folder is required", nil)
		}
	}

	dtos, total, err := s.repository.List(ctx, folderID, search, page, pageSize)
	if err != nil {
		return nil, errors.Internal(err)
	}

	visible := make([]DocumentDTO, 0, len(dtos))
	for _, dto := range dtos {
		allowed, err := s.access.CanAccessDocument(ctx, actorID, dto.ID, permission.LevelRead)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if !allowed {
			continue
		}
		if err := s.fillTags(ctx, &dto); err != nil {
			return nil, errors.Internal(err)
		}
		visible = append(visible, dto)
	}

	return &utils.Paginated[DocumentDTO]{
		Items:      visible,
		Page:       page,
		PerPage:    pageSize,
		TotalCount: total,
	}, nil
}

func (s *DefaultService) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateDocumentRequest) (*DocumentDTO, error) {
	allowed, err := s.access.CanAccessDocument(ctx, actorID, id, permission.LevelWrite)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Write access to the document is required", nil)
	}

	document, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if document == nil {
		return nil, errors.NotFound("Document not found", nil)
	}

	document.Title = req.Title
	document.Description = req.Description
	if req.Status != "" {
		document.Status = req.Status
	}
	if err := s.repository.Update(ctx, document); err != nil {
		return nil, errors.Internal(err)
	}

	if req.TagIDs != nil {
		if err := s.tags.ReplaceForDocument(ctx, id, req.TagIDs); err != nil {
			return nil, errors.Internal(err)
		}
	}

	if s.audit != nil {
		s.audit.Record(ctx, "document.update", "document", id, actorID.String())
	}
	return s.dto(ctx, id)
}

func (s *DefaultService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	allowed, err := s.access.CanAccessDocument(ctx, actorID, id, permission.LevelAdmin)
	if err != nil {
		return errors.Internal(err)
	}
	if !allowed {
		return errors.Forbidden("Admin access to the document is required", nil)
	}

	deleted, err := s.repository.SoftDelete(ctx, id)
	if err != nil {
		return errors.Internal(err)
	}
	if !deleted {
		return errors.NotFound("Document not found", nil)
	}

	if s.audit != nil {
		s.audit.Record(ctx, "document.delete", "document", id, actorID.String())
	}
	return nil
}

func (s *DefaultService) UploadVersion(ctx context.Context, actorID, id uuid.UUID, actorName string, req UploadVersionRequest) (*DocumentVersion, error) {
	allowed, err := s.access.CanAccessDocument(ctx, actorID, id, permission.LevelWrite)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Write access to the document is required", nil)
	}

	document, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if document == nil {
		return nil, errors.NotFound("Document not found", nil)
	}

	if err := storage.ValidateUpload(req.FileName, req.FileSize); err != nil {
		return nil, err
	}

	newVersionNumber := document.CurrentVersion + 1
	filePath, err := s.files.Save(ctx, id, newVersionNumber, req.FileName, req.Content, req.FileSize)
	if err != nil {
		return nil, errors.Internal(err)
	}

	comment := req.ChangeComment
	if comment == nil {
		text := fmt.Sprintf("Version %d", newVersionNumber)
		comment = &text
	}
	version := &DocumentVersion{
		DocumentID:    id,
		VersionNumber: newVersionNumber,
		FileName:      req.FileName,
		FilePath:      filePath,
		FileSizeBytes: req.FileSize,
		ChangeComment: comment,
		UploadedBy:    actorName,
	}

	document.CurrentVersion = newVersionNumber
	document.FileName = req.FileName
	document.FileExtension = strings.ToLower(filepath.Ext(req.FileName))
	document.FileSizeBytes = req.FileSize
	document.FilePath = filePath

	if err := s.repository.AddVersion(ctx, document, version); err != nil {
		s.files.Delete(ctx, filePath)
		return nil, errors.Internal(err)
	}

	if s.audit != nil {
		s.audit.Record(ctx, "document.upload_version", "document", id, actorName)
	}
	return version, nil
}

func (s *DefaultService) ListVersions(ctx context.Context, actorID, id uuid.UUID) ([]DocumentVersion, error) {
	allowed, err := s.access.CanAccessDocument(ctx, actorID, id, permission.LevelRead)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Read access to the document is required", nil)
	}

	versions, err := s.repository.ListVersions(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return versions, nil
}

func (s *DefaultService) Download(ctx context.Context, actorID, id uuid.UUID, versionNumber *int) (*Download, error) {
	allowed, err := s.access.CanAccessDocument(ctx, actorID, id, permission.LevelRead)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Read access to the document is required", nil)
	}

	document, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if document == nil {
		return nil, errors.NotFound("Document not found", nil)
	}

	filePath := document.FilePath
	fileName := document.FileName
	size := document.FileSizeBytes
	if versionNumber != nil && *versionNumber != document.CurrentVersion {
		version, err := s.repository.FindVersion(ctx, id, *versionNumber)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if version == nil {
			return nil, errors.NotFound("Version not found", nil)
		}
		filePath = version.FilePath
		fileName = version.FileName
		size = version.FileSizeBytes
	}

	content, err := s.files.Open(ctx, filePath)
	if err != nil {
		return nil, errors.NotFound("File content not found", err)
	}

	if err := s.repository.IncrementDownloadCount(ctx, id); err != nil {
		content.Close()
		return nil, errors.Internal(err)
	}

	return &Download{FileName: fileName, Size: size, Content: content}, nil
}

func (s *DefaultService) dto(ctx context.Context, id uuid.UUID) (*DocumentDTO, error) {
	dto, err := s.repository.DTOByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if dto == nil {
		return nil, errors.NotFound("Document not found", nil)
	}
	if err := s.fillTags(ctx, dto); err != nil {
		return nil, errors.Internal(err)
	}
	return dto, nil
}

func (s *DefaultService) fillTags(ctx context.Context, dto *DocumentDTO) error {
	tags, err := s.tags.FindForDocument(ctx, dto.ID)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	dto.Tags = names
	return nil
}
