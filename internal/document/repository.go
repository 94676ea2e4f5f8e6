package document

import (
	"context"
	"errors"

	"edm-backend/internal/permission"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const openWorkflowExpr = `EXISTS (
	SELECT 1 FROM workflows
	WHERE workflows.document_id = documents.id AND workflows.status = 'Pending'
) AS has_open_workflow`

// documentRow is the scan target for DTO queries joining owner and folder.
type documentRow struct {
	Document
	FolderPath      string
	OwnerName       string
	HasOpenWorkflow bool
}

func (r documentRow) toDTO() DocumentDTO {
	return DocumentDTO{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		FolderID:        r.FolderID,
		FolderPath:      r.FolderPath,
		FileName:        r.FileName,
		FileExtension:   r.FileExtension,
		FileSizeBytes:   r.FileSizeBytes,
		CurrentVersion:  r.CurrentVersion,
		Status:          r.Status,
		OwnerID:         r.OwnerID,
		OwnerName:       r.OwnerName,
		Tags:            []string{},
		HasOpenWorkflow: r.HasOpenWorkflow,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// DocumentRepository handles database operations for documents and their
// versions
type DocumentRepository interface {
	// CreateWithVersion inserts the document and its initial version in
	// one transaction.
	CreateWithVersion(ctx context.Context, document *Document, version *DocumentVersion) error
	// AddVersion appends a version and updates the document's current
	// file columns in one transaction.
	AddVersion(ctx context.Context, document *Document, version *DocumentVersion) error
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)
	DTOByID(ctx context.Context, id uuid.UUID) (*DocumentDTO, error)
	List(ctx context.Context, folderID *uuid.UUID, search string, page, pageSize int) ([]DocumentDTO, int64, error)
	Update(ctx context.Context, document *Document) error
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)
	FindVersion(ctx context.Context, documentID uuid.UUID, versionNumber int) (*DocumentVersion, error)
	ListVersions(ctx context.Context, documentID uuid.UUID) ([]DocumentVersion, error)
	IncrementDownloadCount(ctx context.Context, id uuid.UUID) error
	CountInFolder(ctx context.Context, folderID uuid.UUID) (int64, error)

	// DocumentAccessInfo feeds the access resolver. Returns (nil, nil)
	// when the document does not exist or is soft-deleted.
	DocumentAccessInfo(ctx context.Context, id uuid.UUID) (*permission.DocumentInfo, error)
}

type DocumentRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) DocumentRepository {
	return &DocumentRepositoryImpl{db: db}
}

func (r *DocumentRepositoryImpl) CreateWithVersion(ctx context.Context, document *Document, version *DocumentVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(document).Error; err != nil {
			return err
		}
		version.DocumentID = document.ID
		return tx.Create(version).Error
	})
}

func (r *DocumentRepositoryImpl) AddVersion(ctx context.Context, document *Document, version *DocumentVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(version).Error; err != nil {
			return err
		}
		return tx.Save(document).Error
	})
}

func (r *DocumentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	var document Document
	err := r.db.WithContext(ctx).First(&document, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &document, nil
}

func (r *DocumentRepositoryImpl) dtoQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&Document{}).
		Select("documents.*, folders.path AS folder_path, users.username AS owner_name, " + openWorkflowExpr).
		Joins("JOIN folders ON folders.id = documents.folder_id").
		Joins("JOIN users ON users.id = documents.owner_id")
}

func (r *DocumentRepositoryImpl) DTOByID(ctx context.Context, id uuid.UUID) (*DocumentDTO, error) {
	var row documentRow
	err := r.dtoQuery(ctx).Where("documents.id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dto := row.toDTO()
	return &dto, nil
}

func (r *DocumentRepositoryImpl) List(ctx context.Context, folderID *uuid.UUID, search string, page, pageSize int) ([]DocumentDTO, int64, error) {
	query := r.db.WithContext(ctx).Model(&Document{})
	if folderID != nil {
		query = query.Where("documents.folder_id = ?", *folderID)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("documents.title ILIKE ? OR documents.description ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []documentRow
	err := query.
		Select("documents.*, folders.path AS folder_path, users.username AS owner_name, " + openWorkflowExpr).
		Joins("JOIN folders ON folders.id = documents.folder_id").
		Joins("JOIN users ON users.id = documents.owner_id").
		Order("documents.created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]DocumentDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, row.toDTO())
	}
	return dtos, total, nil
}

func (r *DocumentRepositoryImpl) Update(ctx context.Context, document *Document) error {
	return r.db.WithContext(ctx).Save(document).Error
}

func (r *DocumentRepositoryImpl) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&Document{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *DocumentRepositoryImpl) FindVersion(ctx context.Context, documentID uuid.UUID, versionNumber int) (*DocumentVersion, error) {
	var version DocumentVersion
	err := r.db.WithContext(ctx).
		First(&version, "document_id = ? AND version_number = ?", documentID, versionNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *DocumentRepositoryImpl) ListVersions(ctx context.Context, documentID uuid.UUID) ([]DocumentVersion, error) {
	var versions []DocumentVersion
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("version_number desc").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *DocumentRepositoryImpl) IncrementDownloadCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&Document{}).
		Where("id = ?", id).
		Update("download_count", gorm.Expr("download_count + 1")).Error
}

func (r *DocumentRepositoryImpl) CountInFolder(ctx context.Context, folderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Document{}).
		Where("folder_id = ?", folderID).
		Count(&count).Error
	return count, err
}

func (r *DocumentRepositoryImpl) DocumentAccessInfo(ctx context.Context, id uuid.UUID) (*permission.DocumentInfo, error) {
	var document Document
	err := r.db.WithContext(ctx).
		Select("owner_id", "folder_id").
		First(&document, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &permission.DocumentInfo{
		OwnerID:  document.OwnerID,
		FolderID: document.FolderID,
	}, nil
}
