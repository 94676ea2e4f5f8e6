package permission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the grant store. Find methods return (nil, nil) when no
// grant exists so callers can treat absence as a plain deny.
type Repository interface {
	Upsert(ctx context.Context, grant *Permission) error
	FindForFolder(ctx context.Context, userID, folderID uuid.UUID) (*Permission, error)
	FindForDocument(ctx context.Context, userID, documentID uuid.UUID) (*Permission, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	DTOByID(ctx context.Context, id uuid.UUID) (*PermissionDTO, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]PermissionDTO, error)
	ListByFolder(ctx context.Context, folderID uuid.UUID) ([]PermissionDTO, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]PermissionDTO, error)
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

// Upsert creates the grant, or updates the level, expiry and audit fields of
// the existing row for the same (user, resource) pair. Runs in a transaction;
// the composite unique index created at migration time backstops concurrent
// inserts for the same pair.
func (r *RepositoryImpl) Upsert(ctx context.Context, grant *Permission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("user_id = ?", grant.UserID)
		if grant.FolderID != nil {
			q = q.Where("folder_id = ?", *grant.FolderID)
		} else {
			q = q.Where("folder_id IS NULL")
		}
		if grant.DocumentID != nil {
			q = q.Where("document_id = ?", *grant.DocumentID)
		} else {
			q = q.Where("document_id IS NULL")
		}

		var existing Permission
		err := q.First(&existing).Error
		if err == nil {
			now := time.Now().UTC()
			updates := map[string]any{
				"permission_type": grant.Level,
				"expires_at":      grant.ExpiresAt,
				"modified_at":     now,
				"modified_by":     grant.GrantedBy,
			}
			if err := tx.Model(&Permission{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				return err
			}
			grant.ID = existing.ID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(grant).Error
	})
}

func (r *RepositoryImpl) FindForFolder(ctx context.Context, userID, folderID uuid.UUID) (*Permission, error) {
	var grant Permission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND folder_id = ?", userID, folderID).
		First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *RepositoryImpl) FindForDocument(ctx context.Context, userID, documentID uuid.UUID) (*Permission, error) {
	var grant Permission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND document_id = ?", userID, documentID).
		First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&Permission{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

const dtoSelect = `permissions.id, permissions.user_id, users.username AS user_name,
permissions.folder_id, folders.path AS folder_path,
permissions.document_id, documents.title AS document_title,
permissions.permission_type AS level, permissions.granted_by, permissions.granted_at, permissions.expires_at`

func (r *RepositoryImpl) dtoQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&Permission{}).
		Select(dtoSelect).
		Joins("JOIN users ON users.id = permissions.user_id").
		Joins("LEFT JOIN folders ON folders.id = permissions.folder_id").
		Joins("LEFT JOIN documents ON documents.id = permissions.document_id")
}

func (r *RepositoryImpl) DTOByID(ctx context.Context, id uuid.UUID) (*PermissionDTO, error) {
	var dto PermissionDTO
	err := r.dtoQuery(ctx).Where("permissions.id = ?", id).First(&dto).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (r *RepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]PermissionDTO, error) {
	var dtos []PermissionDTO
	err := r.dtoQuery(ctx).Where("permissions.user_id = ?", userID).Find(&dtos).Error
	return dtos, err
}

func (r *RepositoryImpl) ListByFolder(ctx context.Context, folderID uuid.UUID) ([]PermissionDTO, error) {
	var dtos []PermissionDTO
	err := r.dtoQuery(ctx).Where("permissions.folder_id = ?", folderID).Find(&dtos).Error
	return dtos, err
}

func (r *RepositoryImpl) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]PermissionDTO, error) {
	var dtos []PermissionDTO
	err := r.dtoQuery(ctx).Where("permissions.document_id = ?", documentID).Find(&dtos).Error
	return dtos, err
}
