package folder

import (
	"context"
	"errors"
	"fmt"

	"edm-backend/internal/permission"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FolderRepository handles database operations for folders
type FolderRepository interface {
	Create(ctx context.Context, folder *Folder) error
	FindByID(ctx context.Context, id uuid.UUID) (*Folder, error)
	FindByPath(ctx context.Context, path string) (*Folder, error)
	FindChildren(ctx context.Context, parentID *uuid.UUID) ([]Folder, error)
	CountChildren(ctx context.Context, id uuid.UUID) (int64, error)
	Update(ctx context.Context, folder *Folder) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// FolderAccessInfo feeds the access resolver. Returns (nil, nil) when
	// the folder does not exist or is soft-deleted.
	FolderAccessInfo(ctx context.Context, id uuid.UUID) (*permission.FolderInfo, error)
}

type FolderRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) FolderRepository {
	return &FolderRepositoryImpl{db: db}
}

func (r *FolderRepositoryImpl) Create(ctx context.Context, folder *Folder) error {
	return r.db.WithContext(ctx).Create(folder).Error
}

func (r *FolderRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*Folder, error) {
	var folder Folder
	err := r.db.WithContext(ctx).First(&folder, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (r *FolderRepositoryImpl) FindByPath(ctx context.Context, path string) (*Folder, error) {
	var folder Folder
	err := r.db.WithContext(ctx).First(&folder, "path = ?", path).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (r *FolderRepositoryImpl) FindChildren(ctx context.Context, parentID *uuid.UUID) ([]Folder, error) {
	var folders []Folder
	query := r.db.WithContext(ctx).Order("name asc")
	if parentID == nil {
		query = query.Where("parent_folder_id IS NULL")
	} else {
		query = query.Where("parent_folder_id = ?", *parentID)
	}
	if err := query.Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

func (r *FolderRepositoryImpl) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Folder{}).
		Where("parent_folder_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *FolderRepositoryImpl) Update(ctx context.Context, folder *Folder) error {
	return r.db.WithContext(ctx).Save(folder).Error
}

func (r *FolderRepositoryImpl) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Folder{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("folder %s not found", id)
	}
	return nil
}

func (r *FolderRepositoryImpl) FolderAccessInfo(ctx context.Context, id uuid.UUID) (*permission.FolderInfo, error) {
	var folder Folder
	err := r.db.WithContext(ctx).
		Select("owner_id", "is_system_folder").
		First(&folder, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &permission.FolderInfo{
		OwnerID:  folder.OwnerID,
		IsSystem: folder.IsSystemFolder,
	}, nil
}
