package tag

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagRepository handles database operations for tags
type TagRepository interface {
	Create(ctx context.Context, tag *Tag) error
	FindByID(ctx context.Context, id uuid.UUID) (*Tag, error)
	FindByName(ctx context.Context, name string) (*Tag, error)
	List(ctx context.Context) ([]Tag, error)
	Update(ctx context.Context, tag *Tag) error
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)

	FindForDocument(ctx context.Context, documentID uuid.UUID) ([]Tag, error)
	// ReplaceForDocument swaps the document's tag set atomically.
	ReplaceForDocument(ctx context.Context, documentID uuid.UUID, tagIDs []uuid.UUID) error
}

type TagRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) TagRepository {
	return &TagRepositoryImpl{db: db}
}

func (r *TagRepositoryImpl) Create(ctx context.Context, tag *Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *TagRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*Tag, error) {
	var tag Tag
	err := r.db.WithContext(ctx).First(&tag, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *TagRepositoryImpl) FindByName(ctx context.Context, name string) (*Tag, error) {
	var tag Tag
	err := r.db.WithContext(ctx).First(&tag, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *TagRepositoryImpl) List(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := r.db.WithContext(ctx).Order("name asc").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *TagRepositoryImpl) Update(ctx context.Context, tag *Tag) error {
	return r.db.WithContext(ctx).Save(tag).Error
}

func (r *TagRepositoryImpl) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&Tag{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *TagRepositoryImpl) FindForDocument(ctx context.Context, documentID uuid.UUID) ([]Tag, error) {
	var tags []Tag
	err := r.db.WithContext(ctx).
		Joins("JOIN document_tags ON document_tags.tag_id = tags.id").
		Where("document_tags.document_id = ?", documentID).
		Order("tags.name asc").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *TagRepositoryImpl) ReplaceForDocument(ctx context.Context, documentID uuid.UUID, tagIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&DocumentTag{}).Error; err != nil {
			return err
		}
		if len(tagIDs) == 0 {
			return nil
		}
		rows := make([]DocumentTag, 0, len(tagIDs))
		for _, tagID := range tagIDs {
			rows = append(rows, DocumentTag{DocumentID: documentID, TagID: tagID})
		}
		return tx.Create(&rows).Error
	})
}
