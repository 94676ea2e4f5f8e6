package comment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListForDocument(ctx context.Context, documentID uuid.UUID) ([]CommentDTO, error)
	Update(ctx context.Context, comment *Comment) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type CommentRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) CommentRepository {
	return &CommentRepositoryImpl{db: db}
}

func (r *CommentRepositoryImpl) Create(ctx context.Context, comment *Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *CommentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	var comment Comment
	err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepositoryImpl) ListForDocument(ctx context.Context, documentID uuid.UUID) ([]CommentDTO, error) {
	var dtos []CommentDTO
	err := r.db.WithContext(ctx).Model(&Comment{}).
		Select("comments.id, comments.document_id, comments.parent_comment_id, comments.user_id, users.username AS user_name, comments.text, comments.is_resolved, comments.created_at").
		Joins("JOIN users ON users.id = comments.user_id").
		Where("comments.document_id = ?", documentID).
		Order("comments.created_at asc").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}
	return dtos, nil
}

func (r *CommentRepositoryImpl) Update(ctx context.Context, comment *Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *CommentRepositoryImpl) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&Comment{}, "id = ?", id).Error
}
