package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter narrows the audit listing. Zero values mean "any".
type ListFilter struct {
	Action     string
	EntityType string
	EntityID   *uuid.UUID
}

type AuditRepository interface {
	Create(ctx context.Context, entry *AuditLog) error
	List(ctx context.Context, filter ListFilter, page, pageSize int) ([]AuditLog, int64, error)
}

type AuditRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

func (r *AuditRepositoryImpl) Create(ctx context.Context, entry *AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AuditRepositoryImpl) List(ctx context.Context, filter ListFilter, page, pageSize int) ([]AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&AuditLog{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []AuditLog
	err := query.Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
