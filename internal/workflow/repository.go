package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkflowRepository interface {
	Create(ctx context.Context, workflow *Workflow) error
	FindByID(ctx context.Context, id uuid.UUID) (*Workflow, error)
	ListForDocument(ctx context.Context, documentID uuid.UUID) ([]Workflow, error)
	// SaveProgress persists the workflow row and the step that just
	// changed in one transaction.
	SaveProgress(ctx context.Context, workflow *Workflow, step *WorkflowStep) error
}

type WorkflowRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) WorkflowRepository {
	return &WorkflowRepositoryImpl{db: db}
}

func (r *WorkflowRepositoryImpl) Create(ctx context.Context, workflow *Workflow) error {
	return r.db.WithContext(ctx).Create(workflow).Error
}

func (r *WorkflowRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*Workflow, error) {
	var workflow Workflow
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order asc")
		}).
		First(&workflow, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}

func (r *WorkflowRepositoryImpl) ListForDocument(ctx context.Context, documentID uuid.UUID) ([]Workflow, error) {
	var workflows []Workflow
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order asc")
		}).
		Where("document_id = ?", documentID).
		Order("created_at desc").
		Find(&workflows).Error
	if err != nil {
		return nil, err
	}
	return workflows, nil
}

func (r *WorkflowRepositoryImpl) SaveProgress(ctx context.Context, workflow *Workflow, step *WorkflowStep) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(step).Error; err != nil {
			return err
		}
		return tx.Omit("Steps").Save(workflow).Error
	})
}
