package workflow

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workflow and step statuses. A workflow stays Pending until every step is
// approved or any step is rejected.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Workflow is an ordered approval chain over a document.
type Workflow struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string         `gorm:"not null" json:"name"`
	Description      *string        `json:"description,omitempty"`
	DocumentID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"document_id"`
	Status           string         `gorm:"not null;default:'Pending'" json:"status"`
	CurrentStepOrder int            `gorm:"not null;default:1" json:"current_step_order"`
	DueDate          *time.Time     `json:"due_date,omitempty"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	CreatedBy        string         `gorm:"not null" json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Steps            []WorkflowStep `gorm:"foreignKey:WorkflowID" json:"steps"`
}

func (w *Workflow) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// CurrentStep returns the step the workflow is waiting on, nil once the
// workflow is finished.
func (w *Workflow) CurrentStep() *WorkflowStep {
	for i := range w.Steps {
		if w.Steps[i].StepOrder == w.CurrentStepOrder {
			return &w.Steps[i]
		}
	}
	return nil
}

// WorkflowStep is one approval in the chain, assigned to a single user.
type WorkflowStep struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	WorkflowID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"workflow_id"`
	StepOrder        int        `gorm:"not null" json:"step_order"`
	StepName         string     `gorm:"not null" json:"step_name"`
	AssignedToUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"assigned_to_user_id"`
	Status           string     `gorm:"not null;default:'Pending'" json:"status"`
	Comment          *string    `json:"comment,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (s *WorkflowStep) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
