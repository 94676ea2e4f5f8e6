package workflow

import (
	"context"
	"fmt"
	"time"

	"edm-backend/internal/errors"
	"edm-backend/internal/permission"

	"github.com/google/uuid"
)

// AccessChecker is the slice of the permission service the workflow service
// needs.
type AccessChecker interface {
	CanAccessDocument(ctx context.Context, userID, documentID uuid.UUID, required permission.Level) (bool, error)
}

type StepRequest struct {
	StepName         string
	AssignedToUserID uuid.UUID
}

type CreateWorkflowRequest struct {
	Name        string
	Description *string
	DocumentID  uuid.UUID
	DueDate     *time.Time
	Steps       []StepRequest
}

type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, actorName string, req CreateWorkflowRequest) (*Workflow, error)
	Get(ctx context.Context, actorID, id uuid.UUID) (*Workflow, error)
	ListForDocument(ctx context.Context, actorID, documentID uuid.UUID) ([]Workflow, error)
	// CompleteStep approves or rejects the current step. Only its
	// assignee may act on it.
	CompleteStep(ctx context.Context, actorID, workflowID uuid.UUID, approve bool, comment *string) (*Workflow, error)
}

type DefaultService struct {
	repository WorkflowRepository
	access     AccessChecker
	audit      permission.AuditRecorder
}

func NewService(repository WorkflowRepository, access AccessChecker, audit permission.AuditRecorder) Service {
	return &DefaultService{repository: repository, access: access, audit: audit}
}

func (s *DefaultService) Create(ctx context.Context, actorID uuid.UUID, actorName string, req CreateWorkflowRequest) (*Workflow, error) {
	if len(req.Steps) == 0 {
		return nil, errors.BadRequest("A workflow needs at least one step", nil)
	}

	allowed, err := s.access.CanAccessDocument(ctx, actorID, req.DocumentID, permission.LevelWrite)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Write access to the document is required", nil)
	}

	workflow := &Workflow{
		Name:             req.Name,
		Description:      req.Description,
		DocumentID:       req.DocumentID,
		Status:           StatusPending,
		CurrentStepOrder: 1,
		DueDate:          req.DueDate,
		CreatedBy:        actorName,
	}
	for i, step := range req.Steps {
		workflow.Steps = append(workflow.Steps, WorkflowStep{
			StepOrder:        i + 1,
			StepName:         step.StepName,
			AssignedToUserID: step.AssignedToUserID,
			Status:           StatusPending,
		})
	}

	if err := s.repository.Create(ctx, workflow); err != nil {
		return nil, errors.Internal(err)
	}
	if s.audit != nil {
		s.audit.Record(ctx, "workflow.create", "workflow", workflow.ID, actorName)
	}
	return workflow, nil
}

func (s *DefaultService) Get(ctx context.Context, actorID, id uuid.UUID) (*Workflow, error) {
	workflow, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if workflow == nil {
		return nil, errors.NotFound("Workflow not found", nil)
	}

	allowed, err := s.access.CanAccessDocument(ctx, actorID, workflow.DocumentID, permission.LevelRead)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Read access to the document is required", nil)
	}
	return workflow, nil
}

func (s *DefaultService) ListForDocument(ctx context.Context, actorID, documentID uuid.UUID) ([]Workflow, error) {
	allowed, err := s.access.CanAccessDocument(ctx, actorID, documentID, permission.LevelRead)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Read access to the document is required", nil)
	}

	workflows, err := s.repository.ListForDocument(ctx, documentID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return workflows, nil
}

func (s *DefaultService) CompleteStep(ctx context.Context, actorID, workflowID uuid.UUID, approve bool, comment *string) (*Workflow, error) {
	workflow, err := s.repository.FindByID(ctx, workflowID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if workflow == nil {
		return nil, errors.NotFound("Workflow not found", nil)
	}
	if workflow.Status != StatusPending {
		return nil, errors.BadRequest("Workflow is already finished", nil)
	}

	step := workflow.CurrentStep()
	if step == nil {
		return nil, errors.Internal(fmt.Errorf("workflow %s has no step %d", workflow.ID, workflow.CurrentStepOrder))
	}
	if step.AssignedToUserID != actorID {
		return nil, errors.Forbidden("Only the assignee can act on this step", nil)
	}

	now := time.Now().UTC()
	step.Comment = comment
	step.CompletedAt = &now

	if approve {
		step.Status = StatusApproved
		if workflow.CurrentStepOrder == len(workflow.Steps) {
			workflow.Status = StatusApproved
			workflow.CompletedAt = &now
		} else {
			workflow.CurrentStepOrder++
		}
	} else {
		step.Status = StatusRejected
		workflow.Status = StatusRejected
		workflow.CompletedAt = &now
	}

	if err := s.repository.SaveProgress(ctx, workflow, step); err != nil {
		return nil, errors.Internal(err)
	}

	if s.audit != nil {
		action := "workflow.step_approved"
		if !approve {
			action = "workflow.step_rejected"
		}
		s.audit.Record(ctx, action, "workflow", workflow.ID, actorID.String())
	}
	return workflow, nil
}
