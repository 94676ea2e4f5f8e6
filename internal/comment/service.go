package comment

import (
	"context"

	"edm-backend/internal/errors"
	"edm-backend/internal/permission"

	"github.com/google/uuid"
)

// AccessChecker is the slice of the permission service the comment service
// needs.
type AccessChecker interface {
	CanAccessDocument(ctx context.Context, userID, documentID uuid.UUID, required permission.Level) (bool, error)
}

type CreateCommentRequest struct {
	DocumentID      uuid.UUID
	ParentCommentID *uuid.UUID
	Text            string
}

type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreateCommentRequest) (*Comment, error)
	ListForDocument(ctx context.Context, actorID, documentID uuid.UUID) ([]CommentDTO, error)
	Resolve(ctx context.Context, actorID uuid.UUID, actorRole permission.Role, id uuid.UUID, resolved bool) (*Comment, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole permission.Role, id uuid.UUID) error
}

type DefaultService struct {
	repository CommentRepository
	access     AccessChecker
}

func NewService(repository CommentRepository, access AccessChecker) Service {
	return &DefaultService{repository: repository, access: access}
}

// Create adds a comment. Read access to the document is enough: reviewers
// without Write still need to leave notes.
func (s *DefaultService) Create(ctx context.Context, actorID uuid.UUID, req CreateCommentRequest) (*Comment, error) {
	allowed, err := s.access.CanAccessDocument(ctx, actorID, req.DocumentID, permission.LevelRead)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Read access to the document is required", nil)
	}

	if req.ParentCommentID != nil {
		parent, err := s.repository.FindByID(ctx, *req.ParentCommentID)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if parent == nil || parent.DocumentID != req.DocumentID {
			return nil, errors.BadRequest("Parent comment not found on this document", nil)
		}
	}

	comment := &Comment{
		DocumentID:      req.DocumentID,
		ParentCommentID: req.ParentCommentID,
		UserID:          actorID,
		Text:            req.Text,
	}
	if err := s.repository.Create(ctx, comment); err != nil {
		return nil, errors.Internal(err)
	}
	return comment, nil
}

func (s *DefaultService) ListForDocument(ctx context.Context, actorID, documentID uuid.UUID) ([]CommentDTO, error) {
	allowed, err := s.access.CanAccessDocument(ctx, actorID, documentID, permission.LevelRead)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Read access to the document is required", nil)
	}

	comments, err := s.repository.ListForDocument(ctx, documentID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return comments, nil
}

// Resolve toggles the resolved flag. The author, document writers and
// elevated roles may do it.
func (s *DefaultService) Resolve(ctx context.Context, actorID uuid.UUID, actorRole permission.Role, id uuid.UUID, resolved bool) (*Comment, error) {
	comment, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if comment == nil {
		return nil, errors.NotFound("Comment not found", nil)
	}

	if comment.UserID != actorID && !actorRole.Elevated() {
		allowed, err := s.access.CanAccessDocument(ctx, actorID, comment.DocumentID, permission.LevelWrite)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if !allowed {
			return nil, errors.Forbidden("Only the author, document writers or admins can resolve a comment", nil)
		}
	}

	comment.IsResolved = resolved
	if err := s.repository.Update(ctx, comment); err != nil {
		return nil, errors.Internal(err)
	}
	return comment, nil
}

func (s *DefaultService) Delete(ctx context.Context, actorID uuid.UUID, actorRole permission.Role, id uuid.UUID) error {
	comment, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return errors.Internal(err)
	}
	if comment == nil {
		return errors.NotFound("Comment not found", nil)
	}

	if comment.UserID != actorID && !actorRole.Elevated() {
		return errors.Forbidden("Only the author or admins can delete a comment", nil)
	}

	if err := s.repository.SoftDelete(ctx, id); err != nil {
		return errors.Internal(err)
	}
	return nil
}
