package tag

import (
	"context"

	"edm-backend/internal/errors"

	"github.com/google/uuid"
)

type Service interface {
	List(ctx context.Context) ([]Tag, error)
	Get(ctx context.Context, id uuid.UUID) (*Tag, error)
	Create(ctx context.Context, tag *Tag) error
	Update(ctx context.Context, id uuid.UUID, name string, description *string, color string) (*Tag, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type DefaultService struct {
	repository TagRepository
}

func NewService(repository TagRepository) Service {
	return &DefaultService{repository: repository}
}

func (s *DefaultService) List(ctx context.Context) ([]Tag, error) {
	tags, err := s.repository.List(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return tags, nil
}

func (s *DefaultService) Get(ctx context.Context, id uuid.UUID) (*Tag, error) {
	tag, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if tag == nil {
		return nil, errors.NotFound("Tag not found", nil)
	}
	return tag, nil
}

func (s *DefaultService) Create(ctx context.Context, tag *Tag) error {
	existing, err := s.repository.FindByName(ctx, tag.Name)
	if err != nil {
		return errors.Internal(err)
	}
	if existing != nil {
		return errors.Conflict("A tag with this name already exists", nil)
	}
	if err := s.repository.Create(ctx, tag); err != nil {
		return errors.Internal(err)
	}
	return nil
}

func (s *DefaultService) Update(ctx context.Context, id uuid.UUID, name string, description *string, color string) (*Tag, error) {
	tag, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if tag == nil {
		return nil, errors.NotFound("Tag not found", nil)
	}

	if name != tag.Name {
		existing, err := s.repository.FindByName(ctx, name)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if existing != nil {
			return nil, errors.Conflict("A tag with this name already exists", nil)
		}
	}

	tag.Name = name
	tag.Description = description
	tag.Color = color
	if err := s.repository.Update(ctx, tag); err != nil {
		return nil, errors.Internal(err)
	}
	return tag, nil
}

func (s *DefaultService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repository.SoftDelete(ctx, id)
	if err != nil {
		return errors.Internal(err)
	}
	if !deleted {
		return errors.NotFound("Tag not found", nil)
	}
	return nil
}
