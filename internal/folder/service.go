package folder

import (
	"context"
	"fmt"
	"time"

	"edm-backend/internal/errors"
	"edm-backend/internal/permission"
	"edm-backend/pkg/logger"
	appRedis "edm-backend/redis"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	usersFolderPath = "/Root/Users/"
	cacheVersionKey = "folders"
	cacheTTL        = 5 * time.Minute
)

// AccessChecker is the slice of the permission service the folder service
// needs.
type AccessChecker interface {
	CanAccessFolder(ctx context.Context, userID, folderID uuid.UUID, required permission.Level) (bool, error)
}

// DocumentCounter reports how many live documents a folder holds.
// Implemented by the document repository.
type DocumentCounter interface {
	CountInFolder(ctx context.Context, folderID uuid.UUID) (int64, error)
}

type CreateFolderRequest struct {
	Name           string
	Description    *string
	ParentFolderID uuid.UUID
}

type UpdateFolderRequest struct {
	Name        string
	Description *string
}

// Service handles folder tree operations
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreateFolderRequest) (*FolderDTO, error)
	Get(ctx context.Context, actorID, id uuid.UUID) (*FolderDTO, error)
	List(ctx context.Context, actorID uuid.UUID, parentID *uuid.UUID) ([]FolderDTO, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateFolderRequest) (*FolderDTO, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	EnsurePersonalFolder(ctx context.Context, ownerID uuid.UUID, username string) (bool, error)
}

type DefaultService struct {
	repository FolderRepository
	access     AccessChecker
	documents  DocumentCounter
	cache      *appRedis.Cache
	audit      permission.AuditRecorder
}

func NewService(repository FolderRepository, access AccessChecker, documents DocumentCounter, cache *appRedis.Cache, audit permission.AuditRecorder) Service {
	return &DefaultService{
		repository: repository,
		access:     access,
		documents:  documents,
		cache:      cache,
		audit:      audit,
	}
}

func (s *DefaultService) Create(ctx context.Context, actorID uuid.UUID, req CreateFolderRequest) (*FolderDTO, error) {
	parent, err := s.repository.FindByID(ctx, req.ParentFolderID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if parent == nil {
		return nil, errors.NotFound("Parent folder not found", nil)
	}

	allowed, err := s.access.CanAccessFolder(ctx, actorID, parent.ID, permission.LevelWrite)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Write access to the parent folder is required", nil)
	}

	folder := &Folder{
		Name:           req.Name,
		Description:    req.Description,
		ParentFolderID: &parent.ID,
		Path:           fmt.Sprintf("%s%s/", parent.Path, req.Name),
		Level:          parent.Level + 1,
		IsSystemFolder: false,
		OwnerID:        actorID,
	}
	if err := s.repository.Create(ctx, folder); err != nil {
		return nil, errors.Internal(err)
	}
	s.invalidate(ctx)
	if s.audit != nil {
		s.audit.Record(ctx, "folder.create", "folder", folder.ID, actorID.String())
	}

	dto := toDTO(*folder, 0, 0)
	return &dto, nil
}

func (s *DefaultService) Get(ctx context.Context, actorID, id uuid.UUID) (*FolderDTO, error) {
	allowed, err := s.access.CanAccessFolder(ctx, actorID, id, permission.LevelRead)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Read access to the folder is required", nil)
	}

	folder, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if folder == nil {
		return nil, errors.NotFound("Folder not found", nil)
	}

	dto, err := s.withCounts(ctx, *folder)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return dto, nil
}

// List returns the children of parentID (the root when nil) that the actor
// can read. Results are cached per actor and parent, versioned on the shared
// folders key so any mutation invalidates every listing at once.
func (s *DefaultService) List(ctx context.Context, actorID uuid.UUID, parentID *uuid.UUID) ([]FolderDTO, error) {
	cacheKey := s.listCacheKey(ctx, actorID, parentID)
	if s.cache != nil {
		var cached []FolderDTO
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	folders, err := s.repository.FindChildren(ctx, parentID)
	if err != nil {
		return nil, errors.Internal(err)
	}

	visible := make([]FolderDTO, 0, len(folders))
	for _, f := range folders {
		allowed, err := s.access.CanAccessFolder(ctx, actorID, f.ID, permission.LevelRead)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if !allowed {
			continue
		}
		dto, err := s.withCounts(ctx, f)
		if err != nil {
			return nil, errors.Internal(err)
		}
		visible = append(visible, *dto)
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, visible, cacheTTL)
	}
	return visible, nil
}

func (s *DefaultService) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateFolderRequest) (*FolderDTO, error) {
	allowed, err := s.access.CanAccessFolder(ctx, actorID, id, permission.LevelWrite)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !allowed {
		return nil, errors.Forbidden("Write access to the folder is required", nil)
	}

	folder, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if folder == nil {
		return nil, errors.NotFound("Folder not found", nil)
	}
	if folder.IsSystemFolder {
		return nil, errors.BadRequest("System folders cannot be modified", nil)
	}

	// Path and level stay as created: there is no move, and descendants
	// already embed the original name.
	folder.Name = req.Name
	folder.Description = req.Description
	if err := s.repository.Update(ctx, folder); err != nil {
		return nil, errors.Internal(err)
	}
	s.invalidate(ctx)
	if s.audit != nil {
		s.audit.Record(ctx, "folder.update", "folder", folder.ID, actorID.String())
	}

	dto, err := s.withCounts(ctx, *folder)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return dto, nil
}

func (s *DefaultService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	allowed, err := s.access.CanAccessFolder(ctx, actorID, id, permission.LevelAdmin)
	if err != nil {
		return errors.Internal(err)
	}
	if !allowed {
		return errors.Forbidden("Admin access to the folder is required", nil)
	}

	folder, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return errors.Internal(err)
	}
	if folder == nil {
		return errors.NotFound("Folder not found", nil)
	}
	if folder.IsSystemFolder {
		return errors.BadRequest("System folders cannot be deleted", nil)
	}

	if err := s.repository.SoftDelete(ctx, id); err != nil {
		return errors.Internal(err)
	}
	s.invalidate(ctx)
	if s.audit != nil {
		s.audit.Record(ctx, "folder.delete", "folder", id, actorID.String())
	}
	return nil
}

// EnsurePersonalFolder creates /Root/Users/<username>/ owned by the user if
// it does not exist yet. Called on every successful login, so it has to be
// quiet about the common "already there" case.
func (s *DefaultService) EnsurePersonalFolder(ctx context.Context, ownerID uuid.UUID, username string) (bool, error) {
	users, err := s.repository.FindByPath(ctx, usersFolderPath)
	if err != nil {
		return false, err
	}
	if users == nil {
		logger.L.Warn("users system folder missing, skipping personal folder",
			zap.String("username", username))
		return false, nil
	}

	personalPath := fmt.Sprintf("%s%s/", users.Path, username)
	existing, err := s.repository.FindByPath(ctx, personalPath)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	description := fmt.Sprintf("Personal folder for %s", username)
	folder := &Folder{
		Name:           username,
		Description:    &description,
		ParentFolderID: &users.ID,
		Path:           personalPath,
		Level:          users.Level + 1,
		IsSystemFolder: false,
		OwnerID:        ownerID,
	}
	if err := s.repository.Create(ctx, folder); err != nil {
		return false, err
	}
	s.invalidate(ctx)
	logger.L.Info("created personal folder",
		zap.String("username", username),
		zap.String("path", personalPath))
	return true, nil
}

func (s *DefaultService) withCounts(ctx context.Context, f Folder) (*FolderDTO, error) {
	childCount, err := s.repository.CountChildren(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	var documentCount int64
	if s.documents != nil {
		documentCount, err = s.documents.CountInFolder(ctx, f.ID)
		if err != nil {
			return nil, err
		}
	}
	dto := toDTO(f, childCount, documentCount)
	return &dto, nil
}

func (s *DefaultService) listCacheKey(ctx context.Context, actorID uuid.UUID, parentID *uuid.UUID) string {
	parent := "root"
	if parentID != nil {
		parent = parentID.String()
	}
	var version int64
	if s.cache != nil {
		version = s.cache.GetVersion(ctx, cacheVersionKey)
	}
	return fmt.Sprintf("folders:%s:%s:v%d", actorID, parent, version)
}

func (s *DefaultService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.IncrementVersion(ctx, cacheVersionKey)
	}
}
